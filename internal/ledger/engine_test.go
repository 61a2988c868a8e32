package ledger

import (
	"errors"
	"testing"
)

var (
	adminID  = Identity{1}
	callerID = Identity{2}
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine()
	out, err := e.Initialize(InitializeInput{Caller: adminID, Now: 1000})
	if err != nil || !out.Success {
		t.Fatalf("initialize: %v", err)
	}
	return e
}

func registerUser(t *testing.T, e *Engine, name string) uint32 {
	t.Helper()
	var in RegisterUserInput
	PutText(in.Username[:], name)
	PutText(in.CredentialHash[:], "hash-"+name)
	out, err := e.RegisterUser(in)
	if err != nil || !out.Success {
		t.Fatalf("register %s: %v", name, err)
	}
	return out.UserID
}

func createEvent(t *testing.T, e *Engine, title string) uint32 {
	t.Helper()
	in := CreateEventInput{Caller: adminID, EndsAt: 2000, Now: 1000}
	PutText(in.Title[:], title)
	PutText(in.Description[:], "desc")
	PutText(in.Category[:], "sports")
	out, err := e.CreateEvent(in)
	if err != nil || !out.Success {
		t.Fatalf("create event %s: %v", title, err)
	}
	return out.EventID
}

func TestInitializeOnce(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.Initialize(InitializeInput{Caller: callerID, Now: 2000})
	if !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("got err %v, want ErrAlreadyInitialized", err)
	}
	if out.Success {
		t.Error("second initialize reported success")
	}

	// admin original continua valendo
	if _, err := e.CreateEvent(CreateEventInput{Caller: adminID, EndsAt: 1, Now: 1}); err != nil {
		t.Errorf("original admin rejected after re-init attempt: %v", err)
	}
}

func TestOperationsBeforeInitialize(t *testing.T) {
	e := NewEngine()
	if _, err := e.RegisterUser(RegisterUserInput{}); !errors.Is(err, ErrContractInactive) {
		t.Errorf("got err %v, want ErrContractInactive", err)
	}
	if _, err := e.GetBalance(1); !errors.Is(err, ErrContractInactive) {
		t.Errorf("got err %v, want ErrContractInactive", err)
	}
}

func TestRegisterUserStartingState(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.RegisterUser(RegisterUserInput{})
	if err != nil {
		t.Fatal(err)
	}
	if out.UserID != 1 {
		t.Errorf("got id %d, want 1", out.UserID)
	}
	if out.Balance != DefaultBalance {
		t.Errorf("got balance %d, want %d", out.Balance, DefaultBalance)
	}

	u, err := e.GetUserDetails(out.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if u.TotalBets != 0 || u.TotalWins != 0 {
		t.Errorf("got counters %d/%d, want 0/0", u.TotalBets, u.TotalWins)
	}
	if !u.IsActive {
		t.Error("new user not active")
	}
}

func TestCreateEventRequiresAdmin(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.CreateEvent(CreateEventInput{Caller: callerID, EndsAt: 2000, Now: 1000})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("got err %v, want ErrUnauthorized", err)
	}
	if out.Success || out.EventID != 0 {
		t.Errorf("got output %+v, want zeroed failure", out)
	}
}

func TestPlaceBet(t *testing.T) {
	e := newTestEngine(t)
	uid := registerUser(t, e, "u1")
	evID := createEvent(t, e, "match")

	out, err := e.PlaceBet(PlaceBetInput{UserID: uid, EventID: evID, Prediction: true, Amount: BetCost, Now: 1500})
	if err != nil || !out.Success {
		t.Fatalf("place bet: %v", err)
	}
	if out.BetID != 1 {
		t.Errorf("got bet id %d, want 1", out.BetID)
	}
	if out.NewBalance != DefaultBalance-BetCost {
		t.Errorf("got balance %d, want %d", out.NewBalance, DefaultBalance-BetCost)
	}

	ev, _ := e.GetEventDetails(evID)
	if ev.Event.TotalBets != 1 || ev.Event.YesBets != 1 || ev.Event.NoBets != 0 {
		t.Errorf("got counters total=%d yes=%d no=%d, want 1/1/0",
			ev.Event.TotalBets, ev.Event.YesBets, ev.Event.NoBets)
	}
}

func TestPlaceBetFailures(t *testing.T) {
	e := newTestEngine(t)
	uid := registerUser(t, e, "u1")
	evID := createEvent(t, e, "match")

	resolved := createEvent(t, e, "done")
	if _, err := e.ResolveEvent(ResolveEventInput{Caller: adminID, EventID: resolved, CorrectAnswer: true}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		in      PlaceBetInput
		wantErr error
	}{
		{"unknown user", PlaceBetInput{UserID: 99, EventID: evID, Amount: 10}, ErrNotFound},
		{"unknown event", PlaceBetInput{UserID: uid, EventID: 99, Amount: 10}, ErrNotFound},
		{"resolved event", PlaceBetInput{UserID: uid, EventID: resolved, Amount: 10}, ErrEventClosed},
		{"amount over balance", PlaceBetInput{UserID: uid, EventID: evID, Amount: DefaultBalance + 1}, ErrInsufficientBalance},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := e.PlaceBet(tc.in)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got err %v, want %v", err, tc.wantErr)
			}
			if out.Success || out.BetID != 0 || out.NewBalance != 0 {
				t.Errorf("got output %+v, want zeroed failure", out)
			}
		})
	}

	// nenhuma falha acima pode ter mudado estado
	u, _ := e.GetUserDetails(uid)
	if u.Balance != DefaultBalance || u.TotalBets != 0 {
		t.Errorf("state changed on failed bets: balance=%d totalBets=%d", u.Balance, u.TotalBets)
	}
	ev, _ := e.GetEventDetails(evID)
	if ev.Event.TotalBets != 0 {
		t.Errorf("event counters changed on failed bets: %d", ev.Event.TotalBets)
	}
}

func TestEventCountersStayConsistent(t *testing.T) {
	e := newTestEngine(t)
	evID := createEvent(t, e, "match")

	for i := 0; i < 6; i++ {
		uid := registerUser(t, e, "u")
		pred := i%2 == 0
		if _, err := e.PlaceBet(PlaceBetInput{UserID: uid, EventID: evID, Prediction: pred, Amount: 10, Now: 1500}); err != nil {
			t.Fatal(err)
		}
		ev, _ := e.GetEventDetails(evID)
		if ev.Event.YesBets+ev.Event.NoBets != ev.Event.TotalBets {
			t.Fatalf("after bet %d: yes=%d no=%d total=%d", i+1,
				ev.Event.YesBets, ev.Event.NoBets, ev.Event.TotalBets)
		}
	}
}

func TestResolveEventSingleWinner(t *testing.T) {
	e := newTestEngine(t)
	uid := registerUser(t, e, "u1")
	evID := createEvent(t, e, "match")

	if _, err := e.PlaceBet(PlaceBetInput{UserID: uid, EventID: evID, Prediction: true, Amount: 10, Now: 1500}); err != nil {
		t.Fatal(err)
	}

	out, err := e.ResolveEvent(ResolveEventInput{Caller: adminID, EventID: evID, CorrectAnswer: true, Confidence: 90})
	if err != nil || !out.Success {
		t.Fatalf("resolve: %v", err)
	}
	if out.WinnersCount != 1 {
		t.Errorf("got winners %d, want 1", out.WinnersCount)
	}
	if out.TotalPayout != WinReward {
		t.Errorf("got payout %d, want %d", out.TotalPayout, WinReward)
	}

	bal, _ := e.GetBalance(uid)
	if want := uint64(DefaultBalance - 10 + WinReward); bal.Balance != want {
		t.Errorf("got balance %d, want %d", bal.Balance, want)
	}
	u, _ := e.GetUserDetails(uid)
	if u.TotalWins != 1 {
		t.Errorf("got totalWins %d, want 1", u.TotalWins)
	}
	if len(out.Settled) != 1 || !out.Settled[0].Won {
		t.Fatalf("got settled %+v, want one winning bet", out.Settled)
	}
}

func TestResolveEventTwoSides(t *testing.T) {
	e := newTestEngine(t)
	u1 := registerUser(t, e, "u1")
	u2 := registerUser(t, e, "u2")
	evID := createEvent(t, e, "match")

	if _, err := e.PlaceBet(PlaceBetInput{UserID: u1, EventID: evID, Prediction: true, Amount: 10, Now: 1500}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.PlaceBet(PlaceBetInput{UserID: u2, EventID: evID, Prediction: false, Amount: 10, Now: 1500}); err != nil {
		t.Fatal(err)
	}

	out, err := e.ResolveEvent(ResolveEventInput{Caller: adminID, EventID: evID, CorrectAnswer: false})
	if err != nil {
		t.Fatal(err)
	}
	if out.WinnersCount != 1 || out.TotalPayout != WinReward {
		t.Errorf("got winners=%d payout=%d, want 1/%d", out.WinnersCount, out.TotalPayout, WinReward)
	}

	b1, _ := e.GetBalance(u1)
	b2, _ := e.GetBalance(u2)
	if b1.Balance != DefaultBalance-10 {
		t.Errorf("loser balance %d, want %d", b1.Balance, DefaultBalance-10)
	}
	if b2.Balance != DefaultBalance-10+WinReward {
		t.Errorf("winner balance %d, want %d", b2.Balance, DefaultBalance-10+WinReward)
	}

	// as duas apostas ficam processadas, só uma ganha
	bets, _ := e.ListUserBets(u1, 0, 10)
	if len(bets.Bets) != 1 || !bets.Bets[0].IsProcessed || bets.Bets[0].IsWon {
		t.Errorf("loser bet %+v, want processed and not won", bets.Bets)
	}
	bets, _ = e.ListUserBets(u2, 0, 10)
	if len(bets.Bets) != 1 || !bets.Bets[0].IsProcessed || !bets.Bets[0].IsWon {
		t.Errorf("winner bet %+v, want processed and won", bets.Bets)
	}
}

func TestResolveEventIdempotent(t *testing.T) {
	e := newTestEngine(t)
	uid := registerUser(t, e, "u1")
	evID := createEvent(t, e, "match")
	if _, err := e.PlaceBet(PlaceBetInput{UserID: uid, EventID: evID, Prediction: true, Amount: 10, Now: 1500}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.ResolveEvent(ResolveEventInput{Caller: adminID, EventID: evID, CorrectAnswer: true}); err != nil {
		t.Fatal(err)
	}
	balAfterFirst, _ := e.GetBalance(uid)

	out, err := e.ResolveEvent(ResolveEventInput{Caller: adminID, EventID: evID, CorrectAnswer: false})
	if !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("got err %v, want ErrAlreadyResolved", err)
	}
	if out.Success || out.WinnersCount != 0 || out.TotalPayout != 0 {
		t.Errorf("second resolve output %+v, want zeroed failure", out)
	}

	bal, _ := e.GetBalance(uid)
	if bal.Balance != balAfterFirst.Balance {
		t.Errorf("balance changed on second resolve: %d -> %d", balAfterFirst.Balance, bal.Balance)
	}
	ev, _ := e.GetEventDetails(evID)
	if !ev.Event.CorrectAnswer {
		t.Error("second resolve overwrote the recorded answer")
	}
}

func TestResolveEventFailures(t *testing.T) {
	e := newTestEngine(t)
	evID := createEvent(t, e, "match")

	if _, err := e.ResolveEvent(ResolveEventInput{Caller: callerID, EventID: evID, CorrectAnswer: true}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("got err %v, want ErrUnauthorized", err)
	}
	if _, err := e.ResolveEvent(ResolveEventInput{Caller: adminID, EventID: 99, CorrectAnswer: true}); !errors.Is(err, ErrNotFound) {
		t.Errorf("got err %v, want ErrNotFound", err)
	}

	ev, _ := e.GetEventDetails(evID)
	if !ev.Event.IsActive || ev.Event.IsResolved {
		t.Error("failed resolve attempts changed event state")
	}
}

func TestSettlementSweepSkipsOtherEvents(t *testing.T) {
	e := newTestEngine(t)
	uid := registerUser(t, e, "u1")
	ev1 := createEvent(t, e, "first")
	ev2 := createEvent(t, e, "second")

	if _, err := e.PlaceBet(PlaceBetInput{UserID: uid, EventID: ev1, Prediction: true, Amount: 10, Now: 1500}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.PlaceBet(PlaceBetInput{UserID: uid, EventID: ev2, Prediction: true, Amount: 10, Now: 1500}); err != nil {
		t.Fatal(err)
	}

	if _, err := e.ResolveEvent(ResolveEventInput{Caller: adminID, EventID: ev1, CorrectAnswer: true}); err != nil {
		t.Fatal(err)
	}

	bets, _ := e.ListUserBets(uid, 0, 10)
	if len(bets.Bets) != 2 {
		t.Fatalf("got %d bets, want 2", len(bets.Bets))
	}
	if !bets.Bets[0].IsProcessed {
		t.Error("bet on resolved event not processed")
	}
	if bets.Bets[1].IsProcessed {
		t.Error("bet on open event was processed by another event's sweep")
	}
}

func TestGetEventsCountsActive(t *testing.T) {
	e := newTestEngine(t)
	createEvent(t, e, "a")
	ev2 := createEvent(t, e, "b")
	createEvent(t, e, "c")

	if _, err := e.ResolveEvent(ResolveEventInput{Caller: adminID, EventID: ev2, CorrectAnswer: true}); err != nil {
		t.Fatal(err)
	}

	out, err := e.GetEvents(0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if out.EventCount != 2 {
		t.Errorf("got %d active events, want 2", out.EventCount)
	}
}

func TestGetUserBetsCount(t *testing.T) {
	e := newTestEngine(t)
	u1 := registerUser(t, e, "u1")
	u2 := registerUser(t, e, "u2")
	evID := createEvent(t, e, "match")

	for i := 0; i < 3; i++ {
		if _, err := e.PlaceBet(PlaceBetInput{UserID: u1, EventID: evID, Prediction: true, Amount: 10, Now: 1500}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := e.PlaceBet(PlaceBetInput{UserID: u2, EventID: evID, Prediction: false, Amount: 10, Now: 1500}); err != nil {
		t.Fatal(err)
	}

	out, err := e.GetUserBets(u1)
	if err != nil {
		t.Fatal(err)
	}
	if out.BetCount != 3 {
		t.Errorf("got %d bets, want 3", out.BetCount)
	}

	if _, err := e.GetUserBets(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("got err %v, want ErrNotFound", err)
	}
}

func TestListEventsWindow(t *testing.T) {
	e := newTestEngine(t)
	for _, name := range []string{"a", "b", "c", "d"} {
		createEvent(t, e, name)
	}

	out, err := e.ListEvents(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(out.Events))
	}
	if out.Events[0].ID != 2 || out.Events[1].ID != 3 {
		t.Errorf("got ids %d,%d, want 2,3", out.Events[0].ID, out.Events[1].ID)
	}
	if got := TextString(out.Events[0].Title[:]); got != "b" {
		t.Errorf("got title %q, want %q", got, "b")
	}
}

func TestStatsAccumulate(t *testing.T) {
	e := newTestEngine(t)
	uid := registerUser(t, e, "u1")
	evID := createEvent(t, e, "match")
	if _, err := e.PlaceBet(PlaceBetInput{UserID: uid, EventID: evID, Prediction: true, Amount: 25, Now: 1500}); err != nil {
		t.Fatal(err)
	}

	out, err := e.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	want := Stats{TotalUsers: 1, TotalEvents: 1, TotalBets: 1, TotalVolume: 25}
	if out.Stats != want {
		t.Errorf("got stats %+v, want %+v", out.Stats, want)
	}
	if out.Settings.WinReward != WinReward {
		t.Errorf("got winReward %d, want %d", out.Settings.WinReward, WinReward)
	}
}

func TestBalanceNeverNegative(t *testing.T) {
	e := newTestEngine(t)
	uid := registerUser(t, e, "u1")
	evID := createEvent(t, e, "match")

	// esgota o saldo em apostas de 10; a 11a tem que falhar sem mudar nada
	for i := 0; i < 10; i++ {
		if _, err := e.PlaceBet(PlaceBetInput{UserID: uid, EventID: evID, Prediction: true, Amount: 10, Now: 1500}); err != nil {
			t.Fatalf("bet %d: %v", i+1, err)
		}
	}
	bal, _ := e.GetBalance(uid)
	if bal.Balance != 0 {
		t.Fatalf("got balance %d, want 0", bal.Balance)
	}

	if _, err := e.PlaceBet(PlaceBetInput{UserID: uid, EventID: evID, Prediction: true, Amount: 10, Now: 1500}); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("got err %v, want ErrInsufficientBalance", err)
	}
	bal, _ = e.GetBalance(uid)
	if bal.Balance != 0 {
		t.Errorf("balance changed on rejected bet: %d", bal.Balance)
	}
}

func TestRegisterUserCapacity(t *testing.T) {
	e := newTestEngine(t)
	for i := 0; i < MaxUsers; i++ {
		if _, err := e.RegisterUser(RegisterUserInput{}); err != nil {
			t.Fatalf("register %d: %v", i+1, err)
		}
	}

	out, err := e.RegisterUser(RegisterUserInput{})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("got err %v, want ErrCapacityExceeded", err)
	}
	if out.Success || out.UserID != 0 {
		t.Errorf("got output %+v, want zeroed failure", out)
	}

	stats, _ := e.GetStats()
	if stats.Stats.TotalUsers != MaxUsers {
		t.Errorf("got totalUsers %d, want %d", stats.Stats.TotalUsers, MaxUsers)
	}
}

func TestTextRoundTrip(t *testing.T) {
	var buf [TitleLen]byte
	PutText(buf[:], "final do campeonato")
	if got := TextString(buf[:]); got != "final do campeonato" {
		t.Errorf("got %q", got)
	}

	long := make([]byte, TitleLen+50)
	for i := range long {
		long[i] = 'x'
	}
	PutText(buf[:], string(long))
	if got := TextString(buf[:]); len(got) != TitleLen {
		t.Errorf("got len %d, want %d", len(got), TitleLen)
	}
}
