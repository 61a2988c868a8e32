package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/predictor/prediction-ledger-poc/internal/ledger"
	"github.com/predictor/prediction-ledger-poc/internal/ledger-service/dto"
	"github.com/predictor/prediction-ledger-poc/internal/shared/metrics"
	"github.com/predictor/prediction-ledger-poc/pkg/contracts/events"
)

// Archiver persiste a trilha de auditoria. O core em memória é a fonte da
// verdade; falha de projeção não derruba a operação.
type Archiver interface {
	RecordOperation(ctx context.Context, op string, success bool, code string, payload any) error
	RecordUser(ctx context.Context, userID uint32, username string, startingBalance uint64) error
	RecordBet(ctx context.Context, b ledger.Bet) error
	RecordResolution(ctx context.Context, eventID uint32, answer bool, confidence uint8, settled []ledger.SettledBet) error
	UpsertEventSnapshot(ctx context.Context, ev ledger.Event) error
}

type EventCache interface {
	SetCurrent(ctx context.Context, v dto.EventView) error
	GetCurrent(ctx context.Context, eventID uint32) (*dto.EventView, error)
}

type Publisher interface {
	PublishBetPlaced(ctx context.Context, e events.BetPlaced) error
	PublishEventResolved(ctx context.Context, e events.EventResolved) error
	PublishBetSettled(ctx context.Context, e events.BetSettled) error
}

type Broadcaster interface {
	PublishMarketUpdate(ctx context.Context, u events.MarketUpdate) error
}

type Server struct {
	log   *zap.Logger
	eng   *ledger.Engine
	repo  Archiver
	cache EventCache
	publ  Publisher
	bcast Broadcaster
	met   *metrics.Metrics
}

func NewServer(log *zap.Logger, eng *ledger.Engine, repo Archiver, c EventCache, p Publisher, b Broadcaster, m *metrics.Metrics) *Server {
	return &Server{log: log, eng: eng, repo: repo, cache: c, publ: p, bcast: b, met: m}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/initialize", s.initialize) // POST
	mux.HandleFunc("/users", s.registerUser)    // POST
	mux.HandleFunc("/users/", s.userSubresource)
	mux.HandleFunc("/bets", s.placeBet)           // POST
	mux.HandleFunc("/events", s.eventsCollection) // POST cria, GET lista
	mux.HandleFunc("/events/", s.eventSubresource)
	mux.HandleFunc("/stats", s.getStats) // GET
	return mux
}

// identityFrom deriva a identidade comparável do chamador a partir do header.
// A autenticação em si acontece antes de chegar aqui.
func identityFrom(r *http.Request) (ledger.Identity, bool) {
	raw := r.Header.Get("X-Caller-Id")
	if raw == "" {
		return ledger.Identity{}, false
	}
	return ledger.IdentityFromString(raw), true
}

func nowUnix() uint64 { return uint64(time.Now().Unix()) }

func (s *Server) observe(op string, err error) {
	if s.met == nil {
		return
	}
	s.met.OperationsTotal.WithLabelValues(op).Inc()
	if err != nil {
		s.met.OperationFailures.WithLabelValues(op, ledger.Code(err)).Inc()
	}
}

// statusFor mapeia a recusa do core pro status HTTP; o corpo sempre carrega
// success=false e o código.
func statusFor(err error) int {
	switch ledger.Code(err) {
	case "NOT_FOUND":
		return http.StatusNotFound
	case "UNAUTHORIZED":
		return http.StatusForbidden
	case "CONTRACT_INACTIVE":
		return http.StatusServiceUnavailable
	default:
		return http.StatusConflict
	}
}

func (s *Server) initialize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	caller, ok := identityFrom(r)
	if !ok {
		http.Error(w, "X-Caller-Id required", http.StatusBadRequest)
		return
	}

	out, err := s.eng.Initialize(ledger.InitializeInput{Caller: caller, Now: nowUnix()})
	s.observe("initialize", err)
	s.archiveOp(r.Context(), "initialize", err, map[string]any{})
	if err != nil {
		writeJSONStatus(w, statusFor(err), dto.InitializeResponse{Code: ledger.Code(err)})
		return
	}
	writeJSON(w, dto.InitializeResponse{Success: out.Success})
}

func (s *Server) registerUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.CredentialHash == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if len(req.Username) > ledger.UsernameLen || len(req.CredentialHash) > ledger.CredentialLen {
		http.Error(w, "field too long", http.StatusBadRequest)
		return
	}

	var in ledger.RegisterUserInput
	ledger.PutText(in.Username[:], req.Username)
	ledger.PutText(in.CredentialHash[:], req.CredentialHash)

	out, err := s.eng.RegisterUser(in)
	s.observe("register_user", err)
	s.archiveOp(r.Context(), "register_user", err, map[string]any{"username": req.Username})
	if err != nil {
		writeJSONStatus(w, statusFor(err), dto.RegisterUserResponse{Code: ledger.Code(err)})
		return
	}

	if aerr := s.repo.RecordUser(r.Context(), out.UserID, req.Username, out.Balance); aerr != nil {
		s.log.Warn("record user failed", zap.Uint32("userId", out.UserID), zap.Error(aerr))
	}

	writeJSON(w, dto.RegisterUserResponse{UserID: out.UserID, Balance: out.Balance, Success: true})
}

func (s *Server) eventsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createEvent(w, r)
	case http.MethodGet:
		s.getEvents(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := identityFrom(r)
	if !ok {
		http.Error(w, "X-Caller-Id required", http.StatusBadRequest)
		return
	}
	var req dto.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.EndsAt == 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if len(req.Title) > ledger.TitleLen || len(req.Description) > ledger.DescriptionLen || len(req.Category) > ledger.CategoryLen {
		http.Error(w, "field too long", http.StatusBadRequest)
		return
	}

	in := ledger.CreateEventInput{Caller: caller, EndsAt: req.EndsAt, Now: nowUnix()}
	ledger.PutText(in.Title[:], req.Title)
	ledger.PutText(in.Description[:], req.Description)
	ledger.PutText(in.Category[:], req.Category)

	out, err := s.eng.CreateEvent(in)
	s.observe("create_event", err)
	s.archiveOp(r.Context(), "create_event", err, map[string]any{"title": req.Title, "endsAt": req.EndsAt})
	if err != nil {
		writeJSONStatus(w, statusFor(err), dto.CreateEventResponse{Code: ledger.Code(err)})
		return
	}

	s.projectEvent(r.Context(), out.EventID)
	if berr := s.bcast.PublishMarketUpdate(r.Context(), events.MarketUpdate{
		Type:     "event_created",
		EventID:  out.EventID,
		Title:    req.Title,
		Category: req.Category,
		EndsAt:   req.EndsAt,
		TsUnixMs: time.Now().UnixMilli(),
	}); berr != nil {
		s.log.Warn("broadcast event_created failed", zap.Uint32("eventId", out.EventID), zap.Error(berr))
	}

	writeJSON(w, dto.CreateEventResponse{EventID: out.EventID, Success: true})
}

func (s *Server) getEvents(w http.ResponseWriter, r *http.Request) {
	start := queryUint32(r, "start", 0)
	count := queryUint32(r, "count", 50)

	out, err := s.eng.GetEvents(start, count)
	s.observe("get_events", err)
	if err != nil {
		writeJSONStatus(w, statusFor(err), dto.EventsResponse{Code: ledger.Code(err)})
		return
	}

	list, err := s.eng.ListEvents(start, count)
	if err != nil {
		writeJSONStatus(w, statusFor(err), dto.EventsResponse{Code: ledger.Code(err)})
		return
	}
	resp := dto.EventsResponse{EventCount: out.EventCount, Success: true}
	for _, ev := range list.Events {
		resp.Events = append(resp.Events, eventView(ev))
	}
	writeJSON(w, resp)
}

// path: /events/{id} e /events/{id}/resolve
func (s *Server) eventSubresource(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/events/"), "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "eventId required", http.StatusBadRequest)
		return
	}
	id64, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		http.Error(w, "invalid eventId", http.StatusBadRequest)
		return
	}
	eventID := uint32(id64)

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		s.getEventDetails(w, r, eventID)
	case len(parts) == 2 && parts[1] == "resolve" && r.Method == http.MethodPost:
		s.resolveEvent(w, r, eventID)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) getEventDetails(w http.ResponseWriter, r *http.Request, eventID uint32) {
	// cache-aside: tenta o Redis antes do core
	if v, cerr := s.cache.GetCurrent(r.Context(), eventID); cerr == nil && v != nil {
		writeJSON(w, dto.EventDetailsResponse{Event: *v, Success: true})
		return
	} else if cerr != nil {
		s.log.Warn("event cache read failed", zap.Uint32("eventId", eventID), zap.Error(cerr))
	}

	out, err := s.eng.GetEventDetails(eventID)
	s.observe("get_event_details", err)
	if err != nil {
		writeJSONStatus(w, statusFor(err), dto.EventDetailsResponse{Code: ledger.Code(err)})
		return
	}

	v := eventView(out.Event)
	if cerr := s.cache.SetCurrent(r.Context(), v); cerr != nil {
		s.log.Warn("event cache write failed", zap.Uint32("eventId", eventID), zap.Error(cerr))
	}
	writeJSON(w, dto.EventDetailsResponse{Event: v, Success: true})
}

func (s *Server) resolveEvent(w http.ResponseWriter, r *http.Request, eventID uint32) {
	caller, ok := identityFrom(r)
	if !ok {
		http.Error(w, "X-Caller-Id required", http.StatusBadRequest)
		return
	}
	var req dto.ResolveEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	started := time.Now()
	out, err := s.eng.ResolveEvent(ledger.ResolveEventInput{
		Caller:        caller,
		EventID:       eventID,
		CorrectAnswer: req.CorrectAnswer,
		Confidence:    req.Confidence,
	})
	s.observe("resolve_event", err)
	s.archiveOp(r.Context(), "resolve_event", err, map[string]any{"eventId": eventID, "correctAnswer": req.CorrectAnswer})
	if err != nil {
		writeJSONStatus(w, statusFor(err), dto.ResolveEventResponse{Code: ledger.Code(err)})
		return
	}
	if s.met != nil {
		s.met.SettlementDuration.Observe(time.Since(started).Seconds())
		s.met.SettledBetsTotal.Add(float64(len(out.Settled)))
	}

	if aerr := s.repo.RecordResolution(r.Context(), eventID, req.CorrectAnswer, req.Confidence, out.Settled); aerr != nil {
		s.log.Warn("record resolution failed", zap.Uint32("eventId", eventID), zap.Error(aerr))
	}
	s.projectEvent(r.Context(), eventID)

	answer := req.CorrectAnswer
	if berr := s.bcast.PublishMarketUpdate(r.Context(), events.MarketUpdate{
		Type:          "event_resolved",
		EventID:       eventID,
		CorrectAnswer: &answer,
		WinnersCount:  out.WinnersCount,
		TotalPayout:   out.TotalPayout,
		TsUnixMs:      time.Now().UnixMilli(),
	}); berr != nil {
		s.log.Warn("broadcast event_resolved failed", zap.Uint32("eventId", eventID), zap.Error(berr))
	}

	_ = s.publ.PublishEventResolved(r.Context(), events.EventResolved{
		EventID:       eventID,
		CorrectAnswer: req.CorrectAnswer,
		Confidence:    req.Confidence,
		WinnersCount:  out.WinnersCount,
		TotalPayout:   out.TotalPayout,
	})
	for _, sb := range out.Settled {
		_ = s.publ.PublishBetSettled(r.Context(), events.BetSettled{
			BetID:      sb.BetID,
			UserID:     sb.UserID,
			EventID:    sb.EventID,
			Won:        sb.Won,
			Payout:     sb.Payout,
			NewBalance: sb.NewBalance,
		})
	}

	writeJSON(w, dto.ResolveEventResponse{
		WinnersCount: out.WinnersCount,
		TotalPayout:  out.TotalPayout,
		Success:      true,
	})
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == 0 || req.EventID == 0 || req.Amount == 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	out, err := s.eng.PlaceBet(ledger.PlaceBetInput{
		UserID:     req.UserID,
		EventID:    req.EventID,
		Prediction: req.Prediction,
		Amount:     req.Amount,
		Now:        nowUnix(),
	})
	s.observe("place_bet", err)
	s.archiveOp(r.Context(), "place_bet", err, map[string]any{"userId": req.UserID, "eventId": req.EventID, "amount": req.Amount})
	if err != nil {
		writeJSONStatus(w, statusFor(err), dto.PlaceBetResponse{Code: ledger.Code(err)})
		return
	}

	if aerr := s.repo.RecordBet(r.Context(), ledger.Bet{
		ID:         out.BetID,
		UserID:     req.UserID,
		EventID:    req.EventID,
		Prediction: req.Prediction,
		Amount:     req.Amount,
	}); aerr != nil {
		s.log.Warn("record bet failed", zap.Uint32("betId", out.BetID), zap.Error(aerr))
	}
	s.projectEvent(r.Context(), req.EventID)

	_ = s.publ.PublishBetPlaced(r.Context(), events.BetPlaced{
		BetID:      out.BetID,
		UserID:     req.UserID,
		EventID:    req.EventID,
		Prediction: req.Prediction,
		Amount:     req.Amount,
		NewBalance: out.NewBalance,
	})

	writeJSON(w, dto.PlaceBetResponse{BetID: out.BetID, NewBalance: out.NewBalance, Success: true})
}

// path: /users/{id}/balance e /users/{id}/bets
func (s *Server) userSubresource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/users/"), "/"), "/")
	if len(parts) != 2 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	id64, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		http.Error(w, "invalid userId", http.StatusBadRequest)
		return
	}
	userID := uint32(id64)

	switch parts[1] {
	case "balance":
		s.getBalance(w, userID)
	case "bets":
		s.getUserBets(w, r, userID)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) getBalance(w http.ResponseWriter, userID uint32) {
	out, err := s.eng.GetBalance(userID)
	s.observe("get_balance", err)
	if err != nil {
		writeJSONStatus(w, statusFor(err), dto.BalanceResponse{Code: ledger.Code(err)})
		return
	}
	writeJSON(w, dto.BalanceResponse{Balance: out.Balance, Success: true})
}

func (s *Server) getUserBets(w http.ResponseWriter, r *http.Request, userID uint32) {
	out, err := s.eng.GetUserBets(userID)
	s.observe("get_user_bets", err)
	if err != nil {
		writeJSONStatus(w, statusFor(err), dto.UserBetsResponse{Code: ledger.Code(err)})
		return
	}

	start := queryUint32(r, "start", 0)
	count := queryUint32(r, "count", 50)
	list, err := s.eng.ListUserBets(userID, start, count)
	if err != nil {
		writeJSONStatus(w, statusFor(err), dto.UserBetsResponse{Code: ledger.Code(err)})
		return
	}
	resp := dto.UserBetsResponse{BetCount: out.BetCount, Success: true}
	for _, b := range list.Bets {
		resp.Bets = append(resp.Bets, dto.BetView{
			BetID:       b.ID,
			UserID:      b.UserID,
			EventID:     b.EventID,
			Prediction:  b.Prediction,
			Amount:      b.Amount,
			CreatedAt:   b.CreatedAt,
			IsWon:       b.IsWon,
			IsProcessed: b.IsProcessed,
		})
	}
	writeJSON(w, resp)
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	out, err := s.eng.GetStats()
	s.observe("get_stats", err)
	if err != nil {
		writeJSONStatus(w, statusFor(err), dto.StatsResponse{Code: ledger.Code(err)})
		return
	}
	writeJSON(w, dto.StatsResponse{
		TotalUsers:     out.Stats.TotalUsers,
		TotalEvents:    out.Stats.TotalEvents,
		TotalBets:      out.Stats.TotalBets,
		TotalVolume:    out.Stats.TotalVolume,
		DefaultBalance: out.Settings.DefaultBalance,
		BetCost:        out.Settings.BetCost,
		WinReward:      out.Settings.WinReward,
		Success:        true,
	})
}

// projectEvent reprojeta o evento no banco e no cache depois de uma mutação.
func (s *Server) projectEvent(ctx context.Context, eventID uint32) {
	out, err := s.eng.GetEventDetails(eventID)
	if err != nil {
		s.log.Warn("project event read failed", zap.Uint32("eventId", eventID), zap.Error(err))
		return
	}
	if aerr := s.repo.UpsertEventSnapshot(ctx, out.Event); aerr != nil {
		s.log.Warn("event snapshot failed", zap.Uint32("eventId", eventID), zap.Error(aerr))
	}
	if cerr := s.cache.SetCurrent(ctx, eventView(out.Event)); cerr != nil {
		s.log.Warn("event cache write failed", zap.Uint32("eventId", eventID), zap.Error(cerr))
	}
}

func (s *Server) archiveOp(ctx context.Context, op string, opErr error, payload map[string]any) {
	if aerr := s.repo.RecordOperation(ctx, op, opErr == nil, ledger.Code(opErr), payload); aerr != nil {
		s.log.Warn("record operation failed", zap.String("op", op), zap.Error(aerr))
	}
}

func eventView(ev ledger.Event) dto.EventView {
	v := dto.EventView{
		EventID:     ev.ID,
		Title:       ledger.TextString(ev.Title[:]),
		Description: ledger.TextString(ev.Description[:]),
		Category:    ledger.TextString(ev.Category[:]),
		CreatedAt:   ev.CreatedAt,
		EndsAt:      ev.EndsAt,
		IsActive:    ev.IsActive,
		IsResolved:  ev.IsResolved,
		Confidence:  ev.Confidence,
		TotalBets:   ev.TotalBets,
		YesBets:     ev.YesBets,
		NoBets:      ev.NoBets,
	}
	if ev.IsResolved {
		answer := ev.CorrectAnswer
		v.CorrectAnswer = &answer
	}
	return v
}

func queryUint32(r *http.Request, name string, def uint32) uint32 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return def
	}
	return uint32(v)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
