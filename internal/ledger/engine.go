package ledger

import "sync"

// Settings é semeado no Initialize e não muda depois.
type Settings struct {
	DefaultBalance uint64
	BetCost        uint64
	WinReward      uint64
}

// Stats agrega os totais do contrato.
type Stats struct {
	TotalUsers  uint32
	TotalEvents uint32
	TotalBets   uint32
	TotalVolume uint64
}

// Valores originais do contrato.
const (
	DefaultBalance = 100
	BetCost        = 10
	WinReward      = 20
)

// Engine é o estado inteiro do ledger atrás de um único mutex. O host executa
// uma operação por vez; o mutex preserva esse contrato quando o processo
// atende chamadas concorrentes. O core não lê relógio nem faz I/O: timestamps
// chegam como entrada em cada chamada, para que toda réplica reproduza o
// mesmo estado a partir da mesma sequência.
type Engine struct {
	mu sync.Mutex

	initialized    bool
	contractActive bool
	admin          Identity
	settings       Settings
	stats          Stats

	users  *Store[User, *User]
	events *Store[Event, *Event]
	bets   *Store[Bet, *Bet]
}

func NewEngine() *Engine {
	return &Engine{
		users:  NewStore[User, *User]("user", MaxUsers),
		events: NewStore[Event, *Event]("event", MaxEvents),
		bets:   NewStore[Bet, *Bet]("bet", MaxBets),
	}
}

type InitializeInput struct {
	Caller Identity
	Now    uint64
}

type InitializeOutput struct {
	Success bool
}

// Initialize semeia settings e captura o chamador como admin. Só roda uma vez;
// a segunda chamada é recusada sem tocar em nada.
func (e *Engine) Initialize(in InitializeInput) (InitializeOutput, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return InitializeOutput{}, ErrAlreadyInitialized
	}
	e.initialized = true
	e.contractActive = true
	e.admin = in.Caller
	e.settings = Settings{
		DefaultBalance: DefaultBalance,
		BetCost:        BetCost,
		WinReward:      WinReward,
	}
	return InitializeOutput{Success: true}, nil
}

type RegisterUserInput struct {
	Username       [UsernameLen]byte
	CredentialHash [CredentialLen]byte
}

type RegisterUserOutput struct {
	UserID  uint32
	Balance uint64
	Success bool
}

// RegisterUser cria o usuário com o saldo inicial configurado.
func (e *Engine) RegisterUser(in RegisterUserInput) (RegisterUserOutput, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.contractActive {
		return RegisterUserOutput{}, ErrContractInactive
	}
	id, err := e.users.Insert(User{
		Username:       in.Username,
		CredentialHash: in.CredentialHash,
		Balance:        e.settings.DefaultBalance,
		IsActive:       true,
	})
	if err != nil {
		return RegisterUserOutput{}, err
	}
	e.stats.TotalUsers++
	return RegisterUserOutput{UserID: id, Balance: e.settings.DefaultBalance, Success: true}, nil
}

type CreateEventInput struct {
	Caller      Identity
	Title       [TitleLen]byte
	Description [DescriptionLen]byte
	Category    [CategoryLen]byte
	EndsAt      uint64
	Now         uint64
}

type CreateEventOutput struct {
	EventID uint32
	Success bool
}

// CreateEvent abre um mercado novo. Só o admin pode.
func (e *Engine) CreateEvent(in CreateEventInput) (CreateEventOutput, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.contractActive {
		return CreateEventOutput{}, ErrContractInactive
	}
	if in.Caller != e.admin {
		return CreateEventOutput{}, ErrUnauthorized
	}
	id, err := e.events.Insert(Event{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		CreatedAt:   in.Now,
		EndsAt:      in.EndsAt,
		IsActive:    true,
	})
	if err != nil {
		return CreateEventOutput{}, err
	}
	e.stats.TotalEvents++
	return CreateEventOutput{EventID: id, Success: true}, nil
}

type PlaceBetInput struct {
	UserID     uint32
	EventID    uint32
	Prediction bool
	Amount     uint64
	Now        uint64
}

type PlaceBetOutput struct {
	BetID      uint32
	NewBalance uint64
	Success    bool
}

// PlaceBet valida tudo antes de escrever qualquer coisa: ou o débito e a
// aposta entram juntos, ou nada muda.
func (e *Engine) PlaceBet(in PlaceBetInput) (PlaceBetOutput, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.contractActive {
		return PlaceBetOutput{}, ErrContractInactive
	}
	user, err := e.users.Get(in.UserID)
	if err != nil {
		return PlaceBetOutput{}, err
	}
	ev, err := e.events.Get(in.EventID)
	if err != nil {
		return PlaceBetOutput{}, err
	}
	if !ev.IsActive || ev.IsResolved {
		return PlaceBetOutput{}, ErrEventClosed
	}
	if in.Amount > user.Balance {
		return PlaceBetOutput{}, ErrInsufficientBalance
	}
	if e.bets.Full() {
		return PlaceBetOutput{}, ErrCapacityExceeded
	}

	betID, err := e.bets.Insert(Bet{
		UserID:     in.UserID,
		EventID:    in.EventID,
		Prediction: in.Prediction,
		Amount:     in.Amount,
		CreatedAt:  in.Now,
	})
	if err != nil {
		return PlaceBetOutput{}, err
	}
	user.Balance -= in.Amount
	user.TotalBets++
	ev.TotalBets++
	if in.Prediction {
		ev.YesBets++
	} else {
		ev.NoBets++
	}
	e.stats.TotalBets++
	e.stats.TotalVolume += in.Amount

	return PlaceBetOutput{BetID: betID, NewBalance: user.Balance, Success: true}, nil
}

type ResolveEventInput struct {
	Caller        Identity
	EventID       uint32
	CorrectAnswer bool
	Confidence    uint8
}

// SettledBet descreve uma aposta tocada pela varredura, para quem observa o
// resultado (emissão de mensagens, auditoria).
type SettledBet struct {
	BetID      uint32
	UserID     uint32
	EventID    uint32
	Won        bool
	Payout     uint64
	NewBalance uint64
}

type ResolveEventOutput struct {
	WinnersCount uint32
	TotalPayout  uint64
	Settled      []SettledBet
	Success      bool
}

// ResolveEvent fecha o mercado uma única vez e dispara a liquidação. A
// segunda tentativa é recusada antes de tocar em qualquer aposta.
func (e *Engine) ResolveEvent(in ResolveEventInput) (ResolveEventOutput, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.contractActive {
		return ResolveEventOutput{}, ErrContractInactive
	}
	if in.Caller != e.admin {
		return ResolveEventOutput{}, ErrUnauthorized
	}
	ev, err := e.events.Get(in.EventID)
	if err != nil {
		return ResolveEventOutput{}, err
	}
	if ev.IsResolved {
		return ResolveEventOutput{}, ErrAlreadyResolved
	}

	ev.IsActive = false
	ev.IsResolved = true
	ev.CorrectAnswer = in.CorrectAnswer
	ev.Confidence = in.Confidence

	winners, payout, settled := e.settle(ev)
	return ResolveEventOutput{
		WinnersCount: winners,
		TotalPayout:  payout,
		Settled:      settled,
		Success:      true,
	}, nil
}

type GetBalanceOutput struct {
	Balance uint64
	Success bool
}

func (e *Engine) GetBalance(userID uint32) (GetBalanceOutput, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.contractActive {
		return GetBalanceOutput{}, ErrContractInactive
	}
	user, err := e.users.Get(userID)
	if err != nil {
		return GetBalanceOutput{}, err
	}
	return GetBalanceOutput{Balance: user.Balance, Success: true}, nil
}

type GetEventsOutput struct {
	EventCount uint32
	Success    bool
}

// GetEvents conta os mercados abertos. Os parâmetros de janela da interface
// original não afetam a contagem; a listagem paginada vive em ListEvents.
func (e *Engine) GetEvents(startIndex, count uint32) (GetEventsOutput, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.contractActive {
		return GetEventsOutput{}, ErrContractInactive
	}
	var active uint32
	e.events.ForEach(func(ev *Event) {
		if ev.IsActive {
			active++
		}
	})
	return GetEventsOutput{EventCount: active, Success: true}, nil
}

type GetUserBetsOutput struct {
	BetCount uint32
	Success  bool
}

func (e *Engine) GetUserBets(userID uint32) (GetUserBetsOutput, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.contractActive {
		return GetUserBetsOutput{}, ErrContractInactive
	}
	if _, err := e.users.Get(userID); err != nil {
		return GetUserBetsOutput{}, err
	}
	var n uint32
	e.bets.ForEach(func(b *Bet) {
		if b.UserID == userID {
			n++
		}
	})
	return GetUserBetsOutput{BetCount: n, Success: true}, nil
}

type GetEventDetailsOutput struct {
	Event   Event
	Success bool
}

// GetEventDetails devolve uma cópia do evento.
func (e *Engine) GetEventDetails(eventID uint32) (GetEventDetailsOutput, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.contractActive {
		return GetEventDetailsOutput{}, ErrContractInactive
	}
	ev, err := e.events.Get(eventID)
	if err != nil {
		return GetEventDetailsOutput{}, err
	}
	return GetEventDetailsOutput{Event: *ev, Success: true}, nil
}

type ListEventsOutput struct {
	Events  []Event
	Success bool
}

// ListEvents devolve uma janela dos eventos em ordem de criação.
func (e *Engine) ListEvents(startIndex, count uint32) (ListEventsOutput, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.contractActive {
		return ListEventsOutput{}, ErrContractInactive
	}
	out := ListEventsOutput{Success: true}
	var idx uint32
	e.events.ForEach(func(ev *Event) {
		if idx >= startIndex && uint32(len(out.Events)) < count {
			out.Events = append(out.Events, *ev)
		}
		idx++
	})
	return out, nil
}

type ListUserBetsOutput struct {
	Bets    []Bet
	Success bool
}

// ListUserBets devolve as apostas de um usuário em ordem de inserção.
func (e *Engine) ListUserBets(userID, startIndex, count uint32) (ListUserBetsOutput, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.contractActive {
		return ListUserBetsOutput{}, ErrContractInactive
	}
	if _, err := e.users.Get(userID); err != nil {
		return ListUserBetsOutput{}, err
	}
	out := ListUserBetsOutput{Success: true}
	var idx uint32
	e.bets.ForEach(func(b *Bet) {
		if b.UserID != userID {
			return
		}
		if idx >= startIndex && uint32(len(out.Bets)) < count {
			out.Bets = append(out.Bets, *b)
		}
		idx++
	})
	return out, nil
}

type GetStatsOutput struct {
	Stats    Stats
	Settings Settings
	Success  bool
}

func (e *Engine) GetStats() (GetStatsOutput, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.contractActive {
		return GetStatsOutput{}, ErrContractInactive
	}
	return GetStatsOutput{Stats: e.stats, Settings: e.settings, Success: true}, nil
}

// GetUserDetails devolve uma cópia do usuário.
func (e *Engine) GetUserDetails(userID uint32) (User, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.contractActive {
		return User{}, ErrContractInactive
	}
	user, err := e.users.Get(userID)
	if err != nil {
		return User{}, err
	}
	return *user, nil
}
