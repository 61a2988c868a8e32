package dto

// Toda resposta carrega o flag de sucesso; em falha o payload vem zerado e
// Code identifica a recusa.
type RegisterUserResponse struct {
	UserID  uint32 `json:"userId"`
	Balance uint64 `json:"balance"`
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
}

type InitializeResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
}

type CreateEventResponse struct {
	EventID uint32 `json:"eventId"`
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
}

type PlaceBetResponse struct {
	BetID      uint32 `json:"betId"`
	NewBalance uint64 `json:"newBalance"`
	Success    bool   `json:"success"`
	Code       string `json:"code,omitempty"`
}

type ResolveEventResponse struct {
	WinnersCount uint32 `json:"winnersCount"`
	TotalPayout  uint64 `json:"totalPayout"`
	Success      bool   `json:"success"`
	Code         string `json:"code,omitempty"`
}

type BalanceResponse struct {
	Balance uint64 `json:"balance"`
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
}

type EventView struct {
	EventID       uint32 `json:"eventId"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	CreatedAt     uint64 `json:"createdAt"`
	EndsAt        uint64 `json:"endsAt"`
	IsActive      bool   `json:"isActive"`
	IsResolved    bool   `json:"isResolved"`
	CorrectAnswer *bool  `json:"correctAnswer,omitempty"`
	Confidence    uint8  `json:"confidence,omitempty"`
	TotalBets     uint32 `json:"totalBets"`
	YesBets       uint32 `json:"yesBets"`
	NoBets        uint32 `json:"noBets"`
}

type EventsResponse struct {
	EventCount uint32      `json:"eventCount"`
	Events     []EventView `json:"events,omitempty"`
	Success    bool        `json:"success"`
	Code       string      `json:"code,omitempty"`
}

type EventDetailsResponse struct {
	Event   EventView `json:"event"`
	Success bool      `json:"success"`
	Code    string    `json:"code,omitempty"`
}

type BetView struct {
	BetID       uint32 `json:"betId"`
	UserID      uint32 `json:"userId"`
	EventID     uint32 `json:"eventId"`
	Prediction  bool   `json:"prediction"`
	Amount      uint64 `json:"amount"`
	CreatedAt   uint64 `json:"createdAt"`
	IsWon       bool   `json:"isWon"`
	IsProcessed bool   `json:"isProcessed"`
}

type UserBetsResponse struct {
	BetCount uint32    `json:"betCount"`
	Bets     []BetView `json:"bets,omitempty"`
	Success  bool      `json:"success"`
	Code     string    `json:"code,omitempty"`
}

type StatsResponse struct {
	TotalUsers     uint32 `json:"totalUsers"`
	TotalEvents    uint32 `json:"totalEvents"`
	TotalBets      uint32 `json:"totalBets"`
	TotalVolume    uint64 `json:"totalVolume"`
	DefaultBalance uint64 `json:"defaultBalance"`
	BetCost        uint64 `json:"betCost"`
	WinReward      uint64 `json:"winReward"`
	Success        bool   `json:"success"`
	Code           string `json:"code,omitempty"`
}
