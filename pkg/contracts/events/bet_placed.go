package events

// Evento publicado no tópico "bet_placed" após o ledger aceitar a aposta.
type BetPlaced struct {
	BetID      uint32 `json:"bet_id"`
	UserID     uint32 `json:"user_id"`
	EventID    uint32 `json:"event_id"`
	Prediction bool   `json:"prediction"`
	Amount     uint64 `json:"amount"`
	NewBalance uint64 `json:"new_balance"`
	TsUnixMs   int64  `json:"ts_unix_ms"`
}
