package events

// Evento publicado no tópico "bet_settled", um por aposta tocada pela
// liquidação. O settlement-worker materializa o histórico a partir dele.
type BetSettled struct {
	BetID      uint32 `json:"bet_id"`
	UserID     uint32 `json:"user_id"`
	EventID    uint32 `json:"event_id"`
	Won        bool   `json:"won"`
	Payout     uint64 `json:"payout"`
	NewBalance uint64 `json:"new_balance"`
	TsUnixMs   int64  `json:"ts_unix_ms"`
}
