package events

// Evento publicado no tópico "event_resolved" quando um mercado fecha.
type EventResolved struct {
	EventID       uint32 `json:"event_id"`
	CorrectAnswer bool   `json:"correct_answer"`
	Confidence    uint8  `json:"confidence"`
	WinnersCount  uint32 `json:"winners_count"`
	TotalPayout   uint64 `json:"total_payout"`
	TsUnixMs      int64  `json:"ts_unix_ms"`
}
