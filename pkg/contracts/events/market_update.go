package events

// Aviso de ciclo de vida de mercado, publicado no canal Redis para o
// market-feed repassar aos clientes WebSocket.
type MarketUpdate struct {
	Type          string `json:"type"` // "event_created" | "event_resolved"
	EventID       uint32 `json:"event_id"`
	Title         string `json:"title,omitempty"`
	Category      string `json:"category,omitempty"`
	EndsAt        uint64 `json:"ends_at,omitempty"`
	CorrectAnswer *bool  `json:"correct_answer,omitempty"`
	WinnersCount  uint32 `json:"winners_count,omitempty"`
	TotalPayout   uint64 `json:"total_payout,omitempty"`
	TsUnixMs      int64  `json:"ts_unix_ms"`
}
