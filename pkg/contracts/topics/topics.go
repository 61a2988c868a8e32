package topics

const (
	// Bets
	BetPlaced  = "bet_placed"
	BetSettled = "bet_settled"

	// Eventos de mercado
	EventResolved = "event_resolved"

	// DLQs
	BetPlacedDLQ  = "bet_placed_dlq"
	BetSettledDLQ = "bet_settled_dlq"
)
