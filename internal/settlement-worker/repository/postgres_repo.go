package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/predictor/prediction-ledger-poc/pkg/contracts/events"
)

// PostgresRepo materializa o histórico de liquidação consumido do Kafka.
type PostgresRepo struct{ DB *sql.DB }

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{DB: db} }

// InsertSettlement grava uma aposta liquidada. Idempotente por bet_id:
// redelivery do consumidor não duplica linha.
func (r *PostgresRepo) InsertSettlement(ctx context.Context, e events.BetSettled) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO settlement_history(bet_id, event_id, user_id, won, payout, new_balance, ts_unix_ms)
		VALUES($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (bet_id) DO NOTHING`,
		e.BetID, e.EventID, e.UserID, e.Won, e.Payout, e.NewBalance, e.TsUnixMs)
	if err != nil {
		return fmt.Errorf("insert settlement: %w", err)
	}
	return nil
}
