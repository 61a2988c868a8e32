package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/predictor/prediction-ledger-poc/internal/ledger"
)

// Postgres materializa a trilha de auditoria do ledger em banco. O estado
// autoritativo vive no core em memória; estas tabelas são projeção/auditoria.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// RecordOperation registra cada invocação na tabela operations, com payload
// em jsonb pra inspeção posterior.
func (p *Postgres) RecordOperation(ctx context.Context, op string, success bool, code string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal operation payload: %w", err)
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO operations(id, op, success, code, payload) VALUES($1,$2,$3,$4,$5)`,
		uuid.New().String(), op, success, code, b)
	if err != nil {
		return fmt.Errorf("insert operation: %w", err)
	}
	return nil
}

// RecordUser grava o registro do usuário e o crédito inicial no ledger
// em uma transação só.
func (p *Postgres) RecordUser(ctx context.Context, userID uint32, username string, startingBalance uint64) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO users_log(user_id, username) VALUES($1,$2) ON CONFLICT (user_id) DO NOTHING`,
		userID, username); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO ledger_entries(user_id, entry_type, amount, description) VALUES($1,'CREDIT',$2,$3)`,
		userID, startingBalance, "starting balance"); err != nil {
		return err
	}

	return tx.Commit()
}

// RecordBet grava a aposta e o débito correspondente em uma transação só.
func (p *Postgres) RecordBet(ctx context.Context, b ledger.Bet) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO bets_log(bet_id, user_id, event_id, prediction, amount) VALUES($1,$2,$3,$4,$5)
		 ON CONFLICT (bet_id) DO NOTHING`,
		b.ID, b.UserID, b.EventID, b.Prediction, b.Amount); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO ledger_entries(user_id, entry_type, amount, related_bet_id, description) VALUES($1,'DEBIT',$2,$3,$4)`,
		b.UserID, b.Amount, b.ID, fmt.Sprintf("bet on event %d", b.EventID)); err != nil {
		return err
	}

	return tx.Commit()
}

// RecordResolution grava o desfecho do mercado e um crédito por aposta
// vencedora, tudo na mesma transação.
func (p *Postgres) RecordResolution(ctx context.Context, eventID uint32, answer bool, confidence uint8, settled []ledger.SettledBet) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO resolutions_log(event_id, correct_answer, confidence) VALUES($1,$2,$3)
		 ON CONFLICT (event_id) DO NOTHING`,
		eventID, answer, confidence); err != nil {
		return err
	}
	for _, s := range settled {
		if !s.Won {
			continue
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO ledger_entries(user_id, entry_type, amount, related_bet_id, description) VALUES($1,'CREDIT',$2,$3,$4)`,
			s.UserID, s.Payout, s.BetID, fmt.Sprintf("payout event %d", eventID)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// UpsertEventSnapshot mantém a projeção consultável do evento.
func (p *Postgres) UpsertEventSnapshot(ctx context.Context, ev ledger.Event) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO event_snapshots(event_id, title, category, ends_at, is_active, is_resolved, correct_answer, confidence, total_bets, yes_bets, no_bets, updated_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11, now())
		ON CONFLICT (event_id) DO UPDATE SET
			is_active = EXCLUDED.is_active,
			is_resolved = EXCLUDED.is_resolved,
			correct_answer = EXCLUDED.correct_answer,
			confidence = EXCLUDED.confidence,
			total_bets = EXCLUDED.total_bets,
			yes_bets = EXCLUDED.yes_bets,
			no_bets = EXCLUDED.no_bets,
			updated_at = now()`,
		ev.ID,
		ledger.TextString(ev.Title[:]),
		ledger.TextString(ev.Category[:]),
		ev.EndsAt, ev.IsActive, ev.IsResolved, ev.CorrectAnswer, ev.Confidence,
		ev.TotalBets, ev.YesBets, ev.NoBets)
	if err != nil {
		return fmt.Errorf("upsert event snapshot: %w", err)
	}
	return nil
}
