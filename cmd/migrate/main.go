package main

import (
	"go.uber.org/zap"

	"github.com/predictor/prediction-ledger-poc/internal/shared/config"
	"github.com/predictor/prediction-ledger-poc/internal/shared/db"
	"github.com/predictor/prediction-ledger-poc/internal/shared/logger"
)

// DDL idempotente; seguro rodar em todo deploy.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS operations (
		id         UUID PRIMARY KEY,
		op         TEXT NOT NULL,
		success    BOOLEAN NOT NULL,
		code       TEXT NOT NULL DEFAULT '',
		payload    JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS users_log (
		user_id    BIGINT PRIMARY KEY,
		username   TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS bets_log (
		bet_id     BIGINT PRIMARY KEY,
		user_id    BIGINT NOT NULL,
		event_id   BIGINT NOT NULL,
		prediction BOOLEAN NOT NULL,
		amount     BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS resolutions_log (
		event_id       BIGINT PRIMARY KEY,
		correct_answer BOOLEAN NOT NULL,
		confidence     SMALLINT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
		id             BIGSERIAL PRIMARY KEY,
		user_id        BIGINT NOT NULL,
		entry_type     TEXT NOT NULL,
		amount         BIGINT NOT NULL,
		related_bet_id BIGINT,
		description    TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_entries_user ON ledger_entries (user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS event_snapshots (
		event_id       BIGINT PRIMARY KEY,
		title          TEXT NOT NULL,
		category       TEXT NOT NULL,
		ends_at        BIGINT NOT NULL,
		is_active      BOOLEAN NOT NULL,
		is_resolved    BOOLEAN NOT NULL,
		correct_answer BOOLEAN,
		confidence     SMALLINT NOT NULL DEFAULT 0,
		total_bets     BIGINT NOT NULL DEFAULT 0,
		yes_bets       BIGINT NOT NULL DEFAULT 0,
		no_bets        BIGINT NOT NULL DEFAULT 0,
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS settlement_history (
		bet_id      BIGINT PRIMARY KEY,
		event_id    BIGINT NOT NULL,
		user_id     BIGINT NOT NULL,
		won         BOOLEAN NOT NULL,
		payout      BIGINT NOT NULL,
		new_balance BIGINT NOT NULL,
		ts_unix_ms  BIGINT NOT NULL,
		settled_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_settlement_history_event ON settlement_history (event_id)`,
}

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	for _, stmt := range statements {
		if _, err := pg.Exec(stmt); err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}
	}
	log.Info("migrations applied", zap.Int("statements", len(statements)))
}
