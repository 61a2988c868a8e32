package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/predictor/prediction-ledger-poc/internal/settlement-worker/leaderboard"
	"github.com/predictor/prediction-ledger-poc/internal/settlement-worker/processor"
	"github.com/predictor/prediction-ledger-poc/internal/settlement-worker/repository"
	"github.com/predictor/prediction-ledger-poc/internal/shared/cache"
	"github.com/predictor/prediction-ledger-poc/internal/shared/config"
	"github.com/predictor/prediction-ledger-poc/internal/shared/db"
	"github.com/predictor/prediction-ledger-poc/internal/shared/kafka"
	"github.com/predictor/prediction-ledger-poc/internal/shared/logger"
	"github.com/predictor/prediction-ledger-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres: histórico de liquidação
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis: ranking de vencedores
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka: consome bet_settled, dead-letter em falha de persistência
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicBetSettled, "settlement-worker")
	defer reader.Close()

	dlqWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettledDLQ)
	defer dlqWriter.Close()

	met := metrics.New("settlement")

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})

	p := &processor.Processor{
		Log:    log,
		Reader: reader,
		Repo:   repository.NewPostgresRepo(pg),
		Board:  leaderboard.NewRedisLeaderboard(rdb),
		DLQ:    dlqWriter,

		OnConsumed: func() { met.MessagesConsumed.WithLabelValues(cfg.TopicBetSettled, "consumed").Inc() },
		OnPersist:  func() { met.MessagesConsumed.WithLabelValues(cfg.TopicBetSettled, "persisted").Inc() },
		OnError:    func(phase string) { met.MessagesConsumed.WithLabelValues(cfg.TopicBetSettled, "error_"+phase).Inc() },
	}

	log.Info("settlement-worker started", zap.String("consume", cfg.TopicBetSettled))
	if err := p.Run(context.Background()); err != nil {
		log.Fatal("processor stopped", zap.Error(err))
	}
}
