package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/predictor/prediction-ledger-poc/internal/ledger"
	lcache "github.com/predictor/prediction-ledger-poc/internal/ledger-service/cache"
	lhttp "github.com/predictor/prediction-ledger-poc/internal/ledger-service/http"
	"github.com/predictor/prediction-ledger-poc/internal/ledger-service/producer"
	"github.com/predictor/prediction-ledger-poc/internal/ledger-service/pubsub"
	"github.com/predictor/prediction-ledger-poc/internal/ledger-service/repo"
	"github.com/predictor/prediction-ledger-poc/internal/shared/cache"
	"github.com/predictor/prediction-ledger-poc/internal/shared/config"
	"github.com/predictor/prediction-ledger-poc/internal/shared/db"
	"github.com/predictor/prediction-ledger-poc/internal/shared/kafka"
	"github.com/predictor/prediction-ledger-poc/internal/shared/logger"
	"github.com/predictor/prediction-ledger-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Redis
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writers
	betPlacedW := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	defer betPlacedW.Close()
	eventResolvedW := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicEventResolved)
	defer eventResolvedW.Close()
	betSettledW := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer betSettledW.Close()

	// deps
	eng := ledger.NewEngine()
	repository := repo.NewPostgres(pg)
	evCache := lcache.NewEventCache(rdb, 30*time.Second)
	publ := producer.NewKafkaPublisher(betPlacedW, eventResolvedW, betSettledW)
	bcast := pubsub.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel)
	met := metrics.New("ledger")

	// bootstrap opcional: semeia o admin no deploy em vez de esperar o
	// POST /initialize manual
	if caller := os.Getenv("LEDGER_BOOTSTRAP_CALLER"); caller != "" {
		if _, err := eng.Initialize(ledger.InitializeInput{
			Caller: ledger.IdentityFromString(caller),
			Now:    uint64(time.Now().Unix()),
		}); err != nil {
			log.Fatal("bootstrap initialize", zap.Error(err))
		}
		log.Info("ledger initialized", zap.String("caller", caller))
	}

	// HTTP público
	api := lhttp.NewServer(log, eng, repository, evCache, publ, bcast, met)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

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

	log.Info("ledger-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
