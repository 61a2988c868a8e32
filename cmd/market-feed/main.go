package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/predictor/prediction-ledger-poc/internal/market-feed/ws"
	"github.com/predictor/prediction-ledger-poc/internal/shared/cache"
	"github.com/predictor/prediction-ledger-poc/internal/shared/config"
	"github.com/predictor/prediction-ledger-poc/internal/shared/logger"
	"github.com/predictor/prediction-ledger-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Redis: origem dos avisos de mercado
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	met := metrics.New("market_feed")

	hub := ws.NewHub(func(*http.Request) bool { return true })
	hub.OnConnect = func() { met.WSClientsConnected.Inc() }
	hub.OnDisconnect = func() { met.WSClientsConnected.Dec() }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ws.StartRedisSubscriber(ctx, log, rdb, cfg.RedisPubSubChannel, hub)

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)

	addr := ":" + cfg.HTTPPort
	log.Info("market-feed listening", zap.String("addr", addr), zap.String("channel", cfg.RedisPubSubChannel))
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		log.Fatal("feed failed", zap.Error(err))
	}
}
