package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/predictor/prediction-ledger-poc/internal/shared/config"
	"github.com/predictor/prediction-ledger-poc/internal/shared/logger"
)

var (
	// Métricas Prometheus para acompanhar o ciclo de resolução
	eventsChecked = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "oracle_events_checked_total",
		Help: "Eventos inspecionados no polling",
	})
	eventsResolved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "oracle_events_resolved_total",
		Help: "Eventos resolvidos pelo oráculo",
	})
	resolveFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "oracle_resolve_failures_total",
		Help: "Resoluções recusadas ou com erro de transporte",
	})
)

type eventView struct {
	EventID  uint32 `json:"eventId"`
	EndsAt   uint64 `json:"endsAt"`
	IsActive bool   `json:"isActive"`
}

type eventsResp struct {
	Events  []eventView `json:"events"`
	Success bool        `json:"success"`
}

type resolveReq struct {
	CorrectAnswer bool  `json:"correctAnswer"`
	Confidence    uint8 `json:"confidence"`
}

type resolveResp struct {
	WinnersCount uint32 `json:"winnersCount"`
	TotalPayout  uint64 `json:"totalPayout"`
	Success      bool   `json:"success"`
	Code         string `json:"code,omitempty"`
}

// oracle consulta o ledger e resolve eventos cujo prazo expirou,
// sorteando o resultado como faria um feed externo mockado.
type oracle struct {
	log     *zap.Logger
	http    *http.Client
	baseURL string
	caller  string
}

func (o *oracle) sweep() {
	resp, err := o.http.Get(o.baseURL + "/events?start=0&count=100")
	if err != nil {
		o.log.Warn("events poll failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	var list eventsResp
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		o.log.Warn("events decode failed", zap.Error(err))
		return
	}

	now := uint64(time.Now().Unix())
	for _, ev := range list.Events {
		eventsChecked.Inc()
		if !ev.IsActive || ev.EndsAt > now {
			continue
		}
		o.resolve(ev.EventID)
	}
}

func (o *oracle) resolve(eventID uint32) {
	payload := resolveReq{
		CorrectAnswer: rand.Intn(2) == 1,
		Confidence:    uint8(60 + rand.Intn(41)), // 60..100
	}
	body, _ := json.Marshal(payload)

	url := fmt.Sprintf("%s/events/%d/resolve", o.baseURL, eventID)
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Caller-Id", o.caller)

	resp, err := o.http.Do(req)
	if err != nil {
		resolveFailures.Inc()
		o.log.Warn("resolve request failed", zap.Uint32("event_id", eventID), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	var out resolveResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		resolveFailures.Inc()
		o.log.Warn("resolve decode failed", zap.Uint32("event_id", eventID), zap.Error(err))
		return
	}
	if !out.Success {
		// ALREADY_RESOLVED entre um poll e outro é corrida esperada
		resolveFailures.Inc()
		o.log.Warn("resolve rejected",
			zap.Uint32("event_id", eventID),
			zap.String("code", out.Code),
		)
		return
	}

	eventsResolved.Inc()
	o.log.Info("event resolved",
		zap.Uint32("event_id", eventID),
		zap.Bool("answer", payload.CorrectAnswer),
		zap.Uint8("confidence", payload.Confidence),
		zap.Uint32("winners", out.WinnersCount),
		zap.Uint64("payout", out.TotalPayout),
	)
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	rand.Seed(time.Now().UnixNano())

	prometheus.MustRegister(eventsChecked, eventsResolved, resolveFailures)

	o := &oracle{
		log:     log,
		http:    &http.Client{Timeout: 5 * time.Second},
		baseURL: cfg.LedgerServiceURL,
		caller:  cfg.OracleCallerID,
	}

	// ==== MUX DE MÉTRICAS (/healthz, /metrics)
	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	metricsMux.Handle("/metrics", promhttp.Handler())

	go func() {
		metricsAddr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("oracle simulator (metrics) running", zap.String("addr", metricsAddr))
		if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil {
			log.Fatal("metrics server error", zap.Error(err))
		}
	}()

	log.Info("oracle simulator polling",
		zap.String("ledger", cfg.LedgerServiceURL),
		zap.String("caller", cfg.OracleCallerID),
	)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		o.sweep()
	}
}
