package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics agrupa os contadores e histogramas dos serviços do ledger.
// Registrados via promauto no registry default, expostos pelo StartMetricsServer.
type Metrics struct {
	OperationsTotal    *prometheus.CounterVec
	OperationFailures  *prometheus.CounterVec
	SettlementDuration prometheus.Histogram
	SettledBetsTotal   prometheus.Counter
	MessagesPublished  *prometheus.CounterVec
	MessagesConsumed   *prometheus.CounterVec
	WSClientsConnected prometheus.Gauge
}

func New(namespace string) *Metrics {
	return &Metrics{
		OperationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Operações processadas, por nome.",
		}, []string{"op"}),
		OperationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failures_total",
			Help:      "Operações recusadas, por nome e código.",
		}, []string{"op", "code"}),
		SettlementDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_duration_seconds",
			Help:      "Duração da varredura de liquidação.",
			Buckets:   prometheus.DefBuckets,
		}),
		SettledBetsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settled_bets_total",
			Help:      "Apostas tocadas pela liquidação.",
		}),
		MessagesPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_published_total",
			Help:      "Mensagens publicadas, por tópico.",
		}, []string{"topic"}),
		MessagesConsumed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Mensagens consumidas, por tópico e resultado.",
		}, []string{"topic", "result"}),
		WSClientsConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_clients_connected",
			Help:      "Clientes WebSocket conectados.",
		}),
	}
}
