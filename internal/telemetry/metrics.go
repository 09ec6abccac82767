package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors shared by the registry, the
// daemon's connection lifecycle, and the vector index. A dedicated
// registry (rather than the global default) is used so multiple daemon
// instances in the same test process don't collide on collector names.
type Metrics struct {
	Registry *prometheus.Registry

	RPCCallsTotal    *prometheus.CounterVec
	RPCErrorsTotal   *prometheus.CounterVec
	RPCDuration      *prometheus.HistogramVec
	ClientsConnected prometheus.Gauge
	ClientsRejected  prometheus.Counter

	VectorSearchDuration prometheus.Histogram
	VectorIndexRebuilds  prometheus.Counter
	VectorIndexSize      prometheus.Gauge
}

// NewMetrics constructs and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		RPCCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "godagent",
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "Total number of JSON-RPC calls dispatched, by service.method.",
		}, []string{"method"}),
		RPCErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "godagent",
			Subsystem: "rpc",
			Name:      "errors_total",
			Help:      "Total number of JSON-RPC calls that returned an error, by service.method.",
		}, []string{"method"}),
		RPCDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "godagent",
			Subsystem: "rpc",
			Name:      "duration_seconds",
			Help:      "Duration of JSON-RPC call handling, by service.method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		ClientsConnected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "godagent",
			Subsystem: "daemon",
			Name:      "clients_connected",
			Help:      "Number of currently connected Unix-socket clients.",
		}),
		ClientsRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "godagent",
			Subsystem: "daemon",
			Name:      "clients_rejected_total",
			Help:      "Total number of client connections rejected due to the client cap.",
		}),
		VectorSearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "godagent",
			Subsystem: "vectorindex",
			Name:      "search_duration_seconds",
			Help:      "Duration of nearest-neighbor search operations.",
			Buckets:   prometheus.DefBuckets,
		}),
		VectorIndexRebuilds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "godagent",
			Subsystem: "vectorindex",
			Name:      "rebuilds_total",
			Help:      "Total number of dirty-triggered index rebuilds.",
		}),
		VectorIndexSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "godagent",
			Subsystem: "vectorindex",
			Name:      "vectors",
			Help:      "Current number of vectors held in the index.",
		}),
	}
}

// ObserveRPC records a single dispatched call's outcome and duration.
func (m *Metrics) ObserveRPC(method string, seconds float64, failed bool) {
	if m == nil {
		return
	}
	m.RPCCallsTotal.WithLabelValues(method).Inc()
	m.RPCDuration.WithLabelValues(method).Observe(seconds)
	if failed {
		m.RPCErrorsTotal.WithLabelValues(method).Inc()
	}
}
