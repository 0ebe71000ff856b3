package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DashboardMetrics holds all Prometheus metrics for the dashboard service.
type DashboardMetrics struct {
	IngestionsTotal        *prometheus.CounterVec
	DatasetRecords         prometheus.Gauge
	BackendRequestsTotal   *prometheus.CounterVec
	BackendRequestDuration *prometheus.HistogramVec
	ReportCacheHits        prometheus.Counter
	ReportCacheMisses      prometheus.Counter
	APIKeyCacheHits        prometheus.Counter
	APIKeyCacheMisses      prometheus.Counter
	SSEClients             prometheus.Gauge
}

// NewDashboardMetrics initializes the metrics and registers them with reg.
// A nil reg registers with the default Prometheus registry.
func NewDashboardMetrics(reg prometheus.Registerer) *DashboardMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &DashboardMetrics{
		IngestionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "log_lens",
			Subsystem: "pipeline",
			Name:      "ingestions_total",
			Help:      "Total number of datasets ingested by origin.",
		}, []string{"origin"}), // origin: analysis, report, snapshot
		DatasetRecords: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "log_lens",
			Subsystem: "pipeline",
			Name:      "dataset_records",
			Help:      "Number of log records in the current dataset.",
		}),
		BackendRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "log_lens",
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Total number of backend requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}), // outcome: ok, timeout, unavailable, error
		BackendRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "log_lens",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Latency of backend requests.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15, 30, 60, 120},
		}, []string{"endpoint"}),
		ReportCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "log_lens",
			Subsystem: "cache",
			Name:      "report_hits_total",
			Help:      "Total number of report cache hits.",
		}),
		ReportCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "log_lens",
			Subsystem: "cache",
			Name:      "report_misses_total",
			Help:      "Total number of report cache misses.",
		}),
		APIKeyCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "log_lens",
			Subsystem: "auth",
			Name:      "api_key_cache_hits_total",
			Help:      "Total number of API key cache hits.",
		}),
		APIKeyCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "log_lens",
			Subsystem: "auth",
			Name:      "api_key_cache_misses_total",
			Help:      "Total number of API key cache misses.",
		}),
		SSEClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "log_lens",
			Subsystem: "events",
			Name:      "sse_clients",
			Help:      "Number of connected server-sent-event clients.",
		}),
	}
}
