package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	DatasetRecords  prometheus.Gauge
	LoadDuration    prometheus.Histogram
	LoadFailures    prometheus.Counter
	Recomputations  *prometheus.CounterVec
}

// NewMetrics registers the dashboard collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sales_dashboard",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sales_dashboard",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		DatasetRecords: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "sales_dashboard",
			Name:      "dataset_records",
			Help:      "Records in the currently loaded dataset.",
		}),
		LoadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sales_dashboard",
			Name:      "dataset_load_duration_seconds",
			Help:      "Time spent loading the sales file.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		LoadFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "sales_dashboard",
			Name:      "dataset_load_failures_total",
			Help:      "Failed attempts to load the sales file.",
		}),
		Recomputations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sales_dashboard",
			Name:      "recomputations_total",
			Help:      "Filtered recomputations by widget.",
		}, []string{"widget"}),
	}
}
