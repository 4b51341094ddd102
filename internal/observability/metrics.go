package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for lookups.
type Metrics struct {
	// PFDS fetch metrics.
	FetchRequests *prometheus.CounterVec // labels: outcome={success,network_error,http_error,malformed,error}
	FetchDuration prometheus.Histogram

	// Lookup metrics.
	LookupsServed prometheus.Counter
	LookupErrors  *prometheus.CounterVec // labels: kind={input_range,unknown_label,network,http_status,malformed,table_shape,other}

	// Publishing metrics.
	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter
	PublishEnabled  prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.LookupsServed,
		m.LookupErrors,
		m.EventsPublished,
		m.PublishErrors,
		m.PublishEnabled,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "freeboard",
			Name:      "pfds_requests_total",
			Help:      "PFDS requests by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "freeboard",
			Name:      "pfds_request_duration_seconds",
			Help:      "PFDS request duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}),
		LookupsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "freeboard",
			Name:      "lookups_total",
			Help:      "Design storm events successfully resolved.",
		}),
		LookupErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "freeboard",
			Name:      "lookup_errors_total",
			Help:      "Failed lookups by error kind.",
		}, []string{"kind"}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "freeboard",
			Name:      "events_published_total",
			Help:      "Design storm events written to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "freeboard",
			Name:      "publish_errors_total",
			Help:      "Failed Kafka writes.",
		}),
		PublishEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "freeboard",
			Name:      "publish_enabled",
			Help:      "1 when Kafka publishing is enabled, 0 otherwise.",
		}),
	}
}
