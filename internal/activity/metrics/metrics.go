package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the activity subsystem.
type Metrics struct {
	EventsIngested prometheus.Counter
	EventsRejected prometheus.Counter
	EventsEvicted  prometheus.Counter
	StoreSize      prometheus.Gauge
	AlertsEmitted  *prometheus.CounterVec
	IngestDuration prometheus.Histogram
	QueryDuration  *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		EventsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "floorwatch_events_ingested_total",
			Help: "Total number of activity events appended to the log",
		}),
		EventsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "floorwatch_events_rejected_total",
			Help: "Total number of malformed ingest payloads rejected",
		}),
		EventsEvicted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "floorwatch_events_evicted_total",
			Help: "Total number of events evicted by capacity or retention",
		}),
		StoreSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "floorwatch_event_log_size",
			Help: "Current number of events retained in the log",
		}),
		AlertsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "floorwatch_alerts_emitted_total",
			Help: "Total number of alerts produced by the evaluator",
		}, []string{"type"}),
		IngestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "floorwatch_ingest_duration_ms",
			Help:    "Latency of the ingest path in milliseconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		QueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "floorwatch_query_duration_ms",
			Help:    "Latency of analytics queries in milliseconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50},
		}, []string{"query"}),
	}
}

// ObserveIngest records one ingest-path latency sample.
func (m *Metrics) ObserveIngest(d time.Duration) {
	m.IngestDuration.Observe(float64(d.Microseconds()) / 1000.0)
}

// ObserveQuery records one query latency sample for the named query.
func (m *Metrics) ObserveQuery(query string, d time.Duration) {
	m.QueryDuration.WithLabelValues(query).Observe(float64(d.Microseconds()) / 1000.0)
}
