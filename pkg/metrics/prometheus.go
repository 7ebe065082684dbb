package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	domrepo "BarPull/internal/domain/repository"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetched     *prometheus.CounterVec
	dropped     *prometheus.CounterVec
	stored      *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

var _ domrepo.Metrics = (*Recorder)(nil)

// New registers the ingestion collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetched: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barpull_rows_fetched_total",
				Help: "Rows returned by provider adapters",
			},
			[]string{"provider"},
		),
		dropped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barpull_rows_dropped_total",
				Help: "Rows rejected by schema validation",
			},
			[]string{"provider"},
		),
		stored: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barpull_bars_stored_total",
				Help: "Bars written to a sink",
			},
			[]string{"sink", "provider"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barpull_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "barpull_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordFetched(provider string, rows int) {
	r.fetched.WithLabelValues(provider).Add(float64(rows))
}

func (r *Recorder) RecordDropped(provider string, rows int) {
	r.dropped.WithLabelValues(provider).Add(float64(rows))
}

func (r *Recorder) RecordStored(sink, provider string, rows int) {
	r.stored.WithLabelValues(sink, provider).Add(float64(rows))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
