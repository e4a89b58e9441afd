package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"MandiPulse/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	verdicts    *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		verdicts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mandipulse_verdicts_total",
				Help: "Price verdicts by reason and anomaly flag",
			},
			[]string{"reason", "anomalous"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mandipulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mandipulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation"},
		),
	}
}

// RecordVerdict counts one verdict.
func (r *Recorder) RecordVerdict(reason models.Reason, anomalous bool) {
	r.verdicts.WithLabelValues(string(reason), strconv.FormatBool(anomalous)).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordVerdict(models.Reason, bool) {}
func (Nop) RecordError(string)                {}
func (Nop) RecordLatency(string, float64)     {}
