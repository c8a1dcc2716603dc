// Package metrics exposes Prometheus instrumentation for quote computation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "displayquote"

// Recorder holds the quote collectors. A nil *Recorder records nothing.
type Recorder struct {
	quotes       *prometheus.CounterVec
	duration     prometheus.Histogram
	configErrors *prometheus.CounterVec
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Quote pipeline runs by display type and outcome.",
		}, []string{"display", "outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_duration_seconds",
			Help:      "Time spent running the quote pipeline.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
		configErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "configuration_errors_total",
			Help:      "Pricing runs halted by an invalid pricing policy.",
		}, []string{"display", "field"}),
	}
	if reg != nil {
		reg.MustRegister(r.quotes, r.duration, r.configErrors)
	}
	return r
}

// ObserveQuote records one pipeline run.
func (r *Recorder) ObserveQuote(display, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.quotes.WithLabelValues(display, outcome).Inc()
	r.duration.Observe(d.Seconds())
}

// ConfigurationError records a pricing run halted by configuration.
func (r *Recorder) ConfigurationError(display, field string) {
	if r == nil {
		return
	}
	r.configErrors.WithLabelValues(display, field).Inc()
}
