package billing

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors reported by the reconciler.
type Metrics struct {
	events   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// DefaultMetrics returns the collectors registered with the global registry.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics registers the reconciler collectors with reg and panics on
// a conflicting registration.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "webhook",
			Name:      "events_total",
			Help:      "Stripe webhook events processed, by type and outcome.",
		},
		[]string{"type", "outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "portal",
			Subsystem: "webhook",
			Name:      "processing_seconds",
			Help:      "Time spent handling a Stripe webhook event.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"type"},
	)

	if err := reg.Register(events); err != nil {
		already, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			panic(err)
		}
		events = already.ExistingCollector.(*prometheus.CounterVec)
	}
	if err := reg.Register(duration); err != nil {
		already, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			panic(err)
		}
		duration = already.ExistingCollector.(*prometheus.HistogramVec)
	}
	return &Metrics{events: events, duration: duration}
}

func (m *Metrics) observe(eventType string, outcome Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType, string(outcome)).Inc()
	m.duration.WithLabelValues(eventType).Observe(elapsed.Seconds())
}
