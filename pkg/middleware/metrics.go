package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/cveboard/pkg/nav"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "cveboard").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for navigation duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "cveboard",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Navigation outcomes used as the "outcome" label.
const (
	OutcomeCommitted  = "committed"
	OutcomeNotFound   = "not_found"
	OutcomeRejected   = "rejected"
	OutcomeSuperseded = "superseded"
	OutcomeInvalid    = "invalid"
	OutcomeCancelled  = "cancelled"
	OutcomeError      = "error"
)

// Outcome maps a navigation result to a low-cardinality label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeCommitted
	case errors.Is(err, nav.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, nav.ErrNavigationRejected):
		return OutcomeRejected
	case errors.Is(err, nav.ErrSuperseded):
		return OutcomeSuperseded
	case errors.Is(err, nav.ErrInvalidTarget):
		return OutcomeInvalid
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	default:
		return OutcomeError
	}
}

// Metrics records navigation metrics. It implements nav.Middleware.
type Metrics struct {
	navigations   *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	streamClients prometheus.Gauge
}

// Prometheus creates the metrics middleware and registers its collectors.
// It panics if the collectors are already registered with the registry.
func Prometheus(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)
	return &Metrics{
		navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of navigations by route and outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "outcome"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_duration_seconds",
			Help:        "Navigation duration in seconds, including lazy view loads",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route"}),

		streamClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stream_clients",
			Help:        "Number of connected navigation stream clients",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Handle implements nav.Middleware.
func (m *Metrics) Handle(n *nav.Navigation, next func() error) error {
	start := time.Now()
	err := next()

	route := n.RouteName()
	if route == "" {
		route = "none"
	}
	m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	m.navigations.WithLabelValues(route, Outcome(err)).Inc()
	return err
}

// StreamConnected records a navigation stream client connecting.
func (m *Metrics) StreamConnected() {
	m.streamClients.Inc()
}

// StreamDisconnected records a navigation stream client leaving.
func (m *Metrics) StreamDisconnected() {
	m.streamClients.Dec()
}
