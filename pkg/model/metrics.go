package model

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/vmodel/pkg/diff"
)

// MetricsConfig configures the Prometheus metrics of a model.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "vmodel").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for keys per flushed batch.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures NewMetrics.
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

// WithBuckets sets the batch size histogram buckets.
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
		Namespace: "vmodel",
		Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors shared by any number of models.
// A nil *Metrics records nothing.
type Metrics struct {
	commits       *prometheus.CounterVec
	cancelled     prometheus.Counter
	reevaluations *prometheus.CounterVec
	flushes       prometheus.Counter
	batchKeys     prometheus.Histogram
}

// NewMetrics registers the model collectors:
//   - vmodel_commits_total: committed writes by property kind and change type
//   - vmodel_cancelled_total: writes cancelled by a beforechange handler
//   - vmodel_reevaluations_total: computed property re-evaluations by property
//   - vmodel_flushes_total: batched update notifications fired
//   - vmodel_batch_keys: top-level keys per flushed batch
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		commits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commits_total",
			Help:        "Total number of committed property writes",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "change"}),

		cancelled: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cancelled_total",
			Help:        "Total number of writes cancelled before commit",
			ConstLabels: config.ConstLabels,
		}),

		reevaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reevaluations_total",
			Help:        "Total number of computed property re-evaluations",
			ConstLabels: config.ConstLabels,
		}, []string{"property"}),

		flushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of batched update notifications",
			ConstLabels: config.ConstLabels,
		}),

		batchKeys: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batch_keys",
			Help:        "Top-level keys changed per flushed batch",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}

func (m *Metrics) recordCommit(kind propertyKind, ct diff.ChangeType) {
	if m == nil {
		return
	}
	m.commits.WithLabelValues(kind.String(), ct.String()).Inc()
}

func (m *Metrics) recordCancel() {
	if m == nil {
		return
	}
	m.cancelled.Inc()
}

func (m *Metrics) recordReevaluation(name string) {
	if m == nil {
		return
	}
	m.reevaluations.WithLabelValues(name).Inc()
}

func (m *Metrics) recordFlush(keys int) {
	if m == nil {
		return
	}
	m.flushes.Inc()
	m.batchKeys.Observe(float64(keys))
}
