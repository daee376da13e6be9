package model

import (
	"log/slog"

	"github.com/vango-dev/vmodel/pkg/diff"
	"github.com/vango-dev/vmodel/pkg/task"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Options tune a single mutation.
type Options struct {
	// Silent suppresses the beforechange and change notifications for this
	// mutation. See SilentPolicy for its effect on the batched update.
	Silent bool
}

func mergeOptions(opts []Options) Options {
	var o Options
	for _, opt := range opts {
		o.Silent = o.Silent || opt.Silent
	}
	return o
}

// SilentPolicy decides whether silent writes show up in the batched
// update notification.
type SilentPolicy int

const (
	// SilentContributes folds silent writes into the batch diff (default).
	SilentContributes SilentPolicy = iota

	// SilentExcluded leaves silent writes out of the batch diff.
	SilentExcluded
)

// config holds the resolved construction options of a Model.
type config struct {
	scheduler task.Scheduler
	equal     diff.EqualFunc
	logger    *slog.Logger
	metrics   *Metrics
	tracer    trace.Tracer
	silent    SilentPolicy
}

// Option configures a Model.
type Option func(*config)

// WithScheduler sets where the batched update notification is deferred
// to. Without it nothing is scheduled and the batch is only delivered by
// Flush.
func WithScheduler(s task.Scheduler) Option {
	return func(c *config) {
		c.scheduler = s
	}
}

// WithEqual sets the equality used to detect no-op writes.
// Default: diff.DefaultEqual.
func WithEqual(eq diff.EqualFunc) Option {
	return func(c *config) {
		c.equal = eq
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithMetrics records commits, cancellations, re-evaluations and flushes
// into m.
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithTracer sets the tracer for flush and update spans.
// Default: otel.Tracer("vmodel") from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *config) {
		c.tracer = t
	}
}

// WithSilentPolicy sets whether silent writes contribute to the batch.
func WithSilentPolicy(p SilentPolicy) Option {
	return func(c *config) {
		c.silent = p
	}
}

func defaultConfig() config {
	return config{
		equal:  diff.DefaultEqual,
		logger: slog.Default(),
		tracer: otel.Tracer(defaultTracerName),
		silent: SilentContributes,
	}
}

func resolveConfig(opts []Option) config {
	c := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	if c.equal == nil {
		c.equal = diff.DefaultEqual
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(defaultTracerName)
	}
	return c
}
