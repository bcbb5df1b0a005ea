package marble

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// schedulerOptions holds resolved configuration for Scheduler creation.
// Defaults are overlaid by whatever Option values NewScheduler received,
// applied in the order given (see WithFileConfig for how a loaded
// FileConfig fits into that ordering).
type schedulerOptions struct {
	tickTime           time.Duration
	maxTicks           Tick
	maxDrainIterations int
	logger             *zap.Logger
	registerer         prometheus.Registerer
}

// Option configures a Scheduler instance.
type Option interface {
	applyScheduler(*schedulerOptions)
}

// optionFunc implements Option.
type optionFunc func(*schedulerOptions)

func (f optionFunc) applyScheduler(opts *schedulerOptions) { f(opts) }

// WithTickTime sets the wall-clock duration one virtual tick represents.
// This does not affect how fast RunAll advances (the scheduler never
// sleeps for tickTime). The value is stored in the scheduler's options
// only: no code in this package converts ticks to durations with it, and
// [AbortTimeout] takes its delay in ticks.
func WithTickTime(d time.Duration) Option {
	return optionFunc(func(opts *schedulerOptions) { opts.tickTime = d })
}

// WithMaxTicks sets the upper bound on test length in ticks. Exceeding it
// raises a [TimeoutError] from RunAll.
func WithMaxTicks(n Tick) Option {
	return optionFunc(func(opts *schedulerOptions) { opts.maxTicks = n })
}

// WithMaxDrainIterations sets the scheduler's per-tick microtask-drain
// safety bound. Exceeding it without making progress raises a
// [TimeoutError] from RunAll (a deadlock diagnostic).
func WithMaxDrainIterations(n int) Option {
	return optionFunc(func(opts *schedulerOptions) { opts.maxDrainIterations = n })
}

// WithLogger attaches a structured logger. The zero value ([zap.NewNop])
// is used when no logger is supplied.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(opts *schedulerOptions) {
		if logger != nil {
			opts.logger = logger
		}
	})
}

// WithMetrics registers the scheduler's Prometheus collectors against reg.
// Metrics are a no-op (nil registerer) unless this option is supplied.
func WithMetrics(reg prometheus.Registerer) Option {
	return optionFunc(func(opts *schedulerOptions) { opts.registerer = reg })
}

// WithFileConfig overlays a *FileConfig (see config.go's LoadFileConfig)
// onto the scheduler's options. Zero fields in cfg are left untouched, so
// a partially populated FileConfig only overrides what it actually sets.
// List it ahead of any Option that should win over the file: Option values
// are applied in the order given to NewScheduler, so a WithMaxTicks after
// WithFileConfig in the same call overrides the file's MaxTicks, and vice
// versa. A nil cfg is a no-op, so callers can pass the LoadFileConfig
// result unconditionally even on the zero-path case.
func WithFileConfig(cfg *FileConfig) Option {
	return optionFunc(func(opts *schedulerOptions) {
		if cfg == nil {
			return
		}
		if cfg.TickTime > 0 {
			opts.tickTime = cfg.TickTime
		}
		if cfg.MaxTicks > 0 {
			opts.maxTicks = cfg.MaxTicks
		}
		if cfg.MaxDrainIterations > 0 {
			opts.maxDrainIterations = cfg.MaxDrainIterations
		}
	})
}

// defaultSchedulerOptions returns the documented defaults: tickTime
// realized as 100ms, maxTicks 1000, maxDrainIterations 1000.
func defaultSchedulerOptions() *schedulerOptions {
	return &schedulerOptions{
		tickTime:           defaultTickTime,
		maxTicks:           defaultMaxTicks,
		maxDrainIterations: defaultMaxDrainIterations,
		logger:             zap.NewNop(),
	}
}

// resolveSchedulerOptions applies opts, in order, over the package
// defaults. There is no implicit file/environment overlay: a caller that
// wants one passes WithFileConfig(loadedCfg) explicitly (see config.go).
func resolveSchedulerOptions(opts []Option) *schedulerOptions {
	cfg := defaultSchedulerOptions()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyScheduler(cfg)
	}
	return cfg
}
