package marble

import "github.com/prometheus/client_golang/prometheus"

// schedulerMetrics are the Prometheus collectors exposed by a Scheduler
// constructed with WithMetrics. Counts are intentionally coarse (totals,
// not per-series): the harness is a test tool, not a production service, so
// the metrics exist for CI dashboards tracking suite-wide scheduler volume
// (ticks, actions, microtasks) rather than fine-grained profiling.
// Deadlocks and timeouts are not counted.
type schedulerMetrics struct {
	ticksAdvanced       prometheus.Counter
	actionsScheduled    prometheus.Counter
	actionsRun          prometheus.Counter
	microtasksScheduled prometheus.Counter
	microtasksRun       prometheus.Counter
}

// newSchedulerMetrics constructs and registers the collector set against
// reg. Called only when WithMetrics supplies a non-nil registerer;
// unregistered schedulers carry a nil *schedulerMetrics and every call site
// guards on that, so metrics collection costs nothing when unused.
func newSchedulerMetrics(reg prometheus.Registerer) *schedulerMetrics {
	m := &schedulerMetrics{
		ticksAdvanced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marble_scheduler_ticks_advanced_total",
			Help: "Total number of virtual ticks the scheduler has advanced through.",
		}),
		actionsScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marble_scheduler_actions_scheduled_total",
			Help: "Total number of tick-scheduled actions queued.",
		}),
		actionsRun: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marble_scheduler_actions_run_total",
			Help: "Total number of tick-scheduled actions executed.",
		}),
		microtasksScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marble_scheduler_microtasks_scheduled_total",
			Help: "Total number of microtasks queued.",
		}),
		microtasksRun: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marble_scheduler_microtasks_run_total",
			Help: "Total number of microtasks executed.",
		}),
	}
	reg.MustRegister(
		m.ticksAdvanced,
		m.actionsScheduled,
		m.actionsRun,
		m.microtasksScheduled,
		m.microtasksRun,
	)
	return m
}
