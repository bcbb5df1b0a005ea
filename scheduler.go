package marble

import (
	"container/heap"
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Package defaults per SPEC_FULL.md §6.
const (
	defaultTickTime           = 100 * time.Millisecond
	defaultMaxTicks           = Tick(1000)
	defaultMaxDrainIterations = 1000
)

// ErrSchedulerReentrant is returned when RunAll is invoked from within a
// callback that RunAll is itself currently executing, on the same goroutine.
var ErrSchedulerReentrant = errors.New("marble: cannot call RunAll reentrantly")

// ErrSchedulerTerminated is returned when an operation is attempted against
// a Scheduler whose RunAll has returned an error (maxTicks, drain budget,
// deadlock or ctx cancellation). A RunAll that succeeds leaves the
// Scheduler idle and reusable.
var ErrSchedulerTerminated = errors.New("marble: scheduler has terminated")

// scheduledAction is one entry in the tick-ordered action heap: a callback
// due to run once the scheduler reaches Tick, ordered secondarily by the
// sequence it was scheduled in (stable FIFO within a tick).
type scheduledAction struct {
	tick Tick
	seq  uint64
	fn   func()
}

// actionHeap is a container/heap.Interface min-heap over scheduledAction,
// ordered by (tick, seq) — the same timer-heap shape used to order
// wall-clock timers, generalized from time.Time to a virtual Tick.
type actionHeap []scheduledAction

func (h actionHeap) Len() int { return len(h) }
func (h actionHeap) Less(i, j int) bool {
	if h[i].tick != h[j].tick {
		return h[i].tick < h[j].tick
	}
	return h[i].seq < h[j].seq
}
func (h actionHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *actionHeap) Push(x any)   { *h = append(*h, x.(scheduledAction)) }
func (h *actionHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Scheduler is a deterministic, cooperative virtual clock. It stands in for
// wall-clock timers: instead of sleeping, RunAll advances tick-by-tick,
// running every action due at the current tick and draining the microtask
// queue to quiescence before moving to the next tick. It never consults
// real time.
//
// A Scheduler is not safe for concurrent use by multiple goroutines; it is
// built to be driven from a single goroutine at a time (see RunAll), the
// same way a JavaScript event loop is single-threaded.
type Scheduler struct {
	opts *schedulerOptions

	mu      sync.Mutex
	actions actionHeap
	micro   []func()
	seq     uint64
	current Tick

	state    atomicState
	runnerID atomic.Uint64
	busy     atomic.Int64

	metrics *schedulerMetrics
}

// NewScheduler constructs a Scheduler with the given options applied over
// the package defaults (see resolveSchedulerOptions).
func NewScheduler(opts ...Option) *Scheduler {
	cfg := resolveSchedulerOptions(opts)
	cfg.logger = cfg.logger.With(zap.String("scheduler_id", newCorrelationID()))
	s := &Scheduler{opts: cfg}
	if cfg.registerer != nil {
		s.metrics = newSchedulerMetrics(cfg.registerer)
	}
	return s
}

// CurrentTick returns the tick the scheduler is presently executing, or the
// tick it stopped at once RunAll has returned.
func (s *Scheduler) CurrentTick() Tick {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// ScheduleAt queues fn to run once the scheduler reaches tick. tick must not
// be before the scheduler's current tick. Safe to call from any goroutine,
// including from within a callback already running on the scheduler.
func (s *Scheduler) ScheduleAt(tick Tick, fn func()) error {
	if fn == nil {
		return &UsageError{Message: "ScheduleAt: fn must not be nil"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Load() == StateTerminated {
		return ErrSchedulerTerminated
	}
	if tick < s.current {
		return &UsageError{Message: "ScheduleAt: tick is before the scheduler's current tick"}
	}
	s.seq++
	heap.Push(&s.actions, scheduledAction{tick: tick, seq: s.seq, fn: fn})
	if s.metrics != nil {
		s.metrics.actionsScheduled.Inc()
	}
	return nil
}

// QueueMicrotask enqueues fn to run before the scheduler advances past the
// current tick, after any synchronous work triggering it has returned. This
// is the harness's translation of the JavaScript microtask queue: Go has no
// native equivalent, so it is realized as an explicit mutex-guarded FIFO
// drained between action batches.
func (s *Scheduler) QueueMicrotask(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.micro = append(s.micro, fn)
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.microtasksScheduled.Inc()
	}
}

// isRunnerThread reports whether the calling goroutine is the one currently
// inside RunAll, following the usual isLoopThread/getGoroutineID pattern
// for detecting reentrancy into a single-owner loop.
func (s *Scheduler) isRunnerThread() bool {
	id := s.runnerID.Load()
	if id == 0 {
		return false
	}
	return getGoroutineID() == id
}

// getGoroutineID extracts the calling goroutine's numeric ID from its stack
// trace header ("goroutine NNN [running]:"). It is a diagnostic-only
// mechanism used solely to detect reentrant RunAll/Run calls.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}

// drainMicrotasks pops and runs every microtask currently queued, plus any
// microtasks those microtasks themselves enqueue, until the queue is empty
// or maxDrainIterations is exceeded (a deadlock diagnostic: a microtask that
// perpetually re-queues itself would otherwise hang RunAll forever).
func (s *Scheduler) drainMicrotasks() error {
	iterations := 0
	for {
		s.mu.Lock()
		if len(s.micro) == 0 {
			s.mu.Unlock()
			return nil
		}
		fn := s.micro[0]
		s.micro = s.micro[1:]
		s.mu.Unlock()

		fn()
		iterations++
		if s.metrics != nil {
			s.metrics.microtasksRun.Inc()
		}
		if iterations > s.opts.maxDrainIterations {
			s.mu.Lock()
			pending := len(s.micro)
			s.mu.Unlock()
			s.opts.logger.Warn("marble: microtask drain budget exhausted",
				zap.Uint64("tick", uint64(s.CurrentTick())),
				zap.Int("pending", pending))
			return &TimeoutError{
				Tick:    s.CurrentTick(),
				Pending: pending,
				Message: "microtask drain exceeded maxDrainIterations; likely a microtask re-queueing itself forever",
			}
		}
	}
}

// enterBusy marks one consumer-side goroutine (a Readable.Read or
// Writable.Write call) as blocked waiting on a frame a scheduled action
// will eventually deliver. leaveBusy marks it unblocked. A nonzero busy
// count is the harness's only visible proxy for "a consumer has caught up
// and is parked waiting for the next tick", since Go gives no way to
// inspect a goroutine's blocking state directly.
func (s *Scheduler) enterBusy() { s.busy.Add(1) }
func (s *Scheduler) leaveBusy() { s.busy.Add(-1) }

// settleStableReads is how many consecutive unchanged busy readings
// settleConsumers waits for before concluding that every live consumer has
// either finished or parked itself waiting on the next tick. Plain
// runtime.Gosched() yields give no hard guarantee a parked goroutine has
// actually run by the time control returns, so this is a heuristic rather
// than a proof of quiescence — a handful of consecutive stable readings is
// the same margin Go test suites commonly use around runtime.Gosched()-based
// goroutine synchronization.
const settleStableReads = 20

// settleConsumers drains the microtask queue, then yields to the Go
// scheduler (runtime.Gosched(), the same yield used while waiting on
// concurrent submitters elsewhere) until the busy count holds
// steady across settleStableReads consecutive checks or maxDrainIterations
// is exhausted. Called between tick advances so that a consumer goroutine
// which just woke from one frame gets a fair chance to either return or
// park itself waiting for the next, before RunAll delivers it. busy
// settling at a nonzero value here is normal — it means every live
// consumer is parked waiting on a still-pending frame — so the busy count
// never makes settleConsumers error; it is a best-effort scheduling
// courtesy, not a correctness gate. Its only error is the *TimeoutError
// drainMicrotasks returns when the microtask budget is exhausted.
func (s *Scheduler) settleConsumers() error {
	lastBusy := int64(-1)
	stable := 0
	for i := 0; i < s.opts.maxDrainIterations; i++ {
		if err := s.drainMicrotasks(); err != nil {
			return err
		}
		b := s.busy.Load()
		if b == lastBusy {
			stable++
			if stable >= settleStableReads {
				return nil
			}
		} else {
			stable = 0
			lastBusy = b
		}
		runtime.Gosched()
	}
	return nil
}

// awaitSettled is settleConsumers' counterpart called once RunAll has
// exhausted every scheduled action: nothing remains that could ever wake a
// goroutine still parked in enterBusy, so a nonzero busy count here is a
// genuine deadlock rather than a goroutine mid-catch-up. It drains the
// microtask queue and spins, bounded by maxDrainIterations, until busy
// reaches zero; exceeding the bound without reaching it is reported as a
// *TimeoutError.
func (s *Scheduler) awaitSettled() error {
	iterations := 0
	for {
		if err := s.drainMicrotasks(); err != nil {
			return err
		}
		if s.busy.Load() == 0 {
			return nil
		}
		runtime.Gosched()
		iterations++
		if iterations > s.opts.maxDrainIterations {
			s.opts.logger.Warn("marble: consumer settle budget exhausted",
				zap.Uint64("tick", uint64(s.CurrentTick())),
				zap.Int64("busy", s.busy.Load()))
			return &TimeoutError{
				Tick:    s.CurrentTick(),
				Pending: int(s.busy.Load()),
				Message: "consumers did not settle before the drain budget was exhausted; likely a deadlocked Read/Write",
			}
		}
	}
}

// nextActionTick reports the tick of the earliest still-pending action, and
// whether any action remains.
func (s *Scheduler) nextActionTick() (Tick, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.actions) == 0 {
		return 0, false
	}
	return s.actions[0].tick, true
}

// popActionsDueAt removes and returns every action scheduled for exactly
// tick, in the order they were scheduled.
func (s *Scheduler) popActionsDueAt(tick Tick) []func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []func()
	for len(s.actions) > 0 && s.actions[0].tick == tick {
		a := heap.Pop(&s.actions).(scheduledAction)
		due = append(due, a.fn)
	}
	return due
}

// RunAll drives the scheduler to completion: it repeatedly lets any
// woken consumer goroutines settle (see settleConsumers), then advances to
// the next tick holding pending actions and runs them, until no actions
// remain and every consumer has either finished or is parked waiting on a
// tick that will never come (see awaitSettled). It returns a *TimeoutError
// if maxTicks or maxDrainIterations is exceeded, and a wrapped ctx.Err() if
// ctx is canceled mid-run. RunAll is not reentrant: calling it from within
// a callback it is already executing (on the same goroutine) returns
// ErrSchedulerReentrant.
func (s *Scheduler) RunAll(ctx context.Context) (err error) {
	if s.isRunnerThread() {
		return ErrSchedulerReentrant
	}
	if !s.state.TryTransition(StateIdle, StateRunning) {
		if s.state.Load() == StateTerminated {
			return ErrSchedulerTerminated
		}
		return ErrSchedulerReentrant
	}

	gid := getGoroutineID()
	s.runnerID.Store(gid)
	defer s.runnerID.Store(0)

	logger := s.opts.logger
	defer func() {
		if err != nil {
			s.state.Store(StateTerminated)
		} else {
			s.state.TryTransition(StateRunning, StateIdle)
		}
	}()

	for {
		if ctx.Err() != nil {
			return WrapError("marble: scheduler run canceled", ctx.Err())
		}

		if err := s.settleConsumers(); err != nil {
			return err
		}

		tick, ok := s.nextActionTick()
		if !ok {
			// Nothing left to deliver. Give any consumer still blocked on a
			// prior frame a bounded chance to notice and unblock; if it
			// stays blocked, nothing ever will wake it — a deadlock.
			return s.awaitSettled()
		}

		if tick > s.opts.maxTicks {
			return &TimeoutError{
				Tick:    s.CurrentTick(),
				Pending: len(s.actions),
				Message: "scheduler exceeded maxTicks",
			}
		}

		s.mu.Lock()
		s.current = tick
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.ticksAdvanced.Inc()
		}
		logger.Debug("marble: advancing tick", zap.Uint64("tick", uint64(tick)))

		for _, fn := range s.popActionsDueAt(tick) {
			fn()
			if s.metrics != nil {
				s.metrics.actionsRun.Inc()
			}
			if ctx.Err() != nil {
				return WrapError("marble: scheduler run canceled", ctx.Err())
			}
		}
	}
}

