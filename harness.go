package marble

import (
	"context"
	"errors"
	"sync"
)

// TestingT is the minimal surface the harness needs from a test reporter;
// satisfied by *testing.T and by testify's require.TestingT.
type TestingT interface {
	Helper()
	Errorf(format string, args ...any)
	FailNow()
}

// ErrReentrantTestStream is reported when TestStream is invoked again on a
// goroutine already inside an outer TestStream call.
var ErrReentrantTestStream = errors.New("marble: nested TestStream invocation on the same goroutine")

// ErrReentrantRun is reported when Helpers.Run is invoked again while a
// prior call on the same Helpers has not yet returned.
var ErrReentrantRun = errors.New("marble: nested Helpers.Run invocation")

// activeTestStreams tracks, by goroutine id, which goroutines are currently
// inside a TestStream call, generalizing an isLoopThread/getGoroutineID
// style reentrancy guard from "is this the loop's own goroutine" to "is a
// TestStream already running here".
type goroutineSet struct {
	mu sync.Mutex
	m  map[uint64]struct{}
}

func (s *goroutineSet) tryEnter(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; ok {
		return false
	}
	if s.m == nil {
		s.m = make(map[uint64]struct{})
	}
	s.m[id] = struct{}{}
	return true
}

func (s *goroutineSet) leave(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
}

var activeTestStreams = &goroutineSet{}

// Helpers is the bundle a TestStream callback receives: factories for the
// three adapter kinds plus Run, the driver that advances the scheduler
// while a test body executes.
type Helpers struct {
	t     TestingT
	sched *Scheduler

	mu      sync.Mutex
	running bool
}

// TestStream constructs a Scheduler and a Helpers bundle, then invokes fn
// synchronously so it can register streams and call Helpers.Run. Nesting
// TestStream calls on the same goroutine is a usage error, reported via
// t.Errorf/t.FailNow rather than returned, since TestStream itself has no
// return value to carry it — failing the test directly beats propagating a
// reentrancy error up the stack.
func TestStream(t TestingT, fn func(h *Helpers), opts ...Option) {
	t.Helper()
	gid := getGoroutineID()
	if !activeTestStreams.tryEnter(gid) {
		t.Errorf("%v", ErrReentrantTestStream)
		t.FailNow()
		return
	}
	defer activeTestStreams.leave(gid)

	h := &Helpers{t: t, sched: NewScheduler(opts...)}
	fn(h)
}

// Readable parses series under ModeReadable and returns a stream driven by
// the resulting FrameList. terminalReason is attached to a trailing Cancel
// or Abort frame, if the series has one.
func (h *Helpers) Readable(series string, values ValueTable, terminalReason any) *Readable {
	h.t.Helper()
	fl, err := Parse(series, values, terminalReason, ModeReadable)
	if err != nil {
		h.t.Errorf("marble: Helpers.Readable: %v", err)
		h.t.FailNow()
		return nil
	}
	return newReadable(h.sched, fl)
}

// Writable parses series under ModeWritable and returns a stream driven by
// the resulting backpressure/abort schedule. abortReason is attached to the
// series' trailing Abort frame, if present.
func (h *Helpers) Writable(series string, abortReason any) *Writable {
	h.t.Helper()
	fl, err := Parse(series, nil, abortReason, ModeWritable)
	if err != nil {
		h.t.Errorf("marble: Helpers.Writable: %v", err)
		h.t.FailNow()
		return nil
	}
	return newWritable(h.sched, fl)
}

// AbortSignal parses series under ModeAbort — which must contain exactly
// one '!' — and returns a signal that fires with reason at that frame's
// tick.
func (h *Helpers) AbortSignal(series string, reason any) *AbortSignal {
	h.t.Helper()
	fl, err := Parse(series, nil, reason, ModeAbort)
	if err != nil {
		h.t.Errorf("marble: Helpers.AbortSignal: %v", err)
		h.t.FailNow()
		return nil
	}
	term, _ := fl.HasTerminal() // Parse guarantees one exists for ModeAbort
	controller := NewAbortController()
	_ = h.sched.ScheduleAt(term.Tick, func() { controller.Abort(reason) })
	return controller.Signal()
}

// Run drives the scheduler to completion while body executes on its own
// goroutine, so body's Readable.Read / Writable.Write calls can block
// against scheduled frames without stalling the scheduler itself. Run
// returns body's error, or the scheduler's error (deadlock/timeout/context
// cancellation) if that occurs first. Nesting Run calls on the same
// Helpers is a usage error.
func (h *Helpers) Run(ctx context.Context, body func(ctx context.Context) error) error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return ErrReentrantRun
	}
	h.running = true
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.running = false
		h.mu.Unlock()
	}()

	bodyDone := make(chan error, 1)
	go func() {
		bodyDone <- body(ctx)
	}()

	runErr := h.sched.RunAll(ctx)
	if runErr != nil {
		// body may be parked on a frame that will now never arrive, so it is
		// not waited for; an error it has already returned still wins.
		select {
		case bodyErr := <-bodyDone:
			if bodyErr != nil {
				return bodyErr
			}
		default:
		}
		return runErr
	}

	select {
	case bodyErr := <-bodyDone:
		if bodyErr != nil {
			return bodyErr
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	return runErr
}

// Pipe pumps every frame read from src into dst until src reaches a
// terminal frame or ctx is done, propagating termination per the web
// streams pipeTo contract: src closing closes dst, src erroring aborts dst
// with the same reason, and dst aborting cancels src with dst's abort
// reason. It is the harness's minimal pipeTo, sufficient for gated
// backpressure-passthrough scenarios between a Readable and a Writable.
func Pipe(ctx context.Context, src *Readable, dst *Writable) error {
	for {
		ev, err := src.Read(ctx)
		if err != nil {
			var abortErr *AbortError
			if errors.As(err, &abortErr) {
				dst.Abort(abortErr.Reason)
				return nil
			}
			return err
		}
		switch ev.Frame.Kind {
		case FrameEmit:
			if err := dst.Write(ctx, ev.Frame.Value); err != nil {
				var abortErr *AbortError
				if errors.As(err, &abortErr) {
					src.Cancel(abortErr.Reason)
					return nil
				}
				return err
			}
		case FrameClose:
			return dst.Close()
		case FrameCancel, FrameAbort:
			dst.Abort(ev.Frame.Reason)
			return nil
		}
		if ev.Done {
			return nil
		}
	}
}
