package marble

import (
	"sync"
)

// AbortSignal communicates with an in-flight stream operation and lets it
// observe cancellation requested elsewhere, mirroring the DOM
// AbortController/AbortSignal pair
// (https://dom.spec.whatwg.org/#interface-abortsignal) with virtual-tick
// scheduling substituted for wall-clock timers.
//
// AbortSignal is safe for concurrent use; all state is guarded by an
// internal mutex.
type AbortSignal struct {
	handlers []func(reason any)
	reason   any
	mu       sync.RWMutex
	aborted  bool
}

// newAbortSignal creates a signal in its unaborted state. Signals are
// created via AbortController, never directly.
func newAbortSignal() *AbortSignal {
	return &AbortSignal{}
}

// Aborted reports whether the signal has fired.
func (s *AbortSignal) Aborted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aborted
}

// Reason returns the abort reason, or nil if the signal has not aborted.
func (s *AbortSignal) Reason() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reason
}

// OnAbort registers handler to run when the signal aborts. If the signal
// has already aborted, handler runs immediately, before OnAbort returns,
// with the existing reason. Handlers run in registration order.
func (s *AbortSignal) OnAbort(handler func(reason any)) {
	if handler == nil {
		return
	}
	s.mu.Lock()
	if s.aborted {
		reason := s.reason
		s.mu.Unlock()
		handler(reason)
		return
	}
	s.handlers = append(s.handlers, handler)
	s.mu.Unlock()
}

// ThrowIfAborted returns an *AbortError if the signal has aborted, else nil.
func (s *AbortSignal) ThrowIfAborted() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.aborted {
		return &AbortError{Reason: s.reason}
	}
	return nil
}

// abort transitions the signal to aborted and fires every registered
// handler, outside the lock, in registration order. A second call is a
// no-op: the DOM spec's signal is fire-once.
func (s *AbortSignal) abort(reason any) {
	s.mu.Lock()
	if s.aborted {
		s.mu.Unlock()
		return
	}
	s.aborted = true
	s.reason = reason
	handlers := make([]func(reason any), len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.Unlock()

	for _, handler := range handlers {
		handler(reason)
	}
}

// AbortController owns an AbortSignal and is the only thing that can fire
// it (https://dom.spec.whatwg.org/#interface-abortcontroller).
type AbortController struct {
	signal *AbortSignal
}

// NewAbortController returns a controller wrapping a fresh, unaborted signal.
func NewAbortController() *AbortController {
	return &AbortController{signal: newAbortSignal()}
}

// Signal returns the controller's signal. Always the same instance.
func (c *AbortController) Signal() *AbortSignal {
	return c.signal
}

// Abort fires the controller's signal with reason. A nil reason is
// replaced with a generic *AbortError. Subsequent calls are no-ops.
func (c *AbortController) Abort(reason any) {
	if reason == nil {
		reason = &AbortError{Reason: "aborted"}
	}
	c.signal.abort(reason)
}

// AbortError is the reason a stream operation observes when its governing
// AbortSignal fires without an explicit caller-supplied reason, and the
// sentinel [ThrowIfAborted] returns once aborted.
type AbortError struct {
	Reason any
}

// Error implements the error interface.
func (e *AbortError) Error() string {
	switch r := e.Reason.(type) {
	case nil:
		return "marble: aborted"
	case string:
		return "marble: aborted: " + r
	case error:
		return "marble: aborted: " + r.Error()
	default:
		return "marble: aborted"
	}
}

// Is implements errors.Is support: any *AbortError matches any other.
func (e *AbortError) Is(target error) bool {
	_, ok := target.(*AbortError)
	return ok
}

// Unwrap exposes Reason as the cause when it is itself an error.
func (e *AbortError) Unwrap() error {
	if err, ok := e.Reason.(error); ok {
		return err
	}
	return nil
}

// AbortTimeout returns a controller whose signal fires automatically once
// sched reaches delay ticks past its current tick, the series-string
// harness's analogue of AbortSignal.timeout() — realized against the
// virtual clock rather than a wall-clock timer. The controller can still be
// aborted early by the caller.
func AbortTimeout(sched *Scheduler, delay Tick) (*AbortController, error) {
	controller := NewAbortController()
	due := sched.CurrentTick() + delay
	if err := sched.ScheduleAt(due, func() {
		controller.Abort(&AbortError{Reason: "timed out"})
	}); err != nil {
		return nil, err
	}
	return controller, nil
}

// AbortAny returns a composite signal that aborts the instant any signal in
// signals aborts, carrying that signal's reason
// (https://dom.spec.whatwg.org/#dom-abortsignal-any). An empty or all-nil
// slice yields a signal that never aborts on its own.
func AbortAny(signals []*AbortSignal) *AbortSignal {
	composite := newAbortSignal()
	if len(signals) == 0 {
		return composite
	}

	for _, sig := range signals {
		if sig != nil && sig.Aborted() {
			composite.abort(sig.Reason())
			return composite
		}
	}

	var once sync.Once
	for _, sig := range signals {
		if sig == nil {
			continue
		}
		s := sig
		s.OnAbort(func(reason any) {
			once.Do(func() {
				composite.abort(reason)
			})
		})
	}
	return composite
}
