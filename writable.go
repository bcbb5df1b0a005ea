package marble

import (
	"context"
	"sync"
)

// pendingWrite is one write stalled behind an active backpressure gate,
// released in FIFO order (see Writable.deliver) once BackpressureOff fires.
type pendingWrite struct {
	value any
	done  chan error
}

// Writable is a write-only stream whose backpressure gate and abort are
// driven by a FrameList scheduled against a Scheduler (ModeWritable:
// BackpressureOn/Off and an optional trailing Abort). Values themselves
// come from the test body calling Write, not from the series — a writable
// series cannot contain value characters.
type Writable struct {
	sched    *Scheduler
	recorder *Recorder

	mu           sync.Mutex
	backpressure bool
	aborted      bool
	abortReason  any
	closed       bool
	queue        []*pendingWrite
}

// newWritable schedules fl's backpressure/abort frames against sched.
func newWritable(sched *Scheduler, fl FrameList) *Writable {
	w := &Writable{sched: sched, recorder: newRecorder(sched)}
	for _, f := range fl.Frames {
		frame := f
		_ = sched.ScheduleAt(frame.Tick, func() { w.deliver(frame) })
	}
	return w
}

// deliver is the scheduled action for one backpressure/abort frame.
func (w *Writable) deliver(f Frame) {
	switch f.Kind {
	case FrameBackpressureOn:
		w.mu.Lock()
		w.backpressure = true
		w.mu.Unlock()

	case FrameBackpressureOff:
		w.mu.Lock()
		w.backpressure = false
		queue := w.queue
		w.queue = nil
		w.mu.Unlock()
		// Every writer stalled behind the gate resolves at this same tick, in
		// the order it called Write — the grouped "(…)" rendering falls out of
		// this for free, since Render groups same-tick frames automatically.
		tick := w.sched.CurrentTick()
		for _, pw := range queue {
			w.recorder.observe(Frame{Tick: tick, Kind: FrameEmit, Value: pw.value})
			pw.done <- nil
		}

	case FrameAbort:
		w.mu.Lock()
		w.aborted = true
		w.abortReason = f.Reason
		queue := w.queue
		w.queue = nil
		w.mu.Unlock()
		w.recorder.observe(Frame{Tick: w.sched.CurrentTick(), Kind: FrameAbort, Reason: f.Reason})
		for _, pw := range queue {
			pw.done <- &AbortError{Reason: f.Reason}
		}
	}
}

// Write records v as an Emit observation at the current tick and returns
// nil immediately if the gate is open. While the gate is closed
// (BackpressureOn in effect), Write blocks until BackpressureOff releases
// it, the stream aborts, or ctx is done.
func (w *Writable) Write(ctx context.Context, v any) error {
	w.mu.Lock()
	if w.aborted {
		reason := w.abortReason
		w.mu.Unlock()
		return &AbortError{Reason: reason}
	}
	if w.closed {
		w.mu.Unlock()
		return &UsageError{Message: "write called after the writable was closed"}
	}
	if !w.backpressure {
		w.mu.Unlock()
		w.recorder.observe(Frame{Tick: w.sched.CurrentTick(), Kind: FrameEmit, Value: v})
		return nil
	}
	pw := &pendingWrite{value: v, done: make(chan error, 1)}
	w.queue = append(w.queue, pw)
	w.mu.Unlock()

	w.sched.enterBusy()
	defer w.sched.leaveBusy()
	select {
	case err := <-pw.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close records a Close observation at the current tick. Writing after
// Close is a usage error; closing twice is a no-op, and closing an
// already-aborted stream returns an *AbortError carrying the abort reason.
func (w *Writable) Close() error {
	w.mu.Lock()
	if w.aborted {
		reason := w.abortReason
		w.mu.Unlock()
		return &AbortError{Reason: reason}
	}
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	w.recorder.observe(Frame{Tick: w.sched.CurrentTick(), Kind: FrameClose})
	return nil
}

// Abort terminates the stream immediately with reason, rejecting every
// writer currently stalled behind the backpressure gate. Used by callers
// that need to abort a destination from outside its own series (e.g. a
// piping helper propagating an upstream error).
func (w *Writable) Abort(reason any) {
	w.mu.Lock()
	if w.aborted || w.closed {
		w.mu.Unlock()
		return
	}
	w.aborted = true
	w.abortReason = reason
	queue := w.queue
	w.queue = nil
	w.mu.Unlock()

	w.recorder.observe(Frame{Tick: w.sched.CurrentTick(), Kind: FrameAbort, Reason: reason})
	for _, pw := range queue {
		pw.done <- &AbortError{Reason: reason}
	}
}

// Recorder returns the observer attached to this stream at construction.
func (w *Writable) Recorder() *Recorder { return w.recorder }
