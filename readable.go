package marble

import (
	"context"
	"sync"
)

// StreamEvent is one observation returned by Readable.Read: either a value
// (Frame.Kind == FrameEmit) or the stream's terminal frame.
type StreamEvent struct {
	Frame Frame
	Done  bool // true once this event is the stream's terminal frame
}

// Readable is a read-only stream driven entirely by a FrameList scheduled
// against a Scheduler at construction time: each frame in the list becomes
// a tick-scheduled action that appends to the stream's internal queue and
// wakes any blocked Read call. It mirrors a ReadableStream's observable
// surface (read, cancel) without exposing the underlying source/controller
// split the web standard specifies — test code only ever consumes.
type Readable struct {
	sched    *Scheduler
	recorder *Recorder

	mu           sync.Mutex
	pending      []Frame
	cancelled    bool
	cancelReason any
	terminal     bool
	waiters      []chan struct{}
}

// newReadable schedules fl's frames against sched and returns the resulting
// stream. Frames scheduled after a Cancel (see Readable.Cancel) are dropped
// when they fire.
func newReadable(sched *Scheduler, fl FrameList) *Readable {
	r := &Readable{sched: sched, recorder: newRecorder(sched)}
	for _, f := range fl.Frames {
		frame := f
		_ = sched.ScheduleAt(frame.Tick, func() { r.deliver(frame) })
	}
	return r
}

// deliver is the scheduled action for one frame. It is a no-op once the
// stream has been cancelled or has already reached a terminal frame.
func (r *Readable) deliver(f Frame) {
	r.mu.Lock()
	if r.cancelled || r.terminal {
		r.mu.Unlock()
		return
	}
	r.pending = append(r.pending, f)
	if f.Kind.isTerminal() {
		r.terminal = true
	}
	r.mu.Unlock()

	// Recorded at production time, against the scheduler's own clock, never
	// at whatever later tick a lagging consumer happens to call Read — a
	// Readable's emission timeline is intrinsic to its FrameList, not to
	// consumer pace (consumer-side throttling shows up on the Writable end
	// of a pipe instead; see Writable.deliver).
	r.recorder.observe(f)

	// Waking waiters is posted as a microtask: any synchronous consumer
	// reaction to a frame must settle before the scheduler is allowed to
	// advance past the current tick.
	r.sched.QueueMicrotask(func() { r.wake() })
}

// wake releases every goroutine currently blocked in Read.
func (r *Readable) wake() {
	r.mu.Lock()
	waiters := r.waiters
	r.waiters = nil
	r.mu.Unlock()
	for _, w := range waiters {
		close(w)
	}
}

// Read blocks until the next frame is available or ctx is done. Once a
// terminal frame (Close/Cancel/Abort) has been returned, all subsequent
// calls return that same event again with Done set, matching a web
// ReadableStreamDefaultReader's behavior of re-resolving past completion.
func (r *Readable) Read(ctx context.Context) (StreamEvent, error) {
	for {
		r.mu.Lock()
		if len(r.pending) > 0 {
			f := r.pending[0]
			if !f.Kind.isTerminal() {
				// The terminal frame stays queued so later reads return it again.
				r.pending = r.pending[1:]
			}
			r.mu.Unlock()

			if f.Kind == FrameAbort {
				return StreamEvent{Frame: f, Done: true}, &AbortError{Reason: f.Reason}
			}
			return StreamEvent{Frame: f, Done: f.Kind.isTerminal()}, nil
		}
		if r.cancelled {
			reason := r.cancelReason
			r.mu.Unlock()
			return StreamEvent{}, &AbortError{Reason: reason}
		}
		wait := make(chan struct{})
		r.waiters = append(r.waiters, wait)
		r.mu.Unlock()

		r.sched.enterBusy()
		select {
		case <-wait:
			r.sched.leaveBusy()
		case <-ctx.Done():
			r.sched.leaveBusy()
			return StreamEvent{}, ctx.Err()
		}
	}
}

// Cancel cancels the stream from the consumer side with reason, dropping
// any frames still scheduled to fire at a later tick. Calling Cancel after
// the stream has already reached a terminal frame is a no-op.
func (r *Readable) Cancel(reason any) {
	r.mu.Lock()
	if r.cancelled || r.terminal {
		r.mu.Unlock()
		return
	}
	r.cancelled = true
	r.cancelReason = reason
	tick := r.sched.CurrentTick()
	r.mu.Unlock()

	r.recorder.observe(Frame{Tick: tick, Kind: FrameCancel, Reason: reason})
	r.wake()
}

// Recorder returns the observer attached to this stream at construction.
func (r *Readable) Recorder() *Recorder { return r.recorder }
