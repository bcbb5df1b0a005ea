package marble

import "sync"

// Recorder captures a stream's observed frames, keyed by the virtual tick
// the stream stamped on each (a Readable's delivery tick, a Writable's
// write-completion tick), for comparison against a parsed expected series.
// Recording stops at the first terminal frame.
type Recorder struct {
	sched *Scheduler

	mu       sync.Mutex
	frames   []Frame
	terminal bool
}

// newRecorder returns an empty recorder bound to sched, used only to stamp
// an explicit Tick should a caller ever need one outside the normal
// observe(f) path (f already carries its own Tick by the time it is
// observed).
func newRecorder(sched *Scheduler) *Recorder {
	return &Recorder{sched: sched}
}

// observe appends f to the recorded timeline. Calls after the first
// terminal frame are silently dropped: recording stops at the first
// terminal frame.
func (rec *Recorder) observe(f Frame) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.terminal {
		return
	}
	rec.frames = append(rec.frames, f)
	if f.Kind.isTerminal() {
		rec.terminal = true
	}
}

// Terminal reports whether the recorder has already captured a terminal
// frame (Close, Cancel, or Abort).
func (rec *Recorder) Terminal() bool {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.terminal
}

// FrameList returns a snapshot of the recorded frames as a FrameList with
// the given extent (the tick at which the asserting caller stopped
// observing — see AssertReadable/AssertWritable).
func (rec *Recorder) FrameList(extent Tick) FrameList {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	frames := make([]Frame, len(rec.frames))
	copy(frames, rec.frames)
	return FrameList{Frames: frames, Extent: extent}
}

// NaturalExtent returns the tick one past the last recorded frame, or 0 if
// nothing has been recorded yet — the smallest extent that renders every
// observed frame without trailing padding.
func (rec *Recorder) NaturalExtent() Tick {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.frames) == 0 {
		return 0
	}
	return rec.frames[len(rec.frames)-1].Tick + 1
}
