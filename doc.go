// Package marble provides a marble-style testing harness for asynchronous
// data streams modeled on the web streams standard (readable streams,
// writable streams, abort signals).
//
// # Architecture
//
// Test authors describe stream scenarios using compact series strings —
// ASCII timelines in which each column represents one virtual time tick and
// each character denotes an event (emit, close, cancel, abort, backpressure
// toggle). The harness builds real stream instances driven by a virtual
// clock ([Scheduler]), runs user code against them, and asserts the
// observed behavior of a stream under test against a series string via
// [AssertReadable] / [AssertWritable].
//
// The package is built around three tightly coupled subsystems:
//
//   - the series codec ([Parse], [Render]) translates a series string plus
//     a value dictionary into an ordered, tick-indexed [FrameList];
//   - the [Scheduler] is a deterministic cooperative scheduler standing in
//     for wall-clock timers, advancing only once all work at the current
//     tick has settled;
//   - the stream adapters ([Readable], [Writable], [AbortSignal]) are
//     driven by the scheduler and serialize their observed behavior back
//     into a canonical series string via [Recorder].
//
// # Usage
//
//	marble.TestStream(t, func(h *marble.Helpers) {
//	    src := h.Readable("a--b--|", nil, nil)
//	    h.Run(context.Background(), func(ctx context.Context) error {
//	        _, err := src.Read(ctx)
//	        return err
//	    })
//	    marble.AssertReadable(h, src, "a--b--|", nil, nil)
//	})
//
// # Thread Safety
//
// Each [TestStream] invocation owns an independent [Scheduler] and set of
// adapters; there is no process-wide mutable state beyond the per-goroutine
// reentrancy marker used to detect nested [TestStream]/[Helpers.Run] calls
// on the same goroutine, which is a usage error (see
// [ErrReentrantTestStream], [ErrReentrantRun]). [LoadFileConfig] returns an
// ordinary *[FileConfig] value with no effect of its own; a caller wires it
// into a specific [Scheduler] explicitly via [WithFileConfig].
//
// # Non-goals
//
// Real wall-clock behavior, cross-process distribution, non-textual series
// formats, backpressure simulation beyond the single `<`/`>` toggle, and
// structured signal events beyond abort are all out of scope.
package marble
