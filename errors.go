// Package marble provides typed, cause-chain-aware errors for the four
// error kinds the harness can raise: parse errors, usage errors, assertion
// failures, and timeout/deadlock errors.
package marble

import (
	"fmt"
)

// ParseError reports a malformed series string: an unclosed or nested
// group, a frame placed after a terminal, a terminal character used in the
// wrong mode, or a reserved character used as a value-table key.
//
// Column is the zero-based rune offset into the series string at which the
// problem was detected.
type ParseError struct {
	Column  int
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Column < 0 {
		return fmt.Sprintf("marble: parse error: %s", e.Message)
	}
	return fmt.Sprintf("marble: parse error at column %d: %s", e.Column, e.Message)
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// UsageError reports misuse of the harness itself: a nil callback or a
// tick argument that is already in the past passed to
// [Scheduler.ScheduleAt], or a [Writable.Write] after [Writable.Close].
// Nested [Helpers.Run] / [TestStream] calls are reported with the sentinel
// errors [ErrReentrantRun] / [ErrReentrantTestStream] instead, and a
// reserved value-table key is a [ParseError]. Helpers are not checked for
// use outside their owning [TestStream] invocation.
type UsageError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *UsageError) Error() string {
	return "marble: usage error: " + e.Message
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *UsageError) Unwrap() error {
	return e.Cause
}

// AssertionError reports that an observed series did not match the
// expected one. Diff is a human-readable, tick-aligned rendering of the
// mismatch (see diff.go); Expected and Actual are the canonical series
// strings that produced it.
type AssertionError struct {
	Expected string
	Actual   string
	Diff     string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("marble: assertion failed: expected %q, got %q\n%s", e.Expected, e.Actual, e.Diff)
}

// TimeoutError reports that the scheduler's safety bound was exceeded:
// the microtask-drain iteration budget, the overall tick budget
// (maxTicks), or the settle budget for consumers still blocked once no
// action remains (a deadlock). Tick is the scheduler's current tick at the
// moment the bound was hit; Pending counts what was still outstanding:
// queued microtasks for the drain budget, queued actions for maxTicks, and
// blocked Read/Write calls for a deadlock.
type TimeoutError struct {
	Tick    Tick
	Pending int
	Message string
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("marble: deadlock/timeout at tick %d (%d pending action(s)): %s", e.Tick, e.Pending, e.Message)
}

// WrapError wraps an error with a message and optional cause chain. The
// result satisfies errors.Is(result, cause) == true.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}
