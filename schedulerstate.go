package marble

import (
	"sync/atomic"
)

// SchedulerState represents the current state of a [Scheduler].
//
// State Machine:
//
//	StateIdle (0) → StateRunning (1)       [RunAll() entry]
//	StateRunning (1) → StateIdle (0)       [RunAll() returns, queue drained]
//	StateRunning (1) → StateTerminated (2) [maxTicks / deadlock / ctx cancellation]
//	StateTerminated (2) → (terminal)
//
// There is no explicit shutdown: a failed RunAll is the only way to reach
// StateTerminated.
//
// A plain atomic value with CAS-based transitions and no mutex, since the
// scheduler never needs to block on the state itself — all real
// synchronization happens via the tick heap and the microtask queue.
type SchedulerState uint32

const (
	// StateIdle indicates the scheduler has no in-flight RunAll call.
	StateIdle SchedulerState = iota
	// StateRunning indicates RunAll is actively advancing ticks.
	StateRunning
	// StateTerminated indicates the scheduler has been shut down (deadlock,
	// ctx cancellation, or maxTicks exceeded) and must not be reused.
	StateTerminated
)

// String returns a human-readable representation of the state.
func (s SchedulerState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// atomicState is a lock-free state cell for SchedulerState.
type atomicState struct {
	v atomic.Uint32
}

// Load returns the current state atomically.
func (s *atomicState) Load() SchedulerState {
	return SchedulerState(s.v.Load())
}

// Store atomically stores a new state, bypassing transition validation.
// Only used for the one-way StateTerminated transition.
func (s *atomicState) Store(state SchedulerState) {
	s.v.Store(uint32(state))
}

// TryTransition attempts to atomically transition from one state to
// another, returning true if it succeeded.
func (s *atomicState) TryTransition(from, to SchedulerState) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}

// IsTerminated returns true if the state is StateTerminated.
func (s *atomicState) IsTerminated() bool {
	return s.Load() == StateTerminated
}
