package marble

import "github.com/google/uuid"

// newCorrelationID returns a fresh identifier for one TestStream invocation,
// attached to every structured log line the scheduler emits so a failing
// test's log output can be grepped out of a noisy parallel suite run.
func newCorrelationID() string {
	return uuid.NewString()
}
