package marble

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Scenario is one independent test case for [RunMany]: a name (used only
// in the report of a recovered panic; failures are still reported through
// the shared TestingT by whichever Helpers.Readable/Writable/AssertReadable
// call detects the mismatch) and the body that builds and drives its own
// streams via a freshly constructed Helpers.
type Scenario struct {
	Name string
	Fn   func(h *Helpers)
}

// RunMany runs every scenario concurrently, each against its own Scheduler
// (constructed fresh per scenario via opts, exactly as [TestStream] would),
// and waits for all of them to finish. Scenario failures are reported via
// t.Errorf on the shared TestingT, and a panic in a scenario goroutine is
// recovered and reported the same way (t.Errorf then t.FailNow). No
// scenario goroutine returns an error, so RunMany returns nil; ctx is not
// passed to the scenarios, and its cancellation is not reported.
//
// Drives independent concurrent units of work through golang.org/x/sync/
// errgroup rather than a hand-rolled sync.WaitGroup + channel fan-in.
func RunMany(ctx context.Context, t TestingT, scenarios []Scenario, opts ...Option) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, sc := range scenarios {
		sc := sc
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("marble: scenario %q panicked: %v", sc.Name, r)
					t.FailNow()
				}
			}()
			TestStream(t, sc.Fn, opts...)
			return nil
		})
	}
	return g.Wait()
}
