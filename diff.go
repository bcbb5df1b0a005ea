package marble

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// tickColumns renders fl as a map of per-tick symbol strings (no leading
// '-' padding, no grouping) so two FrameLists can be compared tick-by-tick
// regardless of how Render chose to pad/group either one.
func tickColumns(fl FrameList, values ValueTable) (map[Tick]string, error) {
	cols := map[Tick]string{}
	for _, f := range fl.Frames {
		sym, err := renderFrame(f, values)
		if err != nil {
			return nil, err
		}
		cols[f.Tick] += sym
	}
	return cols, nil
}

// diffSeries builds a tick-aligned, colorized comparison of expected vs.
// actual: a leading column-header line, then one line per tick that holds a
// frame on either side, with matching ticks dimmed and differing ticks
// colored. Ticks present in only one side render the other side's column
// as "·".
//
// Colors diagnostic output via fatih/color rather than hand-rolling ANSI
// codes.
func diffSeries(expected, actual FrameList, values ValueTable) string {
	expCols, expErr := tickColumns(expected, values)
	actCols, actErr := tickColumns(actual, values)
	if expErr != nil || actErr != nil {
		return "marble: diff unavailable: could not render one or both series for comparison"
	}

	extent := expected.Extent
	if actual.Extent > extent {
		extent = actual.Extent
	}

	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	faint := color.New(color.Faint)

	var b strings.Builder
	fmt.Fprintf(&b, "tick  expected  actual\n")
	for t := Tick(0); t < extent; t++ {
		e, eok := expCols[t]
		a, aok := actCols[t]
		if !eok && !aok {
			continue
		}
		if e == a {
			faint.Fprintf(&b, "%4d  %-8s  %-8s\n", t, display(e), display(a))
			continue
		}
		fmt.Fprintf(&b, "%4d  ", t)
		red.Fprintf(&b, "%-8s", display(e))
		fmt.Fprint(&b, "  ")
		green.Fprintf(&b, "%-8s\n", display(a))
	}
	return b.String()
}

func display(s string) string {
	if s == "" {
		return "·"
	}
	return s
}

// AssertReadable compares the frames rd's recorder has captured so far
// (it does not advance the scheduler itself; call it after Helpers.Run)
// against the series wantSeries parses to under [ModeReadable]. It reports a failure
// through h's TestingT (via Errorf, not FailNow, so sibling assertions in
// the same test still run) and returns the resulting *AssertionError, or
// nil if the recording matched.
func AssertReadable(h *Helpers, rd *Readable, wantSeries string, values ValueTable, terminalReason any) *AssertionError {
	h.t.Helper()
	want, err := Parse(wantSeries, values, terminalReason, ModeReadable)
	if err != nil {
		h.t.Errorf("marble: AssertReadable: parsing expected series: %v", err)
		h.t.FailNow()
		return nil
	}
	got := rd.Recorder().FrameList(rd.Recorder().NaturalExtent())
	return assertFrameLists(h, want, got, values)
}

// AssertWritable is AssertReadable's counterpart for a Writable's recorded
// write-completion timeline, compared against wantSeries parsed under
// [ModeReadable] (a Writable's observation log is itself a readable
// timeline of values-and-terminal, even though the stream that produced it
// obeys writable grammar).
func AssertWritable(h *Helpers, wr *Writable, wantSeries string, values ValueTable, terminalReason any) *AssertionError {
	h.t.Helper()
	want, err := Parse(wantSeries, values, terminalReason, ModeReadable)
	if err != nil {
		h.t.Errorf("marble: AssertWritable: parsing expected series: %v", err)
		h.t.FailNow()
		return nil
	}
	got := wr.Recorder().FrameList(wr.Recorder().NaturalExtent())
	return assertFrameLists(h, want, got, values)
}

func assertFrameLists(h *Helpers, want, got FrameList, values ValueTable) *AssertionError {
	h.t.Helper()
	wantStr, err := Render(want, values)
	if err != nil {
		h.t.Errorf("marble: rendering expected series: %v", err)
		h.t.FailNow()
		return nil
	}
	gotStr, err := Render(got, values)
	if err != nil {
		h.t.Errorf("marble: rendering actual series: %v", err)
		h.t.FailNow()
		return nil
	}
	if wantStr == gotStr {
		return nil
	}
	diff := diffSeries(want, got, values)
	assertErr := &AssertionError{Expected: wantStr, Actual: gotStr, Diff: diff}
	h.t.Errorf("%v", assertErr)
	return assertErr
}
