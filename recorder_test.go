package marble

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorder_StopsAtFirstTerminal(t *testing.T) {
	sched := NewScheduler()
	rec := newRecorder(sched)

	rec.observe(Frame{Tick: 0, Kind: FrameEmit, Value: "a"})
	rec.observe(Frame{Tick: 1, Kind: FrameClose})
	rec.observe(Frame{Tick: 2, Kind: FrameEmit, Value: "b"}) // dropped: after terminal

	assert.True(t, rec.Terminal())
	fl := rec.FrameList(3)
	assert.Len(t, fl.Frames, 2)
	assert.Equal(t, Tick(3), fl.Extent)
}

func TestRecorder_FrameListReturnsIndependentCopy(t *testing.T) {
	sched := NewScheduler()
	rec := newRecorder(sched)
	rec.observe(Frame{Tick: 0, Kind: FrameEmit, Value: "a"})

	fl := rec.FrameList(1)
	fl.Frames[0].Value = "mutated"

	fl2 := rec.FrameList(1)
	assert.Equal(t, "a", fl2.Frames[0].Value)
}
