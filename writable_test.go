package marble

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritable_PassthroughWhenGateOpen(t *testing.T) {
	sched := NewScheduler()
	fl, err := Parse("", nil, nil, ModeWritable)
	require.NoError(t, err)
	w := newWritable(sched, fl)

	require.NoError(t, w.Write(context.Background(), "x"))
	rec := w.Recorder().FrameList(1)
	require.Len(t, rec.Frames, 1)
	assert.Equal(t, "x", rec.Frames[0].Value)
}

func TestWritable_BlocksThenReleasesOnGateToggle(t *testing.T) {
	sched := NewScheduler()
	fl, err := Parse("-<--->", nil, nil, ModeWritable)
	require.NoError(t, err)
	w := newWritable(sched, fl)

	writeErr := make(chan error, 1)
	// The write is issued at tick 1, after the gate has closed.
	require.NoError(t, sched.ScheduleAt(1, func() {
		go func() {
			writeErr <- w.Write(context.Background(), "stalled")
		}()
	}))

	require.NoError(t, sched.RunAll(context.Background()))
	require.NoError(t, <-writeErr)

	rec := w.Recorder().FrameList(6)
	require.Len(t, rec.Frames, 1)
	assert.Equal(t, "stalled", rec.Frames[0].Value)
	assert.Equal(t, Tick(5), rec.Frames[0].Tick)
}

func TestWritable_AbortRejectsStalledWrites(t *testing.T) {
	sched := NewScheduler()
	fl, err := Parse("-<--#", nil, "boom", ModeWritable)
	require.NoError(t, err)
	w := newWritable(sched, fl)

	writeErr := make(chan error, 1)
	// The write is issued at tick 1, after the gate has closed.
	require.NoError(t, sched.ScheduleAt(1, func() {
		go func() {
			writeErr <- w.Write(context.Background(), "doomed")
		}()
	}))

	require.NoError(t, sched.RunAll(context.Background()))
	err = <-writeErr
	var abortErr *AbortError
	require.ErrorAs(t, err, &abortErr)
	assert.Equal(t, "boom", abortErr.Reason)
}

func TestWritable_WriteAfterCloseIsUsageError(t *testing.T) {
	sched := NewScheduler()
	fl, err := Parse("", nil, nil, ModeWritable)
	require.NoError(t, err)
	w := newWritable(sched, fl)

	require.NoError(t, w.Close())
	err = w.Write(context.Background(), "too late")
	var usageErr *UsageError
	require.ErrorAs(t, err, &usageErr)
}

func TestWritable_CloseTwiceIsNoOp(t *testing.T) {
	sched := NewScheduler()
	fl, err := Parse("", nil, nil, ModeWritable)
	require.NoError(t, err)
	w := newWritable(sched, fl)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
