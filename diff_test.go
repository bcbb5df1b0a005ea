package marble

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssertReadable_PassesOnMatch(t *testing.T) {
	TestStream(t, func(h *Helpers) {
		values := ValueTable{'a': "A"}
		src := h.Readable("a--|", values, nil)
		require.NoError(t, h.Run(context.Background(), func(ctx context.Context) error {
			for {
				ev, err := src.Read(ctx)
				if err != nil {
					return err
				}
				if ev.Done {
					return nil
				}
			}
		}))
		assert.Nil(t, AssertReadable(h, src, "a--|", values, nil))
	})
}

func TestAssertReadable_FailsOnMismatchWithDiff(t *testing.T) {
	rt := &recordingT{}
	var result *AssertionError
	TestStream(rt, func(h *Helpers) {
		values := ValueTable{'a': "A", 'b': "B"}
		src := h.Readable("a--|", values, nil)
		h.Run(context.Background(), func(ctx context.Context) error {
			for {
				ev, err := src.Read(ctx)
				if err != nil {
					return err
				}
				if ev.Done {
					return nil
				}
			}
		})
		result = AssertReadable(h, src, "a--b--|", values, nil)
	})
	require.NotNil(t, result)
	assert.Equal(t, "a--|", result.Actual)
	assert.Equal(t, "a--b--|", result.Expected)
	assert.NotEmpty(t, result.Diff)
	assert.NotEmpty(t, rt.errors)
}

func TestDiffSeries_WritesTickHeader(t *testing.T) {
	values := ValueTable{'a': "A", 'b': "B"}
	want, err := Parse("a--b--|", values, nil, ModeReadable)
	require.NoError(t, err)
	got, err := Parse("a--|", values, nil, ModeReadable)
	require.NoError(t, err)

	out := diffSeries(want, got, values)
	assert.Contains(t, out, "tick")
}
