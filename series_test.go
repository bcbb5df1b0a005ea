package marble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_EmitAndClose(t *testing.T) {
	fl, err := Parse("a--b--|", ValueTable{'a': "A", 'b': "B"}, nil, ModeReadable)
	require.NoError(t, err)
	require.Len(t, fl.Frames, 3)

	assert.Equal(t, Frame{Tick: 0, Kind: FrameEmit, Value: "A"}, fl.Frames[0])
	assert.Equal(t, Frame{Tick: 3, Kind: FrameEmit, Value: "B"}, fl.Frames[1])
	assert.Equal(t, FrameClose, fl.Frames[2].Kind)
	assert.Equal(t, Tick(6), fl.Frames[2].Tick)
	assert.Equal(t, Tick(7), fl.Extent)
}

func TestParse_ValueTable_DefaultsToLiteralRune(t *testing.T) {
	fl, err := Parse("xy", nil, nil, ModeReadable)
	require.NoError(t, err)
	require.Len(t, fl.Frames, 2)
	assert.Equal(t, "x", fl.Frames[0].Value)
	assert.Equal(t, "y", fl.Frames[1].Value)
}

func TestParse_Group(t *testing.T) {
	fl, err := Parse("(ab)|", ValueTable{'a': "A", 'b': "B"}, nil, ModeReadable)
	require.NoError(t, err)
	require.Len(t, fl.Frames, 3)
	assert.Equal(t, Tick(0), fl.Frames[0].Tick)
	assert.Equal(t, Tick(0), fl.Frames[1].Tick)
	assert.Equal(t, Tick(1), fl.Frames[2].Tick)
}

func TestParse_GroupClosingAfterTerminalFrame(t *testing.T) {
	fl, err := Parse("(C|)", ValueTable{'C': "baz"}, nil, ModeReadable)
	require.NoError(t, err)
	require.Len(t, fl.Frames, 2)
	assert.Equal(t, Tick(0), fl.Frames[0].Tick)
	assert.Equal(t, "baz", fl.Frames[0].Value)
	assert.Equal(t, FrameClose, fl.Frames[1].Kind)
	assert.Equal(t, Tick(0), fl.Frames[1].Tick)
}

func TestParse_ValueTableScenarioWithTrailingGroup(t *testing.T) {
	fl, err := Parse("---A--B--(C|)", ValueTable{'A': "foo", 'B': "bar", 'C': "baz"}, nil, ModeReadable)
	require.NoError(t, err)
	require.Len(t, fl.Frames, 4)
	assert.Equal(t, Tick(3), fl.Frames[0].Tick)
	assert.Equal(t, "foo", fl.Frames[0].Value)
	assert.Equal(t, Tick(6), fl.Frames[1].Tick)
	assert.Equal(t, "bar", fl.Frames[1].Value)
	assert.Equal(t, Tick(9), fl.Frames[2].Tick)
	assert.Equal(t, "baz", fl.Frames[2].Value)
	assert.Equal(t, Tick(9), fl.Frames[3].Tick)
	assert.Equal(t, FrameClose, fl.Frames[3].Kind)
}

func TestParse_RejectsContentAfterTerminal(t *testing.T) {
	_, err := Parse("a|-", nil, nil, ModeReadable)
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Column)
}

func TestParse_RejectsContentAfterTerminal_Whitespace(t *testing.T) {
	_, err := Parse("a| -", nil, nil, ModeReadable)
	require.Error(t, err)
}

func TestParse_RejectsUnclosedGroup(t *testing.T) {
	_, err := Parse("(ab", ValueTable{'a': "A", 'b': "B"}, nil, ModeReadable)
	require.Error(t, err)
}

func TestParse_RejectsNestedGroup(t *testing.T) {
	_, err := Parse("(a(b))", ValueTable{'a': "A", 'b': "B"}, nil, ModeReadable)
	require.Error(t, err)
}

func TestParse_ModeWritable_RejectsValueCharacters(t *testing.T) {
	_, err := Parse("a--", nil, nil, ModeWritable)
	require.Error(t, err)
}

func TestParse_ModeWritable_AllowsBackpressureToggles(t *testing.T) {
	fl, err := Parse("-<--->-", nil, nil, ModeWritable)
	require.NoError(t, err)
	require.Len(t, fl.Frames, 2)
	assert.Equal(t, FrameBackpressureOn, fl.Frames[0].Kind)
	assert.Equal(t, FrameBackpressureOff, fl.Frames[1].Kind)
}

func TestParse_ModeAbort_RequiresExactlyOneBang(t *testing.T) {
	_, err := Parse("---", nil, "boom", ModeAbort)
	require.Error(t, err)

	_, err = Parse("--!--!", nil, "boom", ModeAbort)
	require.Error(t, err)

	fl, err := Parse("--!", nil, "boom", ModeAbort)
	require.NoError(t, err)
	require.Len(t, fl.Frames, 1)
	assert.Equal(t, "boom", fl.Frames[0].Reason)
}

func TestParse_EmptyAndWhitespaceOnly(t *testing.T) {
	fl, err := Parse("", nil, nil, ModeReadable)
	require.NoError(t, err)
	assert.Empty(t, fl.Frames)
	assert.Equal(t, Tick(0), fl.Extent)

	fl, err = Parse("   ", nil, nil, ModeReadable)
	require.NoError(t, err)
	assert.Empty(t, fl.Frames)
}

func TestRender_RoundTripsParse(t *testing.T) {
	values := ValueTable{'a': "A", 'b': "B"}
	const series = "a--b--|"
	fl, err := Parse(series, values, nil, ModeReadable)
	require.NoError(t, err)
	out, err := Render(fl, values)
	require.NoError(t, err)
	assert.Equal(t, series, out)
}

func TestRender_GroupsSameTickFrames(t *testing.T) {
	values := ValueTable{'a': "A", 'b': "B"}
	fl, err := Parse("(ab)|", values, nil, ModeReadable)
	require.NoError(t, err)
	out, err := Render(fl, values)
	require.NoError(t, err)
	assert.Equal(t, "(ab)|", out)
}

func TestCanonicalize_StripsWhitespace(t *testing.T) {
	values := ValueTable{'a': "A"}
	out, err := Canonicalize("a -- |", values, ModeReadable)
	require.NoError(t, err)
	assert.Equal(t, "a--|", out)
}

func TestValueTable_ValidateRejectsReservedChars(t *testing.T) {
	vt := ValueTable{'|': "oops"}
	assert.Error(t, vt.Validate())
}

func TestRender_RejectsValueShadowingAnotherKey(t *testing.T) {
	// "a" is not registered under its own rune, but the table already
	// assigns rune 'a' to "X" — rendering the literal string "a" as
	// fallback would be indistinguishable from "X" on re-parse.
	values := ValueTable{'a': "X"}
	fl := FrameList{Frames: []Frame{{Tick: 0, Kind: FrameEmit, Value: "a"}}, Extent: 1}
	_, err := Render(fl, values)
	require.Error(t, err)
}
