package event

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		outcome string
		context []string
		values  []float64
	}{
		{"plain", "cat f1 f2", "cat", []string{"f1", "f2"}, nil},
		{"real", "dog f1=0.5 f2", "dog", []string{"f1", "f2"}, []float64{0.5, 1}},
		{"string value stays in name", "pos w=the suf=he", "pos", []string{"w=the", "suf=he"}, nil},
		{"trailing equals", "x a= b", "x", []string{"a=", "b"}, nil},
		{"extra whitespace", "  cat\tf1   f2  ", "cat", []string{"f1", "f2"}, nil},
		{"no features", "cat", "cat", []string{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := ParseLine(tt.line)
			require.NoError(t, err)
			require.NotNil(t, e)
			assert.Equal(t, tt.outcome, e.Outcome)
			assert.Equal(t, tt.context, e.Context)
			assert.Equal(t, tt.values, e.Values)
		})
	}
}

func TestParseLineBlank(t *testing.T) {
	e, err := ParseLine("   ")
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestParseLineNegativeValue(t *testing.T) {
	_, err := ParseLine("cat f1=-2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestValidate(t *testing.T) {
	_, err := NewWithValues("a", []string{"x", "y"}, []float64{1})
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = NewWithValues("", []string{"x"}, nil)
	assert.ErrorIs(t, err, ErrMalformed)

	e, err := NewWithValues("a", []string{"x"}, []float64{2})
	require.NoError(t, err)
	assert.Equal(t, 2.0, e.Value(0))
	assert.Equal(t, 1.0, New("a", []string{"x"}).Value(0))
}

func TestTextStreamReadAndReset(t *testing.T) {
	input := "cat f1 f2\n\ndog f1=2.5\n"
	s := NewTextStream(strings.NewReader(input))

	events, err := ReadAll(s)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "dog", events[1].Outcome)
	assert.Equal(t, []float64{2.5}, events[1].Values)

	require.NoError(t, s.Reset())
	e, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, "cat", e.Outcome)
}

func TestTextStreamReportsLine(t *testing.T) {
	s := NewTextStream(strings.NewReader("a x\nb y=-1\n"))
	_, err := s.Read()
	require.NoError(t, err)
	_, err = s.Read()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestNonSeekableReset(t *testing.T) {
	s := NewTextStream(io.MultiReader(strings.NewReader("a x\n")))
	assert.ErrorIs(t, s.Reset(), ErrResetUnsupported)
}

func TestWriteTextRoundTrip(t *testing.T) {
	events := []*Event{
		New("cat", []string{"f1", "f2"}),
		{Outcome: "dog", Context: []string{"f1"}, Values: []float64{0.25}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, events...))
	assert.Equal(t, "cat f1 f2\ndog f1=0.25\n", buf.String())

	path := filepath.Join(t.TempDir(), "events.txt")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	s, err := OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, events, got)
}

func TestSliceStream(t *testing.T) {
	s := NewSliceStream(New("a", nil), New("b", nil))
	first, err := ReadAll(s)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	_, err = s.Read()
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, s.Reset())
	again, err := ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestParseContext(t *testing.T) {
	ctx, values, err := ParseContext("w=the len=3")
	require.NoError(t, err)
	assert.Equal(t, []string{"w=the", "len"}, ctx)
	assert.Equal(t, []float64{1, 3}, values)

	ctx, values, err = ParseContext("bias")
	require.NoError(t, err)
	assert.Equal(t, []string{"bias"}, ctx)
	assert.Nil(t, values)

	_, _, err = ParseContext("x=-1")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestNonFiniteSuffixIsFeatureName(t *testing.T) {
	e, err := ParseLine("noun w=nan w=Inf")
	require.NoError(t, err)
	assert.Equal(t, []string{"w=nan", "w=Inf"}, e.Context)
	assert.Nil(t, e.Values)
}

func TestFromFeatures(t *testing.T) {
	e, err := FromFeatures("play", map[string]any{
		"outlook": "sunny",
		"tags":    []string{"a", "b"},
		"windy":   false,
		"humid":   true,
		"temp":    21,
		"rain":    0.5,
		"other":   struct{}{},
	})
	require.NoError(t, err)
	assert.Equal(t, "play", e.Outcome)
	assert.Equal(t, []string{"humid", "other", "outlook=sunny", "rain", "tags:a", "tags:b", "temp"}, e.Context)
	assert.Equal(t, []float64{1, 1, 1, 0.5, 1, 1, 21}, e.Values)

	_, err = FromFeatures("play", map[string]any{"temp": -3})
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = FromFeatures("", map[string]any{"x": true})
	assert.ErrorIs(t, err, ErrMalformed)
}
