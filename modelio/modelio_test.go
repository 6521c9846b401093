package modelio

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happyhackingspace/maxent/codec"
	"github.com/happyhackingspace/maxent/model"
)

func sampleModel(t *testing.T, typ model.Type) *model.Model {
	t.Helper()
	mk := func(outcomes []int, params []float64) model.Context {
		c, err := model.NewContext(outcomes, params)
		require.NoError(t, err)
		return c
	}
	contexts := []model.Context{
		mk([]int{2, 0}, []float64{0.25, 1.5}),
		mk([]int{1}, []float64{3}),
		mk([]int{0, 2}, []float64{0.1, 1.0 / 3}),
		mk([]int{1}, []float64{2}),
		mk(nil, nil),
	}
	preds := []string{"w=the", "suffix=ing", "prev=<s>", "shape=Xx", "empty"}
	m, err := model.New(typ, contexts, preds, []string{"B", "I", "O"})
	require.NoError(t, err)
	return m
}

func TestRoundTripAllFamiliesAndEncodings(t *testing.T) {
	for _, typ := range model.Types() {
		for _, enc := range []codec.Encoding{codec.Text, codec.Binary} {
			for _, gz := range []bool{false, true} {
				f := Format{Gzip: gz, Encoding: enc}
				name := typ.String() + "/" + enc.String()
				if gz {
					name += "/gzip"
				}
				t.Run(name, func(t *testing.T) {
					m := sampleModel(t, typ)
					var buf bytes.Buffer
					require.NoError(t, Save(&buf, m, f))

					got, err := Load(&buf, f)
					require.NoError(t, err)
					assert.True(t, m.Equal(got))
					assert.Equal(t, typ, got.Type())

					ctx := []string{"w=the", "shape=Xx", "unknown"}
					assert.InDeltaSlice(t, m.Eval(ctx), got.Eval(ctx), 1e-12)
				})
			}
		}
	}
}

func TestTextLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, sampleModel(t, model.GIS), Format{}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{"GIS", "1", "0", "3", "B", "I", "O"}, lines[:7])
	// two predicates share the {0,2} pattern so only three patterns remain
	assert.Equal(t, []string{"3", "1", "2 0 2", "2 1"}, lines[7:11])
	assert.Equal(t, []string{"5", "empty", "w=the", "prev=<s>", "suffix=ing", "shape=Xx"}, lines[11:17])
	assert.Equal(t, []string{"1.5", "0.25", "0.1", "0.3333333333333333", "3", "2"}, lines[17:])
}

func TestRestrictedReaderRejectsGIS(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, sampleModel(t, model.GIS), Format{Encoding: codec.Binary}))
	data := buf.Bytes()

	restricted := NewReader(codec.NewReader(bytes.NewReader(data), codec.Binary),
		model.Perceptron, model.QN, model.NaiveBayes)
	_, err := restricted.Read()
	assert.ErrorIs(t, err, ErrUnknownFormat)

	m, err := NewReader(codec.NewReader(bytes.NewReader(data), codec.Binary)).Read()
	require.NoError(t, err)
	assert.Equal(t, model.GIS, m.Type())
}

func TestUnknownTag(t *testing.T) {
	_, err := Load(strings.NewReader("MaxEnt\n2\na\nb\n0\n0\n"), Format{})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestCorruptModels(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"outcome id out of range", "QN\n2\na\nb\n1\n1 5\n1\nx\n1.0\n"},
		{"pattern count mismatch", "QN\n2\na\nb\n1\n2 0\n1\nx\n1.0\n"},
		{"negative count", "Perceptron\n-1\n"},
		{"no outcomes", "Perceptron\n0\n0\n0\n"},
		{"truncated parameters", "QN\n2\na\nb\n1\n1 0 1\n1\nx\n1.0\n"},
		{"truncated labels", "NaiveBayes\n2\na\n"},
		{"bad pattern count", "QN\n1\na\n1\nmany 0\n1\nx\n1\n"},
		{"duplicate outcome in pattern", "QN\n2\na\nb\n1\n1 0 0\n1\nx\n1\n2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.data), Format{})
			assert.ErrorIs(t, err, ErrCorruptModel)
		})
	}
}

func TestHugeDeclaredCountsAreCorrupt(t *testing.T) {
	const huge = 0x7fffffff
	tests := []struct {
		name  string
		write func(w codec.Writer)
	}{
		{"outcomes", func(w codec.Writer) {
			_ = w.WriteInt(huge)
			_ = w.WriteUTF("a")
		}},
		{"patterns", func(w codec.Writer) {
			_ = w.WriteInt(1)
			_ = w.WriteUTF("a")
			_ = w.WriteInt(huge)
		}},
		{"predicates", func(w codec.Writer) {
			_ = w.WriteInt(1)
			_ = w.WriteUTF("a")
			_ = w.WriteInt(1)
			_ = w.WriteUTF("2147483647 0")
			_ = w.WriteInt(huge)
			_ = w.WriteUTF("x")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := codec.NewWriter(&buf, codec.Binary)
			require.NoError(t, w.WriteUTF("QN"))
			tt.write(w)
			require.NoError(t, w.Flush())

			_, err := Load(&buf, Format{Encoding: codec.Binary})
			assert.ErrorIs(t, err, ErrCorruptModel)
		})
	}
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, Format{}, FormatFor("model.txt"))
	assert.Equal(t, Format{Encoding: codec.Binary}, FormatFor("model.bin"))
	assert.Equal(t, Format{Gzip: true, Encoding: codec.Binary}, FormatFor("model.bin.gz"))
	assert.Equal(t, Format{Gzip: true}, FormatFor("model.txt.gz"))
}

func TestSaveLoadFile(t *testing.T) {
	dir := t.TempDir()
	m := sampleModel(t, model.Perceptron)
	for _, name := range []string{"m.txt", "m.bin", "m.bin.gz", "m.gz"} {
		path := filepath.Join(dir, name)
		require.NoError(t, SaveFile(path, m))
		got, err := LoadFile(path)
		require.NoError(t, err)
		assert.True(t, m.Equal(got), name)
	}
	_, err := LoadFile(filepath.Join(dir, "missing.bin"))
	assert.Error(t, err)
}

func TestComparablePredicateOrder(t *testing.T) {
	a := ComparablePredicate{Outcomes: []int{0, 2}}
	b := ComparablePredicate{Outcomes: []int{0, 2, 3}}
	c := ComparablePredicate{Outcomes: []int{1}}
	assert.Negative(t, a.Compare(b))
	assert.Negative(t, b.Compare(c))
	assert.Zero(t, a.Compare(ComparablePredicate{Outcomes: []int{0, 2}}))
	assert.Positive(t, c.Compare(a))
}
