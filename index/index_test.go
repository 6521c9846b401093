package index

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happyhackingspace/maxent/codec"
	"github.com/happyhackingspace/maxent/event"
)

func streamOf(t *testing.T, lines ...string) event.Stream {
	t.Helper()
	return event.NewTextStream(strings.NewReader(strings.Join(lines, "\n")))
}

func indexers(cfg Config) map[string]*Indexer {
	return map[string]*Indexer{
		"one-pass":             NewOnePass(cfg),
		"two-pass":             NewTwoPass(cfg),
		"one-pass-real-valued": NewOnePassRealValued(cfg),
		"two-pass-real-valued": NewTwoPassRealValued(cfg),
	}
}

type triple struct {
	outcome string
	preds   string
	count   int
}

func triples(idx *DataIndex) []triple {
	out := make([]triple, len(idx.Contexts))
	for i, ctx := range idx.Contexts {
		names := make([]string, len(ctx))
		for j, id := range ctx {
			names[j] = idx.PredLabels[id]
		}
		out[i] = triple{idx.OutcomeLabels[idx.Outcomes[i]], strings.Join(names, ","), idx.Counts[i]}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].outcome != out[j].outcome {
			return out[i].outcome < out[j].outcome
		}
		return out[i].preds < out[j].preds
	})
	return out
}

func TestDuplicateEventsMerge(t *testing.T) {
	for name, ix := range indexers(Config{Cutoff: 1, Sort: true}) {
		t.Run(name, func(t *testing.T) {
			idx, err := ix.Index(streamOf(t, "cat f1 f2", "cat f1 f2"))
			require.NoError(t, err)
			assert.Equal(t, []triple{{"cat", "f1,f2", 2}}, triples(idx))
			assert.Equal(t, []string{"cat"}, idx.OutcomeLabels)
			assert.Equal(t, []int{2, 2}, idx.PredCounts)
		})
	}
}

func TestCutoffBoundaryKeepsFeature(t *testing.T) {
	for name, ix := range indexers(Config{Cutoff: 2, Sort: true}) {
		t.Run(name, func(t *testing.T) {
			idx, err := ix.Index(streamOf(t, "cat f1", "dog f1"))
			require.NoError(t, err)
			assert.Equal(t, []string{"f1"}, idx.PredLabels)
			assert.Equal(t, []triple{{"cat", "f1", 1}, {"dog", "f1", 1}}, triples(idx))
		})
	}
}

func TestCutoffProperty(t *testing.T) {
	lines := []string{
		"a x y z", "a x y", "b x w", "b y w v", "c x", "c q r", "a x x",
	}
	truth := map[string]int{}
	for _, l := range lines {
		for _, f := range strings.Fields(l)[1:] {
			truth[f]++
		}
	}
	for cutoff := 1; cutoff <= 5; cutoff++ {
		t.Run(fmt.Sprintf("cutoff=%d", cutoff), func(t *testing.T) {
			idx, err := NewOnePass(Config{Cutoff: cutoff, Sort: true}).Index(streamOf(t, lines...))
			if errors.Is(err, ErrInsufficientData) {
				for f, c := range truth {
					assert.Less(t, c, cutoff, "feature %s should have survived", f)
				}
				return
			}
			require.NoError(t, err)
			kept := map[string]bool{}
			for i, p := range idx.PredLabels {
				kept[p] = true
				assert.GreaterOrEqual(t, truth[p], cutoff)
				assert.Equal(t, truth[p], idx.PredCounts[i])
			}
			for f, c := range truth {
				if c < cutoff {
					assert.False(t, kept[f], "feature %s below cutoff was kept", f)
				} else {
					assert.True(t, kept[f], "feature %s at or above cutoff was dropped", f)
				}
			}
			assert.True(t, sort.StringsAreSorted(idx.PredLabels))
		})
	}
}

func TestMergeMatchesExternalDedup(t *testing.T) {
	withDups := []string{"a x y", "b y", "a y x", "a x y", "b y", "c z"}
	deduped := []string{"a x y", "b y", "c z"}

	dupIdx, err := NewOnePass(Config{Cutoff: 1, Sort: true}).Index(streamOf(t, withDups...))
	require.NoError(t, err)
	dedupIdx, err := NewOnePass(Config{Cutoff: 1, Sort: true}).Index(streamOf(t, deduped...))
	require.NoError(t, err)

	got := triples(dupIdx)
	want := triples(dedupIdx)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].outcome, got[i].outcome)
		assert.Equal(t, want[i].preds, got[i].preds)
	}
	assert.Equal(t, []triple{{"a", "x,y", 3}, {"b", "y", 2}, {"c", "z", 1}}, got)
	assert.Equal(t, len(withDups), dupIdx.NumEvents())
}

func TestNoSortKeepsEveryEvent(t *testing.T) {
	idx, err := NewOnePass(Config{Cutoff: 1, Sort: false}).Index(streamOf(t, "cat f1", "cat f1", "dog f1"))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1}, idx.Counts)
	assert.Equal(t, []int{0, 0, 1}, idx.Outcomes)
}

func TestDroppedEvents(t *testing.T) {
	idx, err := NewOnePass(Config{Cutoff: 2, Sort: true}).Index(streamOf(t, "a x", "b x", "c rare"))
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Dropped)
	// outcomes are interned on first sight, before the drop
	assert.Equal(t, []string{"a", "b", "c"}, idx.OutcomeLabels)
	assert.Equal(t, 2, idx.NumEvents())
}

func TestInsufficientData(t *testing.T) {
	for name, ix := range indexers(Config{Cutoff: 3, Sort: true}) {
		t.Run(name, func(t *testing.T) {
			_, err := ix.Index(streamOf(t, "a x", "b y"))
			assert.ErrorIs(t, err, ErrInsufficientData)
		})
	}
	_, err := NewOnePass(DefaultConfig()).Index(event.NewSliceStream())
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestMalformedEventRejected(t *testing.T) {
	bad := &event.Event{Outcome: "a", Context: []string{"x"}, Values: []float64{-1}}
	_, err := NewOnePass(Config{Cutoff: 1, Sort: true}).Index(event.NewSliceStream(bad))
	assert.ErrorIs(t, err, event.ErrMalformed)
}

func TestRealValuedMergeRequiresEqualValues(t *testing.T) {
	lines := []string{"a x=1 y=2", "a x=1 y=2", "a x=1 y=3", "a x y=2"}

	realIdx, err := NewOnePassRealValued(Config{Cutoff: 1, Sort: true}).Index(streamOf(t, lines...))
	require.NoError(t, err)
	// "a x y=2" has x=1.0 implicitly and merges with the first two.
	assert.Equal(t, []int{3, 1}, realIdx.Counts)
	assert.Equal(t, []float64{1, 2}, realIdx.Values[0])
	assert.Equal(t, []float64{1, 3}, realIdx.Values[1])
	assert.Equal(t, 3.0, realIdx.Value(1, 1))

	plainIdx, err := NewOnePass(Config{Cutoff: 1, Sort: true}).Index(streamOf(t, lines...))
	require.NoError(t, err)
	assert.Equal(t, []int{4}, plainIdx.Counts)
	assert.Nil(t, plainIdx.Values)
	assert.Equal(t, 1.0, plainIdx.Value(0, 0))
}

func TestDuplicateFeaturesKept(t *testing.T) {
	idx, err := NewOnePass(Config{Cutoff: 2, Sort: true}).Index(streamOf(t, "a x x y"))
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, idx.PredLabels)
	assert.Equal(t, [][]int{{0, 0}}, idx.Contexts)
}

func TestComparableEventOrdering(t *testing.T) {
	a := NewComparableEvent(0, []int{3, 1}, nil)
	b := NewComparableEvent(0, []int{1, 3}, nil)
	c := NewComparableEvent(0, []int{1, 3, 4}, nil)
	d := NewComparableEvent(1, []int{0}, nil)

	assert.Equal(t, []int{1, 3}, a.Predicates)
	assert.Equal(t, 0, a.Compare(b))
	assert.Equal(t, -1, b.Compare(c))
	assert.Equal(t, 1, c.Compare(b))
	assert.Equal(t, -1, c.Compare(d))

	v1 := NewComparableEvent(0, []int{2, 1}, []float64{0.5, 0.25})
	assert.Equal(t, []float64{0.25, 0.5}, v1.Values)
	v2 := NewComparableEvent(0, []int{1, 2}, []float64{0.25, 0.75})
	assert.Equal(t, -1, v1.Compare(v2))
}

type trackingSpool struct {
	*FileSpool
	closed bool
}

func (s *trackingSpool) Close() error {
	s.closed = true
	return s.FileSpool.Close()
}

func TestTwoPassRemovesSpoolFile(t *testing.T) {
	dir := t.TempDir()
	var spool *trackingSpool
	ix := NewWithSpool(Config{Cutoff: 1, Sort: true, TempDir: dir}, false, func() (Spool, error) {
		fs, err := NewFileSpool(dir)
		if err != nil {
			return nil, err
		}
		spool = &trackingSpool{FileSpool: fs}
		return spool, nil
	})

	_, err := ix.Index(streamOf(t, "a x", "b y"))
	require.NoError(t, err)
	assert.True(t, spool.closed)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// error paths clean up as well
	_, err = ix.Index(streamOf(t, "a x=-1"))
	require.Error(t, err)
	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = NewTwoPass(Config{Cutoff: 5, Sort: true, TempDir: dir}).Index(streamOf(t, "a x"))
	assert.ErrorIs(t, err, ErrInsufficientData)
	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileSpoolReplayPreservesEvents(t *testing.T) {
	fs, err := NewFileSpool(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = fs.Close() }()

	in := []*event.Event{
		event.New("a", []string{"x y", "z"}),
		{Outcome: "b", Context: []string{"q"}, Values: []float64{0.5}},
	}
	for _, e := range in {
		require.NoError(t, fs.Add(e))
	}
	s, err := fs.Replay()
	require.NoError(t, err)
	out, err := event.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	require.NoError(t, s.Reset())
	again, err := event.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, in, again)

	assert.Error(t, fs.Add(in[0]))
	require.NoError(t, fs.Close())
	require.NoError(t, fs.Close())
}

func TestIndexerNames(t *testing.T) {
	for name, ix := range indexers(DefaultConfig()) {
		assert.Equal(t, name, ix.Name())
	}
}

func TestReadEventHugeFeatureCount(t *testing.T) {
	var buf bytes.Buffer
	w := codec.NewWriter(&buf, codec.Binary)
	require.NoError(t, w.WriteUTF("a"))
	require.NoError(t, w.WriteInt(0x7fffffff))
	require.NoError(t, w.WriteUTF("x"))
	require.NoError(t, w.Flush())

	_, err := readEvent(codec.NewReader(&buf, codec.Binary))
	assert.ErrorIs(t, err, io.EOF)
}
