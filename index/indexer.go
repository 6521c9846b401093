// Package index turns a stream of events into the compact integer arrays
// the trainers iterate over.
//
// Indexing makes two passes. The counting pass reads every event once,
// counts feature occurrences and stages the events in a Spool. Features
// whose count reaches the cutoff get ids in sorted name order. The encoding
// pass replays the spool, drops unknown features, interns outcomes and
// builds one ComparableEvent per surviving event. With sorting enabled,
// identical events are merged and their occurrence counts summed.
package index

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/happyhackingspace/maxent/event"
	"github.com/happyhackingspace/maxent/internal/alphabet"
)

// ErrInsufficientData is returned when no event survives indexing.
var ErrInsufficientData = errors.New("index: insufficient training data")

// Config holds indexing parameters.
type Config struct {
	// Cutoff is the minimum number of occurrences a feature needs to be kept.
	Cutoff int
	// Sort enables sorting and merging of identical events.
	Sort bool
	// TempDir is where the two-pass indexer spills events. Empty means
	// os.TempDir.
	TempDir string
}

// DefaultConfig returns the default indexing parameters.
func DefaultConfig() Config {
	return Config{
		Cutoff: 5,
		Sort:   true,
	}
}

// DataIndex is the indexed form of an event stream. All per-event slices are
// parallel and hold one entry per unique event.
type DataIndex struct {
	Contexts [][]int
	Outcomes []int
	Counts   []int
	// Values is nil unless produced by a real-valued indexer, in which case
	// every entry is aligned with Contexts. Events read without values carry
	// 1.0 for each feature.
	Values        [][]float64
	PredLabels    []string
	OutcomeLabels []string
	// PredCounts holds the occurrence count of every kept predicate.
	PredCounts []int
	// Dropped is the number of events discarded for having no kept feature.
	Dropped int
}

// NumEvents returns the number of events represented, duplicates included.
func (d *DataIndex) NumEvents() int {
	n := 0
	for _, c := range d.Counts {
		n += c
	}
	return n
}

// Value returns the value of the j-th feature of event i.
func (d *DataIndex) Value(i, j int) float64 {
	if d.Values == nil || d.Values[i] == nil {
		return 1.0
	}
	return d.Values[i][j]
}

// Indexer runs the indexing algorithm with a given staging strategy.
type Indexer struct {
	cfg        Config
	name       string
	realValued bool
	newSpool   func() (Spool, error)
}

// NewOnePass returns an indexer that keeps events in memory between passes.
func NewOnePass(cfg Config) *Indexer {
	return &Indexer{
		cfg:      cfg,
		name:     "one-pass",
		newSpool: func() (Spool, error) { return NewMemorySpool(), nil },
	}
}

// NewTwoPass returns an indexer that spills events to a temporary file
// between passes. The file is removed before Index returns.
func NewTwoPass(cfg Config) *Indexer {
	return &Indexer{
		cfg:  cfg,
		name: "two-pass",
		newSpool: func() (Spool, error) {
			return NewFileSpool(cfg.TempDir)
		},
	}
}

// NewOnePassRealValued returns an in-memory indexer that carries feature
// values. Two events merge only when their values match exactly.
func NewOnePassRealValued(cfg Config) *Indexer {
	ix := NewOnePass(cfg)
	ix.name = "one-pass-real-valued"
	ix.realValued = true
	return ix
}

// NewTwoPassRealValued returns a real-valued indexer that spills events
// and their values to a temporary file between passes.
func NewTwoPassRealValued(cfg Config) *Indexer {
	ix := NewTwoPass(cfg)
	ix.name = "two-pass-real-valued"
	ix.realValued = true
	return ix
}

// NewWithSpool returns an indexer using a custom staging strategy.
func NewWithSpool(cfg Config, realValued bool, newSpool func() (Spool, error)) *Indexer {
	return &Indexer{cfg: cfg, name: "custom", realValued: realValued, newSpool: newSpool}
}

// Name identifies the indexing variant in logs.
func (ix *Indexer) Name() string { return ix.name }

// Index reads events until io.EOF and returns the indexed data. The stream
// is not closed.
func (ix *Indexer) Index(events event.Stream) (idx *DataIndex, err error) {
	spool, err := ix.newSpool()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := spool.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("index: release spool: %w", cerr)
		}
	}()

	slog.Debug("Indexing events", "indexer", ix.name, "cutoff", ix.cfg.Cutoff, "sort", ix.cfg.Sort)

	counts, total, err := countPredicates(events, spool)
	if err != nil {
		return nil, err
	}
	preds, predCounts := predicateTable(counts, ix.cfg.Cutoff)
	slog.Debug("Counted predicates", "events", total, "predicates", len(counts), "kept", preds.Size())

	replay, err := spool.Replay()
	if err != nil {
		return nil, err
	}
	outcomes := alphabet.New()
	ces, dropped, err := ix.encode(replay, preds, outcomes)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		slog.Info("Dropped events with no feature above cutoff", "dropped", dropped, "cutoff", ix.cfg.Cutoff)
	}

	if ix.cfg.Sort {
		ces = sortAndMerge(ces)
	}
	if len(ces) == 0 {
		return nil, fmt.Errorf("%w: no events left after applying cutoff %d to %d events",
			ErrInsufficientData, ix.cfg.Cutoff, total)
	}

	idx = &DataIndex{
		Contexts:      make([][]int, len(ces)),
		Outcomes:      make([]int, len(ces)),
		Counts:        make([]int, len(ces)),
		PredLabels:    preds.Labels(),
		OutcomeLabels: outcomes.Labels(),
		PredCounts:    predCounts,
		Dropped:       dropped,
	}
	if ix.realValued {
		idx.Values = make([][]float64, len(ces))
	}
	for i, ce := range ces {
		idx.Contexts[i] = ce.Predicates
		idx.Outcomes[i] = ce.Outcome
		idx.Counts[i] = ce.Seen
		if ix.realValued {
			idx.Values[i] = ce.Values
		}
	}
	slog.Debug("Indexed events", "unique", len(ces), "outcomes", len(idx.OutcomeLabels), "predicates", len(idx.PredLabels))
	return idx, nil
}

func countPredicates(events event.Stream, spool Spool) (map[string]int, int, error) {
	counts := make(map[string]int)
	total := 0
	for {
		e, err := events.Read()
		if errors.Is(err, io.EOF) {
			return counts, total, nil
		}
		if err != nil {
			return nil, 0, fmt.Errorf("index: read event: %w", err)
		}
		if err := e.Validate(); err != nil {
			return nil, 0, fmt.Errorf("index: event %d: %w", total, err)
		}
		if err := spool.Add(e); err != nil {
			return nil, 0, err
		}
		for _, c := range e.Context {
			counts[c]++
		}
		total++
	}
}

// predicateTable assigns ids, in sorted name order, to every predicate whose
// count reaches cutoff.
func predicateTable(counts map[string]int, cutoff int) (*alphabet.Alphabet, []int) {
	kept := make([]string, 0, len(counts))
	for name, c := range counts {
		if c >= cutoff {
			kept = append(kept, name)
		}
	}
	preds := alphabet.FromSorted(kept)
	predCounts := make([]int, preds.Size())
	for i := range predCounts {
		predCounts[i] = counts[preds.Label(i)]
	}
	return preds, predCounts
}

func (ix *Indexer) encode(events event.Stream, preds, outcomes *alphabet.Alphabet) ([]*ComparableEvent, int, error) {
	var ces []*ComparableEvent
	dropped := 0
	for {
		e, err := events.Read()
		if errors.Is(err, io.EOF) {
			return ces, dropped, nil
		}
		if err != nil {
			return nil, 0, fmt.Errorf("index: replay event: %w", err)
		}
		oid := outcomes.Add(e.Outcome)

		ids := make([]int, 0, len(e.Context))
		var values []float64
		if ix.realValued {
			values = make([]float64, 0, len(e.Context))
		}
		for i, c := range e.Context {
			id := preds.Get(c)
			if id < 0 {
				continue
			}
			ids = append(ids, id)
			if values != nil {
				values = append(values, e.Value(i))
			}
		}
		if len(ids) == 0 {
			dropped++
			slog.Debug("Dropped event", "outcome", e.Outcome, "context", e.Context)
			continue
		}
		ces = append(ces, NewComparableEvent(oid, ids, values))
	}
}

// sortAndMerge sorts events and folds every run of equal events into its
// first element.
func sortAndMerge(ces []*ComparableEvent) []*ComparableEvent {
	slices.SortFunc(ces, func(a, b *ComparableEvent) int { return a.Compare(b) })
	out := make([]*ComparableEvent, 0, len(ces))
	for _, ce := range ces {
		if n := len(out); n > 0 && out[n-1].Compare(ce) == 0 {
			out[n-1].Seen += ce.Seen
			continue
		}
		out = append(out, ce)
	}
	return out
}
