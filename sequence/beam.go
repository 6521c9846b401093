package sequence

import (
	"cmp"
	"log/slog"
	"math"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Evaluator is the per-step model a BeamSearch decodes with. *model.Model
// implements it.
type Evaluator interface {
	Eval(context []string) []float64
	Outcome(i int) string
	OutcomeLabels() []string
}

// BeamConfig holds the decoding parameters.
type BeamConfig struct {
	// Size is the number of partial sequences kept after each step.
	Size int
	// Workers bounds the goroutines expanding candidates of one step.
	// Values below 2 expand sequentially.
	Workers int
}

// DefaultBeamConfig returns the default decoding parameters.
func DefaultBeamConfig() BeamConfig {
	return BeamConfig{Size: 3, Workers: 1}
}

// BeamSearch is a ClassificationModel decoding with bounded-width
// best-first search.
type BeamSearch struct {
	model Evaluator
	cfg   BeamConfig
}

var _ ClassificationModel = (*BeamSearch)(nil)

// NewBeamSearch creates a BeamSearch over m. A non-positive size falls
// back to the default.
func NewBeamSearch(m Evaluator, cfg BeamConfig) *BeamSearch {
	if cfg.Size <= 0 {
		cfg.Size = DefaultBeamConfig().Size
	}
	return &BeamSearch{model: m, cfg: cfg}
}

func (b *BeamSearch) Outcomes() []string { return b.model.OutcomeLabels() }

func (b *BeamSearch) BestSequence(sequence []string, additional []any, cg ContextGenerator, v Validator) (Sequence, bool) {
	seqs := b.BestSequences(1, sequence, additional, math.Inf(-1), cg, v)
	if len(seqs) == 0 {
		return Sequence{}, false
	}
	return seqs[0], true
}

func (b *BeamSearch) BestSequences(num int, sequence []string, additional []any, minScore float64, cg ContextGenerator, v Validator) []Sequence {
	beam := []Sequence{{}}
	for i := range sequence {
		beam = b.step(i, beam, sequence, additional, minScore, cg, v)
		if len(beam) == 0 {
			slog.Debug("Beam emptied", "position", i, "length", len(sequence))
			return nil
		}
	}
	return beam[:min(num, len(beam))]
}

// step expands every live candidate by one position and keeps the best
// cfg.Size results ordered by score.
func (b *BeamSearch) step(i int, beam []Sequence, sequence []string, additional []any, minScore float64, cg ContextGenerator, v Validator) []Sequence {
	expansions := make([][]Sequence, len(beam))
	if b.cfg.Workers > 1 && len(beam) > 1 {
		var g errgroup.Group
		g.SetLimit(b.cfg.Workers)
		for k := range beam {
			g.Go(func() error {
				expansions[k] = b.expand(i, beam[k], sequence, additional, minScore, cg, v)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for k := range beam {
			expansions[k] = b.expand(i, beam[k], sequence, additional, minScore, cg, v)
		}
	}

	next := slices.Concat(expansions...)
	slices.SortStableFunc(next, func(x, y Sequence) int { return cmp.Compare(y.Score, x.Score) })
	return next[:min(b.cfg.Size, len(next))]
}

// expand scores the outcomes for position i after top. Outcomes below the
// beam-th best probability are skipped unless nothing else is valid.
func (b *BeamSearch) expand(i int, top Sequence, sequence []string, additional []any, minScore float64, cg ContextGenerator, v Validator) []Sequence {
	probs := b.model.Eval(cg.Context(i, sequence, top.Outcomes, additional))

	sorted := slices.Clone(probs)
	slices.SortFunc(sorted, func(x, y float64) int { return cmp.Compare(y, x) })
	threshold := sorted[min(b.cfg.Size, len(sorted))-1]

	var out []Sequence
	add := func(j int, p float64) {
		outcome := b.model.Outcome(j)
		if v != nil && !v.Valid(i, sequence, top.Outcomes, outcome) {
			return
		}
		if s := top.expand(outcome, p); s.Score > minScore {
			out = append(out, s)
		}
	}
	for j, p := range probs {
		if p >= threshold {
			add(j, p)
		}
	}
	if len(out) == 0 {
		for j, p := range probs {
			if p < threshold {
				add(j, p)
			}
		}
	}
	return out
}
