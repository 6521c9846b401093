package modelio

import (
	"cmp"
	"slices"
	"sort"

	"github.com/happyhackingspace/maxent/model"
)

// ComparablePredicate is a predicate prepared for storage: its outcome
// pattern sorted ascending with parameters kept aligned.
type ComparablePredicate struct {
	Name     string
	Outcomes []int
	Params   []float64
}

// Compare orders predicates by outcome ids position by position, then by
// pattern length.
func (p ComparablePredicate) Compare(o ComparablePredicate) int {
	n := min(len(p.Outcomes), len(o.Outcomes))
	for i := range n {
		if c := cmp.Compare(p.Outcomes[i], o.Outcomes[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(p.Outcomes), len(o.Outcomes))
}

// samePattern reports whether two predicates share an outcome pattern.
func (p ComparablePredicate) samePattern(o ComparablePredicate) bool {
	return slices.Equal(p.Outcomes, o.Outcomes)
}

type byOutcome ComparablePredicate

func (b byOutcome) Len() int           { return len(b.Outcomes) }
func (b byOutcome) Less(i, j int) bool { return b.Outcomes[i] < b.Outcomes[j] }
func (b byOutcome) Swap(i, j int) {
	b.Outcomes[i], b.Outcomes[j] = b.Outcomes[j], b.Outcomes[i]
	b.Params[i], b.Params[j] = b.Params[j], b.Params[i]
}

// SortedPredicates returns the model's predicates grouped so that
// predicates sharing an outcome pattern are adjacent. The sort is stable so
// predicates within a pattern keep model order.
func SortedPredicates(m *model.Model) []ComparablePredicate {
	labels := m.PredLabels()
	params := m.Params()
	preds := make([]ComparablePredicate, len(labels))
	for i, name := range labels {
		c := params.Context(i)
		p := ComparablePredicate{Name: name, Outcomes: c.Outcomes(), Params: c.Parameters()}
		sort.Sort(byOutcome(p))
		preds[i] = p
	}
	slices.SortStableFunc(preds, ComparablePredicate.Compare)
	return preds
}

// pattern is a run of predicates sharing one outcome pattern.
type pattern struct {
	outcomes []int
	preds    []ComparablePredicate
}

func groupPatterns(preds []ComparablePredicate) []pattern {
	var out []pattern
	for _, p := range preds {
		if n := len(out); n > 0 && out[n-1].preds[0].samePattern(p) {
			out[n-1].preds = append(out[n-1].preds, p)
			continue
		}
		out = append(out, pattern{outcomes: p.Outcomes, preds: []ComparablePredicate{p}})
	}
	return out
}
