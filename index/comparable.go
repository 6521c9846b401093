package index

import (
	"cmp"
	"sort"
)

// ComparableEvent is a numerically encoded event with a total ordering,
// used to find and merge duplicate events.
type ComparableEvent struct {
	Outcome    int
	Predicates []int
	// Values is nil for plain events, otherwise aligned with Predicates.
	Values []float64
	// Seen is the number of times this event occurred.
	Seen int
}

// NewComparableEvent sorts preds (keeping values aligned) and returns an
// event seen once. The slices are owned by the returned event.
func NewComparableEvent(outcome int, preds []int, values []float64) *ComparableEvent {
	ce := &ComparableEvent{Outcome: outcome, Predicates: preds, Values: values, Seen: 1}
	sort.Sort(byPredicate{ce})
	return ce
}

type byPredicate struct{ *ComparableEvent }

func (b byPredicate) Len() int { return len(b.Predicates) }

func (b byPredicate) Less(i, j int) bool {
	if b.Predicates[i] != b.Predicates[j] {
		return b.Predicates[i] < b.Predicates[j]
	}
	if b.Values != nil {
		return b.Values[i] < b.Values[j]
	}
	return false
}

func (b byPredicate) Swap(i, j int) {
	b.Predicates[i], b.Predicates[j] = b.Predicates[j], b.Predicates[i]
	if b.Values != nil {
		b.Values[i], b.Values[j] = b.Values[j], b.Values[i]
	}
}

// Compare orders events by outcome, then by predicate ids compared
// position by position (ties broken by value when both events carry
// values), then by length.
func (e *ComparableEvent) Compare(o *ComparableEvent) int {
	if c := cmp.Compare(e.Outcome, o.Outcome); c != 0 {
		return c
	}
	n := min(len(e.Predicates), len(o.Predicates))
	for i := range n {
		if c := cmp.Compare(e.Predicates[i], o.Predicates[i]); c != 0 {
			return c
		}
		if e.Values != nil && o.Values != nil {
			if c := cmp.Compare(e.Values[i], o.Values[i]); c != 0 {
				return c
			}
		}
	}
	return cmp.Compare(len(e.Predicates), len(o.Predicates))
}
