package model

import (
	"fmt"
	"slices"
)

// Context holds the parameters of one predicate: a parameter for every
// outcome in its outcome pattern. A Context is immutable.
type Context struct {
	outcomes []int
	params   []float64
}

// NewContext validates and copies an outcome pattern and its parameters.
func NewContext(outcomes []int, params []float64) (Context, error) {
	if len(outcomes) != len(params) {
		return Context{}, fmt.Errorf("model: %d outcomes for %d parameters", len(outcomes), len(params))
	}
	seen := make(map[int]struct{}, len(outcomes))
	for _, o := range outcomes {
		if o < 0 {
			return Context{}, fmt.Errorf("model: negative outcome id %d", o)
		}
		if _, dup := seen[o]; dup {
			return Context{}, fmt.Errorf("model: duplicate outcome id %d in pattern", o)
		}
		seen[o] = struct{}{}
	}
	return Context{outcomes: slices.Clone(outcomes), params: slices.Clone(params)}, nil
}

// Len returns the pattern length.
func (c Context) Len() int { return len(c.outcomes) }

// Outcome returns the i-th outcome id of the pattern.
func (c Context) Outcome(i int) int { return c.outcomes[i] }

// Parameter returns the i-th parameter.
func (c Context) Parameter(i int) float64 { return c.params[i] }

// Outcomes returns a copy of the outcome pattern.
func (c Context) Outcomes() []int { return slices.Clone(c.outcomes) }

// Parameters returns a copy of the parameters.
func (c Context) Parameters() []float64 { return slices.Clone(c.params) }

// MutableContext is the training-time form of a Context. It must only be
// used by the goroutine running the training loop; Freeze produces the
// Context a model is built from.
type MutableContext struct {
	outcomes []int
	params   []float64
}

// NewMutableContext creates a context over outcomes with zero parameters.
func NewMutableContext(outcomes []int) *MutableContext {
	return &MutableContext{
		outcomes: slices.Clone(outcomes),
		params:   make([]float64, len(outcomes)),
	}
}

func (m *MutableContext) Len() int { return len(m.outcomes) }
func (m *MutableContext) Outcome(i int) int { return m.outcomes[i] }
func (m *MutableContext) Parameter(i int) float64 { return m.params[i] }
func (m *MutableContext) SetParameter(i int, v float64) { m.params[i] = v }

// UpdateParameter adds delta to the i-th parameter.
func (m *MutableContext) UpdateParameter(i int, delta float64) {
	m.params[i] += delta
}

// IndexOf returns the position of outcome in the pattern, or -1.
func (m *MutableContext) IndexOf(outcome int) int {
	return slices.Index(m.outcomes, outcome)
}

// Freeze returns an immutable copy.
func (m *MutableContext) Freeze() Context {
	return Context{outcomes: slices.Clone(m.outcomes), params: slices.Clone(m.params)}
}

// FreezeAll freezes a slice of mutable contexts.
func FreezeAll(ms []*MutableContext) []Context {
	out := make([]Context, len(ms))
	for i, m := range ms {
		out[i] = m.Freeze()
	}
	return out
}
