// Package sequence scores whole label sequences with a per-step model.
package sequence

import (
	"fmt"
	"math"
	"strings"
)

// Sequence is a scored partial or complete label path. Score is the sum of
// the log probabilities of its steps.
type Sequence struct {
	Outcomes []string
	Probs    []float64
	Score    float64
}

// Len returns the number of labelled steps.
func (s Sequence) Len() int { return len(s.Outcomes) }

// expand returns a new sequence extending s by one outcome. s is not
// modified, so candidates never share backing arrays.
func (s Sequence) expand(outcome string, prob float64) Sequence {
	next := Sequence{
		Outcomes: make([]string, len(s.Outcomes)+1),
		Probs:    make([]float64, len(s.Probs)+1),
		Score:    s.Score + math.Log(prob),
	}
	copy(next.Outcomes, s.Outcomes)
	copy(next.Probs, s.Probs)
	next.Outcomes[len(s.Outcomes)] = outcome
	next.Probs[len(s.Probs)] = prob
	return next
}

func (s Sequence) String() string {
	var b strings.Builder
	for i, o := range s.Outcomes {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s[%.4f]", o, s.Probs[i])
	}
	fmt.Fprintf(&b, " score=%.4f", s.Score)
	return b.String()
}

// Validator gates label transitions. Valid reports whether outcome may be
// assigned at position i given the labels chosen so far.
type Validator interface {
	Valid(i int, sequence []string, outcomesSoFar []string, outcome string) bool
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(i int, sequence []string, outcomesSoFar []string, outcome string) bool

func (f ValidatorFunc) Valid(i int, sequence []string, outcomesSoFar []string, outcome string) bool {
	return f(i, sequence, outcomesSoFar, outcome)
}

// ContextGenerator produces the feature names for position i of sequence
// given the labels already decided.
type ContextGenerator interface {
	Context(i int, sequence []string, priorDecisions []string, additional []any) []string
}

// ContextGeneratorFunc adapts a function to ContextGenerator.
type ContextGeneratorFunc func(i int, sequence []string, priorDecisions []string, additional []any) []string

func (f ContextGeneratorFunc) Context(i int, sequence []string, priorDecisions []string, additional []any) []string {
	return f(i, sequence, priorDecisions, additional)
}

// ClassificationModel labels whole sequences.
type ClassificationModel interface {
	// BestSequence returns the highest scoring label sequence. ok is false
	// when the validator rejects every path.
	BestSequence(sequence []string, additional []any, cg ContextGenerator, v Validator) (best Sequence, ok bool)
	// BestSequences returns up to num sequences scoring above minScore,
	// best first.
	BestSequences(num int, sequence []string, additional []any, minScore float64, cg ContextGenerator, v Validator) []Sequence
	// Outcomes returns every label the model can assign.
	Outcomes() []string
}
