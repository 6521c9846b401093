// Package event defines the labeled training example consumed by the indexers
// and the streams that produce it.
package event

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformed reports an event that violates the event invariants or the
// line format (negative or non-finite real value, missing outcome).
var ErrMalformed = errors.New("malformed event")

// Event is one labeled training instance.
type Event struct {
	Outcome string
	Context []string
	// Values is nil or has exactly len(Context) non-negative entries.
	Values []float64
}

// New creates an event without real values.
func New(outcome string, context []string) *Event {
	return &Event{Outcome: outcome, Context: context}
}

// NewWithValues creates a real-valued event and validates it.
func NewWithValues(outcome string, context []string, values []float64) (*Event, error) {
	e := &Event{Outcome: outcome, Context: context, Values: values}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate checks the event invariants.
func (e *Event) Validate() error {
	if e.Outcome == "" {
		return fmt.Errorf("%w: empty outcome", ErrMalformed)
	}
	if e.Values == nil {
		return nil
	}
	if len(e.Values) != len(e.Context) {
		return fmt.Errorf("%w: %d values for %d features", ErrMalformed, len(e.Values), len(e.Context))
	}
	for i, v := range e.Values {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: feature %q has invalid value %v", ErrMalformed, e.Context[i], v)
		}
	}
	return nil
}

// Value returns the real value of the i-th feature, 1.0 when the event
// carries no values.
func (e *Event) Value(i int) float64 {
	if e.Values == nil {
		return 1.0
	}
	return e.Values[i]
}

// String renders the event in the line format read by TextStream.
func (e *Event) String() string {
	var b strings.Builder
	b.WriteString(e.Outcome)
	for i, c := range e.Context {
		b.WriteByte(' ')
		b.WriteString(c)
		if e.Values != nil {
			b.WriteByte('=')
			b.WriteString(strconv.FormatFloat(e.Values[i], 'g', -1, 64))
		}
	}
	return b.String()
}
