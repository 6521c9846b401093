// Package maxent trains and applies discrete-feature classifiers.
//
// Training data is a file of events, one per line: the outcome followed by
// its features, each optionally carrying a real value after '='.
//
//	c, _ := maxent.Train("events.txt", nil)
//	_ = c.Save("model.bin.gz")
//	fmt.Println(c.Classify([]string{"w=the", "prev=<s>"})) // "DET"
package maxent

import (
	"fmt"

	"github.com/happyhackingspace/maxent/event"
	"github.com/happyhackingspace/maxent/model"
	"github.com/happyhackingspace/maxent/modelio"
)

// Classifier wraps a trained model.
type Classifier struct {
	m *model.Model
}

// Result holds the classification of one feature set.
type Result struct {
	Outcome string             `json:"outcome"`
	Probs   map[string]float64 `json:"probs,omitempty"`
}

// New wraps an existing model.
func New(m *model.Model) *Classifier {
	return &Classifier{m: m}
}

// Load reads a classifier from a model file. A ".gz" suffix selects gzip
// and a ".bin" suffix the binary encoding; anything else is read as text.
func Load(path string) (*Classifier, error) {
	m, err := modelio.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("maxent: %w", err)
	}
	return &Classifier{m: m}, nil
}

// Save writes the classifier to a model file, choosing the format from the
// file name like Load.
func (c *Classifier) Save(path string) error {
	if c.m == nil {
		return fmt.Errorf("maxent: classifier not initialized")
	}
	if err := modelio.SaveFile(path, c.m); err != nil {
		return fmt.Errorf("maxent: %w", err)
	}
	return nil
}

// Model returns the underlying model.
func (c *Classifier) Model() *model.Model { return c.m }

// Classify returns the most probable outcome for the features.
func (c *Classifier) Classify(features []string) string {
	return c.m.BestOutcome(c.m.Eval(features))
}

// ClassifyValues is Classify for real-valued features. values may be nil.
func (c *Classifier) ClassifyValues(features []string, values []float64) (string, error) {
	if values != nil && len(values) != len(features) {
		return "", fmt.Errorf("maxent: %d values for %d features", len(values), len(features))
	}
	return c.m.BestOutcome(c.m.EvalValues(features, values)), nil
}

// ClassifyFeatures classifies a feature dict with mixed value types. See
// event.Features for how values are converted.
func (c *Classifier) ClassifyFeatures(features map[string]any) (string, error) {
	context, values := event.Features(features)
	return c.ClassifyValues(context, values)
}

// ClassifyProba returns the best outcome and every outcome probability of
// at least threshold.
func (c *Classifier) ClassifyProba(features []string, values []float64, threshold float64) (Result, error) {
	if values != nil && len(values) != len(features) {
		return Result{}, fmt.Errorf("maxent: %d values for %d features", len(values), len(features))
	}
	probs := c.m.EvalValues(features, values)
	r := Result{Outcome: c.m.BestOutcome(probs), Probs: make(map[string]float64)}
	for i, p := range probs {
		if p >= threshold {
			r.Probs[c.m.Outcome(i)] = p
		}
	}
	return r, nil
}

// Outcomes returns the outcome labels in model order.
func (c *Classifier) Outcomes() []string { return c.m.OutcomeLabels() }

// Summary describes a model.
type Summary struct {
	Type       string   `json:"type"`
	Outcomes   []string `json:"outcomes"`
	Predicates int      `json:"predicates"`
	Parameters int      `json:"parameters"`
}

// Summary returns the model's type and sizes.
func (c *Classifier) Summary() Summary {
	params := c.m.Params()
	n := 0
	for i := range params.Len() {
		n += params.Context(i).Len()
	}
	return Summary{
		Type:       c.m.Type().String(),
		Outcomes:   c.m.OutcomeLabels(),
		Predicates: params.Len(),
		Parameters: n,
	}
}

// Equal reports whether two classifiers hold equal models.
func (c *Classifier) Equal(o *Classifier) bool {
	return c.m.Equal(o.m)
}
