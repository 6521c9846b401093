package trainer

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/happyhackingspace/maxent/event"
	"github.com/happyhackingspace/maxent/index"
	"github.com/happyhackingspace/maxent/model"
)

// Algorithm estimates a model from indexed events.
type Algorithm interface {
	Train(idx *index.DataIndex) (*model.Model, error)
}

// NewAlgorithm returns the algorithm named by p.Algorithm.
func NewAlgorithm(p Params) (Algorithm, error) {
	typ, err := p.Type()
	if err != nil {
		return nil, err
	}
	switch typ {
	case model.GIS:
		return &GIS{Iterations: p.Iterations, Smoothing: p.Smoothing, Tolerance: p.Tolerance}, nil
	case model.Perceptron:
		return &Perceptron{Iterations: p.Iterations, StepSize: p.StepSize, Averaged: p.Averaged, Tolerance: p.Tolerance}, nil
	case model.QN:
		return &QN{Iterations: p.Iterations, L1: p.L1, L2: p.L2, Memory: p.Memory, Tolerance: p.Tolerance}, nil
	case model.NaiveBayes:
		return &NaiveBayes{}, nil
	}
	return nil, fmt.Errorf("trainer: no trainer for %s", typ)
}

// EventTrainer indexes an event stream and trains a model on it.
type EventTrainer struct {
	params Params
	algo   Algorithm
}

// NewEventTrainer validates p and creates an EventTrainer.
func NewEventTrainer(p Params) (*EventTrainer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	algo, err := NewAlgorithm(p)
	if err != nil {
		return nil, err
	}
	return &EventTrainer{params: p, algo: algo}, nil
}

// Train reads events until io.EOF and returns the trained model. The
// stream is not closed.
func (t *EventTrainer) Train(events event.Stream) (*model.Model, error) {
	idx, err := t.params.Indexer().Index(events)
	if err != nil {
		return nil, err
	}
	slog.Info("Training model",
		"algorithm", t.params.Algorithm,
		"events", idx.NumEvents(),
		"unique", len(idx.Contexts),
		"predicates", len(idx.PredLabels),
		"outcomes", len(idx.OutcomeLabels))
	return t.algo.Train(idx)
}

// weights is a dense predicates × outcomes parameter matrix stored
// row-major.
type weights struct {
	k int
	w []float64
}

func newWeights(idx *index.DataIndex) *weights {
	k := len(idx.OutcomeLabels)
	return &weights{k: k, w: make([]float64, len(idx.PredLabels)*k)}
}

func (ws *weights) at(pred, outcome int) int { return pred*ws.k + outcome }

// score fills scores with the unnormalized log-linear scores of event i.
func (ws *weights) score(idx *index.DataIndex, i int, w []float64, scores []float64) {
	clear(scores)
	for j, pred := range idx.Contexts[i] {
		v := idx.Value(i, j)
		floats.AddScaled(scores, v, w[pred*ws.k:(pred+1)*ws.k])
	}
}

// contexts converts w into model contexts holding only non-zero
// parameters.
func (ws *weights) contexts(w []float64) []model.Context {
	n := len(w) / max(ws.k, 1)
	out := make([]model.Context, n)
	for p := range n {
		row := w[p*ws.k : (p+1)*ws.k]
		var outcomes []int
		for o, v := range row {
			if v != 0 {
				outcomes = append(outcomes, o)
			}
		}
		mc := model.NewMutableContext(outcomes)
		for i, o := range outcomes {
			mc.SetParameter(i, row[o])
		}
		out[p] = mc.Freeze()
	}
	return out
}

func build(typ model.Type, idx *index.DataIndex, contexts []model.Context) (*model.Model, error) {
	m, err := model.New(typ, contexts, idx.PredLabels, idx.OutcomeLabels)
	if err != nil {
		return nil, fmt.Errorf("trainer: build %s model: %w", typ, err)
	}
	return m, nil
}

// softmax turns scores into probabilities in place and returns the log
// normalizer.
func softmax(scores []float64) float64 {
	lse := floats.LogSumExp(scores)
	for i, s := range scores {
		scores[i] = math.Exp(s - lse)
	}
	return lse
}
