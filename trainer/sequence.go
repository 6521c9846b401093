package trainer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/happyhackingspace/maxent/event"
	"github.com/happyhackingspace/maxent/model"
	"github.com/happyhackingspace/maxent/sequence"
)

// SequencePerceptron trains a structured perceptron: each sequence is
// decoded with the current model and, when any label is wrong, the gold
// features are rewarded and the predicted ones penalized.
type SequencePerceptron struct {
	params Params
}

// NewSequencePerceptron validates p and creates a SequencePerceptron. Only
// the indexing, iteration, step and averaging fields of p are used, plus
// BeamSize when training on a *sequence.LabeledStream.
func NewSequencePerceptron(p Params) (*SequencePerceptron, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &SequencePerceptron{params: p}, nil
}

// Train trains on every sequence of s. The stream must support Reset and
// is not closed. A *sequence.LabeledStream is decoded with BeamSize on a
// copy; the caller's stream keeps its own beam configuration.
func (t *SequencePerceptron) Train(s sequence.Stream) (*model.Model, error) {
	if ls, ok := s.(*sequence.LabeledStream); ok {
		cfg := ls.Beam()
		cfg.Size = t.params.BeamSize
		cp := *ls
		s = cp.WithBeam(cfg)
	}
	idx, err := t.params.Indexer().Index(sequence.NewEventStream(s))
	if err != nil {
		return nil, err
	}
	st := &seqState{
		preds:    labelIndex(idx.PredLabels),
		outcomes: labelIndex(idx.OutcomeLabels),
		ws:       newWeights(idx),
		step:     t.params.StepSize,
	}
	st.avg = newAverager(len(st.ws.w), t.params.Averaged)

	current, err := build(model.Perceptron, idx, st.ws.contexts(st.ws.w))
	if err != nil {
		return nil, err
	}

	slog.Info("Training sequence perceptron",
		"iterations", t.params.Iterations,
		"predicates", len(idx.PredLabels),
		"outcomes", len(idx.OutcomeLabels))

	for iter := 1; iter <= t.params.Iterations; iter++ {
		if err := s.Reset(); err != nil {
			return nil, fmt.Errorf("trainer: reset sequence stream: %w", err)
		}
		tokens, mistakes := 0, 0
		for {
			seq, err := s.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("trainer: read sequence: %w", err)
			}
			predicted, err := s.UpdateContext(seq, current)
			if err != nil {
				return nil, fmt.Errorf("trainer: update context: %w", err)
			}
			if len(predicted) != len(seq.Events) {
				return nil, fmt.Errorf("trainer: decoded %d events for a sequence of %d", len(predicted), len(seq.Events))
			}

			wrong := 0
			for k, ev := range seq.Events {
				if predicted[k].Outcome != ev.Outcome {
					wrong++
				}
			}
			tokens += len(seq.Events)
			if wrong > 0 {
				mistakes += wrong
				st.update(seq.Events, 1)
				st.update(predicted, -1)
				if current, err = build(model.Perceptron, idx, st.ws.contexts(st.ws.w)); err != nil {
					return nil, err
				}
			}
			st.avg.tick()
		}

		slog.Debug("Sequence perceptron iteration", "iteration", iter, "tokens", tokens, "mistakes", mistakes)
		if mistakes == 0 {
			slog.Debug("Sequence perceptron converged", "iteration", iter)
			break
		}
	}

	return build(model.Perceptron, idx, st.ws.contexts(st.avg.result(st.ws.w)))
}

type seqState struct {
	preds    map[string]int
	outcomes map[string]int
	ws       *weights
	avg      *averager
	step     float64
}

// update adds sign times the features of events to their outcomes.
// Features or outcomes unknown to the index are skipped.
func (st *seqState) update(events []*event.Event, sign float64) {
	for _, ev := range events {
		o, ok := st.outcomes[ev.Outcome]
		if !ok {
			continue
		}
		for j, name := range ev.Context {
			p, ok := st.preds[name]
			if !ok {
				continue
			}
			st.avg.add(st.ws.w, st.ws.at(p, o), sign*st.step*ev.Value(j))
		}
	}
}

func labelIndex(labels []string) map[string]int {
	m := make(map[string]int, len(labels))
	for i, l := range labels {
		m[l] = i
	}
	return m
}
