package maxent

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/happyhackingspace/maxent/event"
	"github.com/happyhackingspace/maxent/trainer"
)

// TrainConfig holds configuration for training.
type TrainConfig struct {
	Params trainer.Params
}

// DefaultTrainConfig returns the default training configuration.
func DefaultTrainConfig() *TrainConfig {
	return &TrainConfig{Params: trainer.DefaultParams()}
}

// EvalResult holds held-out evaluation results.
type EvalResult struct {
	Accuracy float64
	Correct  int
	Total    int
	// Confusion counts predictions per true outcome:
	// Confusion[gold][predicted].
	Confusion map[string]map[string]int
	Classes   []string
}

// Train trains a classifier on the events file at eventsPath.
func Train(eventsPath string, config *TrainConfig) (*Classifier, error) {
	if config == nil {
		config = DefaultTrainConfig()
	}
	tr, err := trainer.NewEventTrainer(config.Params)
	if err != nil {
		return nil, fmt.Errorf("maxent: %w", err)
	}

	events, err := event.OpenFile(eventsPath)
	if err != nil {
		return nil, fmt.Errorf("maxent: %w", err)
	}
	defer func() { _ = events.Close() }()

	m, err := tr.Train(events)
	if err != nil {
		return nil, fmt.Errorf("maxent: %w", err)
	}
	return &Classifier{m: m}, nil
}

// Evaluate classifies every event of the file at eventsPath and compares
// the prediction with its outcome.
func Evaluate(eventsPath string, c *Classifier) (*EvalResult, error) {
	if c == nil || c.m == nil {
		return nil, fmt.Errorf("maxent: classifier not initialized")
	}
	events, err := event.OpenFile(eventsPath)
	if err != nil {
		return nil, fmt.Errorf("maxent: %w", err)
	}
	defer func() { _ = events.Close() }()

	result := &EvalResult{Confusion: make(map[string]map[string]int)}
	classes := make(map[string]bool)
	for {
		e, err := events.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("maxent: %w", err)
		}
		pred := c.m.BestOutcome(c.m.EvalValues(e.Context, e.Values))
		if result.Confusion[e.Outcome] == nil {
			result.Confusion[e.Outcome] = make(map[string]int)
		}
		result.Confusion[e.Outcome][pred]++
		classes[e.Outcome] = true
		classes[pred] = true
		if pred == e.Outcome {
			result.Correct++
		}
		result.Total++
	}
	if result.Total == 0 {
		return nil, fmt.Errorf("maxent: no events in %s", eventsPath)
	}
	result.Accuracy = float64(result.Correct) / float64(result.Total)
	for cls := range classes {
		result.Classes = append(result.Classes, cls)
	}
	slices.Sort(result.Classes)
	return result, nil
}
