package sequence

import (
	"errors"
	"fmt"
	"io"

	"github.com/happyhackingspace/maxent/event"
	"github.com/happyhackingspace/maxent/model"
)

// TrainingSequence is one labelled sequence: its gold events in order and
// the source sample they were derived from.
type TrainingSequence struct {
	Events []*event.Event
	Source any
}

// Stream yields training sequences. Read returns io.EOF after the last one.
type Stream interface {
	Read() (*TrainingSequence, error)
	Reset() error
	Close() error
	// UpdateContext re-derives the events of seq with the labels m
	// predicts, so histories reflect the model's own decisions.
	UpdateContext(seq *TrainingSequence, m *model.Model) ([]*event.Event, error)
}

// EventStream flattens a sequence Stream into an event stream, in
// sequence order.
type EventStream struct {
	seqs    Stream
	pending []*event.Event
}

var _ event.Stream = (*EventStream)(nil)

// NewEventStream creates an EventStream over s.
func NewEventStream(s Stream) *EventStream {
	return &EventStream{seqs: s}
}

func (s *EventStream) Read() (*event.Event, error) {
	for len(s.pending) == 0 {
		seq, err := s.seqs.Read()
		if err != nil {
			return nil, err
		}
		s.pending = seq.Events
	}
	ev := s.pending[0]
	s.pending = s.pending[1:]
	return ev, nil
}

func (s *EventStream) Reset() error {
	s.pending = nil
	return s.seqs.Reset()
}

func (s *EventStream) Close() error { return s.seqs.Close() }

// Sample is a token sequence with its gold labels.
type Sample struct {
	Tokens     []string
	Labels     []string
	Additional []any
}

// LabeledStream is an in-memory Stream of samples whose events come from a
// ContextGenerator.
type LabeledStream struct {
	samples   []Sample
	pos       int
	cg        ContextGenerator
	validator Validator
	beam      BeamConfig
}

var _ Stream = (*LabeledStream)(nil)

// NewLabeledStream creates a LabeledStream. Every sample must carry one
// label per token.
func NewLabeledStream(cg ContextGenerator, samples ...Sample) (*LabeledStream, error) {
	for i, s := range samples {
		if len(s.Tokens) != len(s.Labels) {
			return nil, fmt.Errorf("sequence: sample %d: %d tokens, %d labels", i, len(s.Tokens), len(s.Labels))
		}
	}
	return &LabeledStream{samples: samples, cg: cg, beam: DefaultBeamConfig()}, nil
}

// WithValidator sets the validator used when decoding in UpdateContext.
func (s *LabeledStream) WithValidator(v Validator) *LabeledStream {
	s.validator = v
	return s
}

// WithBeam sets the decoding parameters used in UpdateContext.
func (s *LabeledStream) WithBeam(cfg BeamConfig) *LabeledStream {
	s.beam = cfg
	return s
}

// Beam returns the decoding parameters used in UpdateContext.
func (s *LabeledStream) Beam() BeamConfig { return s.beam }

func (s *LabeledStream) Read() (*TrainingSequence, error) {
	if s.pos >= len(s.samples) {
		return nil, io.EOF
	}
	sample := &s.samples[s.pos]
	s.pos++
	return &TrainingSequence{
		Events: s.events(sample, sample.Labels),
		Source: sample,
	}, nil
}

func (s *LabeledStream) Reset() error {
	s.pos = 0
	return nil
}

func (s *LabeledStream) Close() error { return nil }

func (s *LabeledStream) UpdateContext(seq *TrainingSequence, m *model.Model) ([]*event.Event, error) {
	sample, ok := seq.Source.(*Sample)
	if !ok {
		return nil, errors.New("sequence: training sequence does not come from a LabeledStream")
	}
	best, ok := NewBeamSearch(m, s.beam).BestSequence(sample.Tokens, sample.Additional, s.cg, s.validator)
	if !ok {
		return nil, fmt.Errorf("sequence: no valid labelling for %d tokens", len(sample.Tokens))
	}
	return s.events(sample, best.Outcomes), nil
}

// events generates one event per token, using labels as both the outcome
// and the decision history.
func (s *LabeledStream) events(sample *Sample, labels []string) []*event.Event {
	events := make([]*event.Event, len(sample.Tokens))
	for i := range sample.Tokens {
		ctx := s.cg.Context(i, sample.Tokens, labels[:i], sample.Additional)
		events[i] = event.New(labels[i], ctx)
	}
	return events
}
