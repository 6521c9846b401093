// Package modelio reads and writes models.
//
// Every model file starts with the algorithm tag ("GIS", "Perceptron",
// "QN" or "NaiveBayes"), followed by the family header and the shared body:
//
//	numOutcomes, outcome labels
//	numPatterns, one "<predicateCount> <outcomeId>..." string per pattern
//	numPredicates, predicate labels grouped by pattern
//	one double per (predicate, pattern outcome), pattern-major
//
// Reader and Writer only use the codec primitive contract, so the same code
// serves the binary and the text encoding.
package modelio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/happyhackingspace/maxent/codec"
	"github.com/happyhackingspace/maxent/model"
)

// Writer serializes models through a primitive writer.
type Writer struct {
	w codec.Writer
}

// NewWriter creates a Writer.
func NewWriter(w codec.Writer) *Writer {
	return &Writer{w: w}
}

// Write writes m and flushes the underlying writer.
func (w *Writer) Write(m *model.Model) error {
	if !m.Type().Valid() {
		return fmt.Errorf("modelio: %w: type %d", ErrUnknownFormat, m.Type())
	}
	if err := w.w.WriteUTF(m.Type().String()); err != nil {
		return fmt.Errorf("modelio: write tag: %w", err)
	}
	if err := writeHeader(w.w, m.Type()); err != nil {
		return fmt.Errorf("modelio: write %s header: %w", m.Type(), err)
	}
	if err := writeBody(w.w, m); err != nil {
		return fmt.Errorf("modelio: write %s body: %w", m.Type(), err)
	}
	return w.w.Flush()
}

// writeHeader writes the family specific fields that follow the tag.
func writeHeader(w codec.Writer, typ model.Type) error {
	switch typ {
	case model.GIS:
		// correction constant and parameter of the legacy layout
		if err := w.WriteInt(1); err != nil {
			return err
		}
		return w.WriteDouble(0)
	case model.Perceptron, model.QN, model.NaiveBayes:
		return nil
	default:
		return ErrUnknownFormat
	}
}

func writeBody(w codec.Writer, m *model.Model) error {
	outcomes := m.OutcomeLabels()
	if err := w.WriteInt(len(outcomes)); err != nil {
		return err
	}
	for _, o := range outcomes {
		if err := w.WriteUTF(o); err != nil {
			return err
		}
	}

	preds := SortedPredicates(m)
	patterns := groupPatterns(preds)
	if err := w.WriteInt(len(patterns)); err != nil {
		return err
	}
	for _, p := range patterns {
		if err := w.WriteUTF(formatPattern(len(p.preds), p.outcomes)); err != nil {
			return err
		}
	}

	if err := w.WriteInt(len(preds)); err != nil {
		return err
	}
	for _, p := range preds {
		if err := w.WriteUTF(p.Name); err != nil {
			return err
		}
	}

	for _, p := range patterns {
		for _, pred := range p.preds {
			for _, v := range pred.Params {
				if err := w.WriteDouble(v); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func formatPattern(count int, outcomes []int) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(count))
	for _, o := range outcomes {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(o))
	}
	return b.String()
}
