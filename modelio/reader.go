package modelio

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/happyhackingspace/maxent/codec"
	"github.com/happyhackingspace/maxent/model"
)

var (
	// ErrUnknownFormat is returned when the leading tag names no accepted
	// algorithm family.
	ErrUnknownFormat = errors.New("unknown model format")
	// ErrCorruptModel is returned when the stored layout is inconsistent.
	ErrCorruptModel = errors.New("corrupt model")
)

// Reader deserializes models through a primitive reader.
type Reader struct {
	r      codec.Reader
	accept map[model.Type]bool
}

// NewReader creates a Reader accepting the given families, or every known
// family when none is given.
func NewReader(r codec.Reader, types ...model.Type) *Reader {
	if len(types) == 0 {
		types = model.Types()
	}
	accept := make(map[model.Type]bool, len(types))
	for _, t := range types {
		accept[t] = true
	}
	return &Reader{r: r, accept: accept}
}

// Read reads one model.
func (r *Reader) Read() (*model.Model, error) {
	tag, err := r.r.ReadUTF()
	if err != nil {
		return nil, fmt.Errorf("modelio: read tag: %w", err)
	}
	typ, ok := model.ParseType(tag)
	if !ok || !r.accept[typ] {
		return nil, fmt.Errorf("modelio: %w: tag %q", ErrUnknownFormat, tag)
	}
	if err := readHeader(r.r, typ); err != nil {
		return nil, fmt.Errorf("modelio: read %s header: %w", typ, corrupt(err))
	}
	m, err := readBody(r.r, typ)
	if err != nil {
		return nil, fmt.Errorf("modelio: read %s body: %w", typ, corrupt(err))
	}
	return m, nil
}

// corrupt classifies a truncated stream as a corrupt model.
func corrupt(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated: %w", ErrCorruptModel, err)
	}
	return err
}

func readHeader(r codec.Reader, typ model.Type) error {
	switch typ {
	case model.GIS:
		constant, err := r.ReadInt()
		if err != nil {
			return err
		}
		if constant < 0 {
			return fmt.Errorf("%w: negative correction constant %d", ErrCorruptModel, constant)
		}
		_, err = r.ReadDouble()
		return err
	case model.Perceptron, model.QN, model.NaiveBayes:
		return nil
	default:
		return ErrUnknownFormat
	}
}

func readBody(r codec.Reader, typ model.Type) (*model.Model, error) {
	numOutcomes, err := readCount(r, "outcome")
	if err != nil {
		return nil, err
	}
	if numOutcomes == 0 {
		return nil, fmt.Errorf("%w: model has no outcomes", ErrCorruptModel)
	}
	outcomes, err := readLabels(r, numOutcomes)
	if err != nil {
		return nil, err
	}

	numPatterns, err := readCount(r, "pattern")
	if err != nil {
		return nil, err
	}
	patterns := make([]storedPattern, 0, capHint(numPatterns))
	declared := 0
	for range numPatterns {
		s, err := r.ReadUTF()
		if err != nil {
			return nil, err
		}
		p, err := parsePattern(s, numOutcomes)
		if err != nil {
			return nil, err
		}
		if declared += p.count; declared < 0 {
			return nil, fmt.Errorf("%w: pattern counts overflow", ErrCorruptModel)
		}
		patterns = append(patterns, p)
	}

	numPreds, err := readCount(r, "predicate")
	if err != nil {
		return nil, err
	}
	if numPreds != declared {
		return nil, fmt.Errorf("%w: patterns cover %d predicates, file has %d", ErrCorruptModel, declared, numPreds)
	}
	preds, err := readLabels(r, numPreds)
	if err != nil {
		return nil, err
	}

	contexts := make([]model.Context, 0, capHint(numPreds))
	for _, p := range patterns {
		for range p.count {
			params := make([]float64, len(p.outcomes))
			for k := range params {
				if params[k], err = r.ReadDouble(); err != nil {
					return nil, err
				}
			}
			c, err := model.NewContext(p.outcomes, params)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrCorruptModel, err)
			}
			contexts = append(contexts, c)
		}
	}

	m, err := model.New(typ, contexts, preds, outcomes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptModel, err)
	}
	return m, nil
}

func readCount(r codec.Reader, what string) (int, error) {
	n, err := r.ReadInt()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative %s count %d", ErrCorruptModel, what, n)
	}
	return n, nil
}

func readLabels(r codec.Reader, n int) ([]string, error) {
	labels := make([]string, 0, capHint(n))
	for range n {
		l, err := r.ReadUTF()
		if err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, nil
}

// maxPrealloc bounds slices sized from counts read off the stream. Larger
// slices grow as their elements are actually read.
const maxPrealloc = 1 << 12

func capHint(n int) int { return min(n, maxPrealloc) }

type storedPattern struct {
	count    int
	outcomes []int
}

func parsePattern(s string, numOutcomes int) (storedPattern, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return storedPattern{}, fmt.Errorf("%w: empty outcome pattern", ErrCorruptModel)
	}
	count, err := strconv.Atoi(fields[0])
	if err != nil || count < 0 {
		return storedPattern{}, fmt.Errorf("%w: bad pattern count %q", ErrCorruptModel, fields[0])
	}
	p := storedPattern{count: count, outcomes: make([]int, len(fields)-1)}
	for i, f := range fields[1:] {
		o, err := strconv.Atoi(f)
		if err != nil || o < 0 || o >= numOutcomes {
			return storedPattern{}, fmt.Errorf("%w: outcome id %q outside [0,%d)", ErrCorruptModel, f, numOutcomes)
		}
		p.outcomes[i] = o
	}
	return p, nil
}
