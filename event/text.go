package event

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

const maxLineSize = 16 << 20

// ParseLine parses one line of the event line format:
//
//	<outcome> <feature1> <feature2>[=<value>] ...
//
// A feature whose text after the last '=' parses as a float carries that
// value; any other token is a feature name with value 1.0. Values is nil
// when no feature carries an explicit value. A blank line returns nil, nil.
func ParseLine(line string) (*Event, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	context, values, err := parseFeatures(fields[1:])
	if err != nil {
		return nil, err
	}
	e := &Event{Outcome: fields[0], Context: context, Values: values}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// ParseContext parses a line of features without a leading outcome, using
// the same value rules as ParseLine.
func ParseContext(line string) ([]string, []float64, error) {
	return parseFeatures(strings.Fields(line))
}

func parseFeatures(tokens []string) ([]string, []float64, error) {
	context := make([]string, 0, len(tokens))
	values := make([]float64, 0, len(tokens))
	hasValues := false
	for _, tok := range tokens {
		name, val, ok := splitValue(tok)
		if ok {
			if val < 0 {
				return nil, nil, fmt.Errorf("%w: negative value in %q", ErrMalformed, tok)
			}
			hasValues = true
		}
		context = append(context, name)
		values = append(values, val)
	}
	if !hasValues {
		values = nil
	}
	return context, values, nil
}

func splitValue(tok string) (string, float64, bool) {
	i := strings.LastIndexByte(tok, '=')
	if i <= 0 || i == len(tok)-1 {
		return tok, 1.0, false
	}
	v, err := strconv.ParseFloat(tok[i+1:], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		// "w=nan" is a word feature, not a value
		return tok, 1.0, false
	}
	return tok[:i], v, true
}

// TextStream reads events in the line format.
type TextStream struct {
	open    func() (io.ReadCloser, error)
	rc      io.ReadCloser
	scanner *bufio.Scanner
	line    int
}

// OpenFile creates a resettable stream over an event file.
func OpenFile(path string) (*TextStream, error) {
	s := &TextStream{open: func() (io.ReadCloser, error) { return os.Open(path) }}
	if err := s.Reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewTextStream creates a stream over r. Reset is supported when r is an
// io.Seeker.
func NewTextStream(r io.Reader) *TextStream {
	s := &TextStream{}
	if seeker, ok := r.(io.ReadSeeker); ok {
		s.open = func() (io.ReadCloser, error) {
			if _, err := seeker.Seek(0, io.SeekStart); err != nil {
				return nil, err
			}
			return io.NopCloser(seeker), nil
		}
	}
	s.setReader(io.NopCloser(r))
	return s
}

func (s *TextStream) setReader(rc io.ReadCloser) {
	s.rc = rc
	s.scanner = bufio.NewScanner(rc)
	s.scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	s.line = 0
}

func (s *TextStream) Read() (*Event, error) {
	for s.scanner.Scan() {
		s.line++
		e, err := ParseLine(s.scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("event: line %d: %w", s.line, err)
		}
		if e != nil {
			return e, nil
		}
	}
	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("event: read line %d: %w", s.line+1, err)
	}
	return nil, io.EOF
}

func (s *TextStream) Reset() error {
	if s.open == nil {
		return ErrResetUnsupported
	}
	if s.rc != nil {
		_ = s.rc.Close()
	}
	rc, err := s.open()
	if err != nil {
		return fmt.Errorf("event: open: %w", err)
	}
	s.setReader(rc)
	return nil
}

func (s *TextStream) Close() error {
	if s.rc == nil {
		return nil
	}
	err := s.rc.Close()
	s.rc = nil
	return err
}

// WriteText writes events in the line format, one per line.
func WriteText(w io.Writer, events ...*Event) error {
	bw := bufio.NewWriter(w)
	for _, e := range events {
		if _, err := bw.WriteString(e.String()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
