package codec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TextReader reads the line-oriented encoding.
type TextReader struct {
	r    *bufio.Reader
	line int
}

// NewTextReader creates a TextReader.
func NewTextReader(r io.Reader) *TextReader {
	return &TextReader{r: bufio.NewReader(r)}
}

func (t *TextReader) readLine() (string, error) {
	s, err := t.r.ReadString('\n')
	if err != nil {
		// A final line without a terminator is still a value.
		if errors.Is(err, io.EOF) && s != "" {
			err = nil
		} else {
			return "", err
		}
	}
	t.line++
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r"), nil
}

func (t *TextReader) ReadInt() (int, error) {
	s, err := t.readLine()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("codec: line %d: %w", t.line, err)
	}
	return int(v), nil
}

func (t *TextReader) ReadDouble() (float64, error) {
	s, err := t.readLine()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("codec: line %d: %w", t.line, err)
	}
	return v, nil
}

func (t *TextReader) ReadUTF() (string, error) {
	return t.readLine()
}

// TextWriter writes the line-oriented encoding.
type TextWriter struct {
	w *bufio.Writer
}

// NewTextWriter creates a TextWriter.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: bufio.NewWriter(w)}
}

func (t *TextWriter) writeLine(s string) error {
	if _, err := t.w.WriteString(s); err != nil {
		return err
	}
	return t.w.WriteByte('\n')
}

func (t *TextWriter) WriteInt(v int) error {
	return t.writeLine(strconv.Itoa(v))
}

// WriteDouble uses the shortest representation that parses back to v.
func (t *TextWriter) WriteDouble(v float64) error {
	return t.writeLine(strconv.FormatFloat(v, 'g', -1, 64))
}

func (t *TextWriter) WriteUTF(s string) error {
	if strings.ContainsAny(s, "\r\n") {
		return ErrNewline
	}
	return t.writeLine(s)
}

func (t *TextWriter) Flush() error {
	return t.w.Flush()
}
