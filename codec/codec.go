// Package codec implements the primitive read/write contract shared by the
// model and spill-file formats.
//
// Two encodings exist side by side:
//
//   - binary: 4-byte big-endian ints, 8-byte big-endian IEEE-754 doubles and
//     strings prefixed by a 2-byte big-endian byte length.
//   - text: one primitive per line.
//
// Code that reads or writes a format depends only on Reader and Writer and
// is therefore encoding-agnostic.
package codec

import (
	"errors"
	"io"
)

// ErrStringTooLong is returned when a string does not fit the binary
// 16-bit length prefix.
var ErrStringTooLong = errors.New("codec: string longer than 65535 bytes")

// ErrNewline is returned by the text encoding for strings containing a
// line break.
var ErrNewline = errors.New("codec: string contains a line break")

// Reader reads primitives.
type Reader interface {
	ReadInt() (int, error)
	ReadDouble() (float64, error)
	ReadUTF() (string, error)
}

// Writer writes primitives. Flush must be called once writing is done.
type Writer interface {
	WriteInt(v int) error
	WriteDouble(v float64) error
	WriteUTF(s string) error
	Flush() error
}

// Encoding selects a primitive encoding.
type Encoding int

const (
	Text Encoding = iota
	Binary
)

func (e Encoding) String() string {
	if e == Binary {
		return "binary"
	}
	return "text"
}

// NewReader returns a Reader for the given encoding.
func NewReader(r io.Reader, enc Encoding) Reader {
	if enc == Binary {
		return NewBinaryReader(r)
	}
	return NewTextReader(r)
}

// NewWriter returns a Writer for the given encoding.
func NewWriter(w io.Writer, enc Encoding) Writer {
	if enc == Binary {
		return NewBinaryWriter(w)
	}
	return NewTextWriter(w)
}
