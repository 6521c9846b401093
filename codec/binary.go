package codec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// BinaryReader reads the big-endian binary encoding.
type BinaryReader struct {
	r   *bufio.Reader
	buf [8]byte
}

// NewBinaryReader creates a BinaryReader.
func NewBinaryReader(r io.Reader) *BinaryReader {
	return &BinaryReader{r: bufio.NewReader(r)}
}

func (b *BinaryReader) ReadInt() (int, error) {
	if _, err := io.ReadFull(b.r, b.buf[:4]); err != nil {
		return 0, err
	}
	return int(int32(binary.BigEndian.Uint32(b.buf[:4]))), nil
}

func (b *BinaryReader) ReadDouble() (float64, error) {
	if _, err := io.ReadFull(b.r, b.buf[:8]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b.buf[:8])), nil
}

func (b *BinaryReader) ReadUTF() (string, error) {
	if _, err := io.ReadFull(b.r, b.buf[:2]); err != nil {
		return "", err
	}
	n := int(binary.BigEndian.Uint16(b.buf[:2]))
	data := make([]byte, n)
	if _, err := io.ReadFull(b.r, data); err != nil {
		return "", err
	}
	return string(data), nil
}

// BinaryWriter writes the big-endian binary encoding.
type BinaryWriter struct {
	w   *bufio.Writer
	buf [8]byte
}

// NewBinaryWriter creates a BinaryWriter.
func NewBinaryWriter(w io.Writer) *BinaryWriter {
	return &BinaryWriter{w: bufio.NewWriter(w)}
}

func (b *BinaryWriter) WriteInt(v int) error {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return fmt.Errorf("codec: int %d overflows int32", v)
	}
	binary.BigEndian.PutUint32(b.buf[:4], uint32(int32(v)))
	_, err := b.w.Write(b.buf[:4])
	return err
}

func (b *BinaryWriter) WriteDouble(v float64) error {
	binary.BigEndian.PutUint64(b.buf[:8], math.Float64bits(v))
	_, err := b.w.Write(b.buf[:8])
	return err
}

func (b *BinaryWriter) WriteUTF(s string) error {
	if len(s) > math.MaxUint16 {
		return ErrStringTooLong
	}
	binary.BigEndian.PutUint16(b.buf[:2], uint16(len(s)))
	if _, err := b.w.Write(b.buf[:2]); err != nil {
		return err
	}
	_, err := b.w.WriteString(s)
	return err
}

func (b *BinaryWriter) Flush() error {
	return b.w.Flush()
}
