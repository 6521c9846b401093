package modelio

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/happyhackingspace/maxent/codec"
	"github.com/happyhackingspace/maxent/model"
)

// Format describes how a model resource is encoded.
type Format struct {
	Gzip     bool
	Encoding codec.Encoding
}

// FormatFor picks the format from a resource name: a ".gz" suffix selects
// gzip, then a ".bin" suffix selects the binary encoding. Anything else is
// plain text.
func FormatFor(name string) Format {
	var f Format
	if strings.HasSuffix(name, ".gz") {
		f.Gzip = true
		name = strings.TrimSuffix(name, ".gz")
	}
	if strings.HasSuffix(name, ".bin") {
		f.Encoding = codec.Binary
	}
	return f
}

// Save writes m to w in the given format.
func Save(w io.Writer, m *model.Model, f Format) error {
	if !f.Gzip {
		return NewWriter(codec.NewWriter(w, f.Encoding)).Write(m)
	}
	gz := gzip.NewWriter(w)
	if err := NewWriter(codec.NewWriter(gz, f.Encoding)).Write(m); err != nil {
		_ = gz.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("modelio: close gzip: %w", err)
	}
	return nil
}

// Load reads a model from r in the given format, accepting the given
// families or all of them.
func Load(r io.Reader, f Format, types ...model.Type) (*model.Model, error) {
	if f.Gzip {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("modelio: open gzip: %w", err)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}
	return NewReader(codec.NewReader(r, f.Encoding), types...).Read()
}

// SaveFile writes m to path using the format implied by its name.
func SaveFile(path string, m *model.Model) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("modelio: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("modelio: %w", cerr))
		}
	}()
	return Save(f, m, FormatFor(path))
}

// LoadFile reads a model from path using the format implied by its name.
func LoadFile(path string, types ...model.Type) (*model.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("modelio: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f, FormatFor(path), types...)
}
