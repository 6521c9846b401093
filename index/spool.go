package index

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/happyhackingspace/maxent/codec"
	"github.com/happyhackingspace/maxent/event"
)

// Spool stages the events seen during the counting pass so that the
// encoding pass can replay them. Close releases every resource the spool
// holds and is safe to call more than once.
type Spool interface {
	Add(e *event.Event) error
	Replay() (event.Stream, error)
	Close() error
}

// MemorySpool keeps events in memory.
type MemorySpool struct {
	events []*event.Event
}

// NewMemorySpool creates an empty in-memory spool.
func NewMemorySpool() *MemorySpool {
	return &MemorySpool{}
}

func (m *MemorySpool) Add(e *event.Event) error {
	m.events = append(m.events, e)
	return nil
}

func (m *MemorySpool) Replay() (event.Stream, error) {
	return event.NewSliceStream(m.events...), nil
}

func (m *MemorySpool) Close() error {
	m.events = nil
	return nil
}

// FileSpool writes events to a temporary file in the binary codec and
// reads them back on Replay. The file is removed by Close.
type FileSpool struct {
	f     *os.File
	w     codec.Writer
	count int
}

// NewFileSpool creates a spool file in dir (os.TempDir when empty).
func NewFileSpool(dir string) (*FileSpool, error) {
	f, err := os.CreateTemp(dir, "maxent-events-*.bin")
	if err != nil {
		return nil, fmt.Errorf("index: create spool: %w", err)
	}
	return &FileSpool{f: f, w: codec.NewBinaryWriter(f)}, nil
}

// Path returns the spool file path.
func (s *FileSpool) Path() string {
	return s.f.Name()
}

func (s *FileSpool) Add(e *event.Event) error {
	if s.w == nil {
		return errors.New("index: spool already replayed")
	}
	if err := writeEvent(s.w, e); err != nil {
		return fmt.Errorf("index: spool event: %w", err)
	}
	s.count++
	return nil
}

func (s *FileSpool) Replay() (event.Stream, error) {
	if s.w != nil {
		if err := s.w.Flush(); err != nil {
			return nil, fmt.Errorf("index: flush spool: %w", err)
		}
		s.w = nil
	}
	st := &spoolStream{f: s.f, total: s.count}
	if err := st.Reset(); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *FileSpool) Close() error {
	if s.f == nil {
		return nil
	}
	name := s.f.Name()
	err := s.f.Close()
	if rmErr := os.Remove(name); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		err = errors.Join(err, rmErr)
	}
	s.f = nil
	s.w = nil
	return err
}

type spoolStream struct {
	f     *os.File
	r     codec.Reader
	total int
	read  int
}

func (s *spoolStream) Read() (*event.Event, error) {
	if s.read >= s.total {
		return nil, io.EOF
	}
	e, err := readEvent(s.r)
	if err != nil {
		return nil, fmt.Errorf("index: read spool event %d: %w", s.read, err)
	}
	s.read++
	return e, nil
}

func (s *spoolStream) Reset() error {
	if _, err := s.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("index: rewind spool: %w", err)
	}
	s.r = codec.NewBinaryReader(s.f)
	s.read = 0
	return nil
}

// Close is a no-op; the owning FileSpool removes the file.
func (s *spoolStream) Close() error { return nil }

// Spill record: outcome, feature count, feature names, value flag, values.
func writeEvent(w codec.Writer, e *event.Event) error {
	if err := w.WriteUTF(e.Outcome); err != nil {
		return err
	}
	if err := w.WriteInt(len(e.Context)); err != nil {
		return err
	}
	for _, c := range e.Context {
		if err := w.WriteUTF(c); err != nil {
			return err
		}
	}
	if e.Values == nil {
		return w.WriteInt(0)
	}
	if err := w.WriteInt(1); err != nil {
		return err
	}
	for _, v := range e.Values {
		if err := w.WriteDouble(v); err != nil {
			return err
		}
	}
	return nil
}

// maxPrealloc bounds slices sized from counts read off the spill file.
const maxPrealloc = 1 << 12

func readEvent(r codec.Reader) (*event.Event, error) {
	outcome, err := r.ReadUTF()
	if err != nil {
		return nil, err
	}
	n, err := r.ReadInt()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("negative feature count %d", n)
	}
	e := &event.Event{Outcome: outcome, Context: make([]string, 0, min(n, maxPrealloc))}
	for range n {
		name, err := r.ReadUTF()
		if err != nil {
			return nil, err
		}
		e.Context = append(e.Context, name)
	}
	flag, err := r.ReadInt()
	if err != nil {
		return nil, err
	}
	if flag == 0 {
		return e, nil
	}
	e.Values = make([]float64, 0, len(e.Context))
	for range n {
		v, err := r.ReadDouble()
		if err != nil {
			return nil, err
		}
		e.Values = append(e.Values, v)
	}
	return e, nil
}
