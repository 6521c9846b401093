package event

import (
	"errors"
	"io"
)

// ErrResetUnsupported is returned by streams that cannot be replayed.
var ErrResetUnsupported = errors.New("event: stream does not support reset")

// Stream produces events one at a time. Read returns io.EOF after the last
// event. Reset rewinds the stream to its first event.
type Stream interface {
	Read() (*Event, error)
	Reset() error
	Close() error
}

// SliceStream streams events held in memory.
type SliceStream struct {
	events []*Event
	pos    int
}

// NewSliceStream creates a stream over events.
func NewSliceStream(events ...*Event) *SliceStream {
	return &SliceStream{events: events}
}

func (s *SliceStream) Read() (*Event, error) {
	if s.pos >= len(s.events) {
		return nil, io.EOF
	}
	e := s.events[s.pos]
	s.pos++
	return e, nil
}

func (s *SliceStream) Reset() error {
	s.pos = 0
	return nil
}

func (s *SliceStream) Close() error { return nil }

// ReadAll drains a stream into a slice.
func ReadAll(s Stream) ([]*Event, error) {
	var out []*Event
	for {
		e, err := s.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
}
