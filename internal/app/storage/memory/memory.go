package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/R3E-Network/neostream/internal/app/domain/stream"
	"github.com/R3E-Network/neostream/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use: one lock serializes mutations against reads, and every
// returned Stream is a copy so callers never alias stored state.
type Store struct {
	mu      sync.RWMutex
	streams map[string]stream.Stream
	order   []string
}

var _ storage.StreamStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		streams: make(map[string]stream.Stream),
	}
}

// CreateStream stores a new stream. A fresh id is assigned when the caller
// left it empty, CreatedAt is stamped, and a zero StartAt resolves to the
// same creation instant so a defaulted stream begins releasing immediately.
// EndAt is always recomputed from StartAt and DurationSeconds.
func (s *Store) CreateStream(_ context.Context, st stream.Stream) (stream.Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.ID == "" {
		st.ID = uuid.NewString()
	} else if _, exists := s.streams[st.ID]; exists {
		return stream.Stream{}, fmt.Errorf("stream %s already exists", st.ID)
	}

	now := time.Now().UTC()
	st.CreatedAt = now
	if st.StartAt.IsZero() {
		st.StartAt = now
	}
	st.EndAt = st.StartAt.Add(time.Duration(st.DurationSeconds) * time.Second)
	st.Status = stream.StatusScheduled
	st.CanceledAt = nil

	s.streams[st.ID] = st
	s.order = append(s.order, st.ID)
	return cloneStream(st), nil
}

// GetStream returns the stream with the given id.
func (s *Store) GetStream(_ context.Context, id string) (stream.Stream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.streams[id]
	if !ok {
		return stream.Stream{}, fmt.Errorf("stream %s: %w", id, storage.ErrStreamNotFound)
	}
	return cloneStream(st), nil
}

// ListStreams returns all streams in insertion order.
func (s *Store) ListStreams(_ context.Context) ([]stream.Stream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]stream.Stream, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, cloneStream(s.streams[id]))
	}
	return result, nil
}

// CancelStream marks a stream canceled at the current instant. Canceling an
// already canceled stream is a no-op returning the stream with its original
// cancellation timestamp intact.
func (s *Store) CancelStream(_ context.Context, id string) (stream.Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.streams[id]
	if !ok {
		return stream.Stream{}, fmt.Errorf("stream %s: %w", id, storage.ErrStreamNotFound)
	}
	if st.Status == stream.StatusCanceled {
		return cloneStream(st), nil
	}

	now := time.Now().UTC()
	st.Status = stream.StatusCanceled
	st.CanceledAt = &now

	s.streams[id] = st
	return cloneStream(st), nil
}

func cloneStream(st stream.Stream) stream.Stream {
	if st.CanceledAt != nil {
		at := *st.CanceledAt
		st.CanceledAt = &at
	}
	return st
}
