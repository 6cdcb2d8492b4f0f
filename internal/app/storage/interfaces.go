package storage

import (
	"context"
	"errors"

	"github.com/R3E-Network/neostream/internal/app/domain/stream"
)

// ErrStreamNotFound signals a lookup or cancel against an unknown stream id.
// Implementations wrap it so callers can match with errors.Is.
var ErrStreamNotFound = errors.New("stream not found")

// StreamStore persists payment streams and owns their lifecycle transitions.
// Create and cancel are the only mutations; the time-driven lifecycle phases
// are never written back, they are derived on read.
type StreamStore interface {
	CreateStream(ctx context.Context, s stream.Stream) (stream.Stream, error)
	GetStream(ctx context.Context, id string) (stream.Stream, error)
	ListStreams(ctx context.Context) ([]stream.Stream, error)
	CancelStream(ctx context.Context, id string) (stream.Stream, error)
}
