// Package events publishes stream lifecycle notifications so downstream
// settlement consumers can react to new commitments and cancellations.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/R3E-Network/neostream/internal/app/domain/stream"
)

const (
	TypeStreamCreated  = "stream.created"
	TypeStreamCanceled = "stream.canceled"
)

// Event is the payload delivered to every sink when a stream changes state.
// ReleasedAmount captures the accounting position at the transition instant;
// for cancellations that is the frozen released value.
type Event struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	StreamID       string    `json:"stream_id"`
	Sender         string    `json:"sender"`
	Recipient      string    `json:"recipient"`
	AssetCode      string    `json:"asset_code"`
	TotalAmount    float64   `json:"total_amount"`
	ReleasedAmount float64   `json:"released_amount"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// NewEvent builds an event for a stream snapshot.
func NewEvent(eventType string, st stream.Stream, released float64, at time.Time) Event {
	return Event{
		ID:             uuid.NewString(),
		Type:           eventType,
		StreamID:       st.ID,
		Sender:         st.Sender,
		Recipient:      st.Recipient,
		AssetCode:      st.AssetCode,
		TotalAmount:    st.TotalAmount,
		ReleasedAmount: released,
		OccurredAt:     at.UTC(),
	}
}

// Publisher delivers lifecycle events to an external sink. Implementations
// must be safe for concurrent use; delivery is best effort and callers treat
// errors as log-and-continue.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}
