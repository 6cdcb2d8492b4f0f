package events

import (
	"testing"
	"time"

	"github.com/R3E-Network/neostream/internal/app/domain/stream"
)

func testStream() stream.Stream {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return stream.Stream{
		ID:              "stream-1",
		Sender:          "alice",
		Recipient:       "bob",
		AssetCode:       "GAS",
		TotalAmount:     1000,
		DurationSeconds: 1000,
		StartAt:         start,
		EndAt:           start.Add(1000 * time.Second),
		Status:          stream.StatusScheduled,
		CreatedAt:       start,
	}
}

func TestNewEvent(t *testing.T) {
	st := testStream()
	at := time.Date(2025, 3, 1, 12, 5, 0, 0, time.FixedZone("CET", 3600))

	evt := NewEvent(TypeStreamCanceled, st, 300, at)

	if evt.ID == "" {
		t.Error("event ID should be assigned")
	}
	if evt.Type != TypeStreamCanceled {
		t.Errorf("Type = %s, want %s", evt.Type, TypeStreamCanceled)
	}
	if evt.StreamID != st.ID {
		t.Errorf("StreamID = %s, want %s", evt.StreamID, st.ID)
	}
	if evt.Sender != "alice" || evt.Recipient != "bob" || evt.AssetCode != "GAS" {
		t.Errorf("party fields not copied: %+v", evt)
	}
	if evt.TotalAmount != 1000 {
		t.Errorf("TotalAmount = %v, want 1000", evt.TotalAmount)
	}
	if evt.ReleasedAmount != 300 {
		t.Errorf("ReleasedAmount = %v, want 300", evt.ReleasedAmount)
	}
	if evt.OccurredAt.Location() != time.UTC {
		t.Errorf("OccurredAt should be normalized to UTC, got %v", evt.OccurredAt.Location())
	}
	if !evt.OccurredAt.Equal(at) {
		t.Errorf("OccurredAt = %v, want %v", evt.OccurredAt, at)
	}
}

func TestNewEventUniqueIDs(t *testing.T) {
	st := testStream()
	a := NewEvent(TypeStreamCreated, st, 0, time.Now())
	b := NewEvent(TypeStreamCreated, st, 0, time.Now())
	if a.ID == b.ID {
		t.Errorf("event IDs should be unique, both %s", a.ID)
	}
}
