package stream

import "time"

// Status is the lifecycle phase of a payment stream. Only StatusCanceled is
// ever stored; the time-driven phases are derived on read.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// MinDurationSeconds is the shortest release window a stream may declare.
const MinDurationSeconds int64 = 60

// Valid reports whether s is one of the known lifecycle phases.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusActive, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// Stream is a commitment to release TotalAmount of an asset linearly to the
// recipient between StartAt and EndAt. All fields except Status and
// CanceledAt are immutable after creation.
type Stream struct {
	ID              string
	Sender          string
	Recipient       string
	AssetCode       string
	TotalAmount     float64
	DurationSeconds int64
	StartAt         time.Time
	EndAt           time.Time
	Status          Status
	CanceledAt      *time.Time
	CreatedAt       time.Time
}

// Window returns the length of the release window.
func (s Stream) Window() time.Duration {
	return s.EndAt.Sub(s.StartAt)
}
