package stream

import "time"

// Progress is the point-in-time accounting view of a stream: how much has
// been released as of a given instant and which lifecycle phase that instant
// falls in.
type Progress struct {
	ReleasedAmount   float64
	RemainingAmount  float64
	FractionComplete float64
	EffectiveStatus  Status
}

// ProgressAt computes the stream's progress at the given instant without
// mutating the stream. A canceled stream is always evaluated at its
// cancellation instant, so its result never changes again. RemainingAmount
// is the exact complement of ReleasedAmount so the two always sum to
// TotalAmount.
func (s Stream) ProgressAt(now time.Time) Progress {
	canceled := s.Status == StatusCanceled
	at := now
	if canceled && s.CanceledAt != nil {
		at = *s.CanceledAt
	}

	fraction := linearFraction(s.StartAt, s.EndAt, at)

	var status Status
	switch {
	case canceled:
		status = StatusCanceled
	case at.Before(s.StartAt):
		status = StatusScheduled
	case !at.Before(s.EndAt):
		status = StatusCompleted
	default:
		status = StatusActive
	}

	released := s.TotalAmount * fraction
	switch {
	case released < 0:
		released = 0
	case released > s.TotalAmount:
		released = s.TotalAmount
	}

	return Progress{
		ReleasedAmount:   released,
		RemainingAmount:  s.TotalAmount - released,
		FractionComplete: fraction,
		EffectiveStatus:  status,
	}
}

// linearFraction maps an instant onto [0, 1] within the release window. The
// clamping also covers instants outside the window, so callers never see a
// fraction below zero or above one. A window that is not strictly positive
// reports as fully released.
func linearFraction(start, end, at time.Time) float64 {
	window := end.Sub(start)
	if window <= 0 {
		return 1
	}
	elapsed := at.Sub(start)
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= window {
		return 1
	}
	return float64(elapsed) / float64(window)
}
