package streams

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/R3E-Network/neostream/internal/app/domain/stream"
	"github.com/R3E-Network/neostream/internal/app/events"
	"github.com/R3E-Network/neostream/internal/app/metrics"
	"github.com/R3E-Network/neostream/internal/app/storage"
	"github.com/R3E-Network/neostream/pkg/logger"
)

// StreamWithProgress pairs a stored stream with its derived accounting at a
// single evaluation instant. Status on the embedded stream is the effective
// status at that instant.
type StreamWithProgress struct {
	stream.Stream
	Progress stream.Progress
}

// Filter narrows List results. Zero values match everything; Status matches
// against the effective status, not the stored one.
type Filter struct {
	Status    stream.Status
	Sender    string
	Recipient string
}

func (f Filter) matches(item StreamWithProgress) bool {
	if f.Status != "" && item.Status != f.Status {
		return false
	}
	if f.Sender != "" && item.Sender != f.Sender {
		return false
	}
	if f.Recipient != "" && item.Recipient != f.Recipient {
		return false
	}
	return true
}

// Stats aggregates counts and amounts across every stored stream at one
// evaluation instant.
type Stats struct {
	TotalStreams   int
	Scheduled      int
	Active         int
	Completed      int
	Canceled       int
	TotalCommitted float64
	TotalReleased  float64
	TotalRemaining float64
	GeneratedAt    time.Time
}

// Service manages payment stream commitments and their derived progress.
type Service struct {
	store storage.StreamStore
	log   *logger.Logger

	mu   sync.Mutex
	pubs []events.Publisher
}

// New constructs a stream service.
func New(store storage.StreamStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("streams")
	}
	return &Service{
		store: store,
		log:   log,
	}
}

// AttachPublisher registers a lifecycle event sink. Publishers attached after
// requests start flowing only see subsequent events.
func (s *Service) AttachPublisher(p events.Publisher) {
	if p == nil {
		return
	}
	s.mu.Lock()
	s.pubs = append(s.pubs, p)
	s.mu.Unlock()
}

// Create validates and stores a new stream. A zero startAt schedules the
// stream from its creation instant.
func (s *Service) Create(ctx context.Context, sender, recipient, assetCode string, totalAmount float64, durationSeconds int64, startAt time.Time) (StreamWithProgress, error) {
	sender = strings.TrimSpace(sender)
	recipient = strings.TrimSpace(recipient)
	assetCode = strings.ToUpper(strings.TrimSpace(assetCode))

	if sender == "" {
		return StreamWithProgress{}, fmt.Errorf("sender is required")
	}
	if recipient == "" {
		return StreamWithProgress{}, fmt.Errorf("recipient is required")
	}
	if assetCode == "" {
		return StreamWithProgress{}, fmt.Errorf("asset_code is required")
	}
	if totalAmount <= 0 {
		return StreamWithProgress{}, fmt.Errorf("total_amount must be positive")
	}
	if durationSeconds < stream.MinDurationSeconds {
		return StreamWithProgress{}, fmt.Errorf("duration_seconds must be at least %d", stream.MinDurationSeconds)
	}

	st := stream.Stream{
		Sender:          sender,
		Recipient:       recipient,
		AssetCode:       assetCode,
		TotalAmount:     totalAmount,
		DurationSeconds: durationSeconds,
		StartAt:         startAt.UTC(),
	}

	created, err := s.store.CreateStream(ctx, st)
	if err != nil {
		return StreamWithProgress{}, err
	}

	out := s.annotate(created, time.Now().UTC())

	s.log.WithField("stream_id", created.ID).
		WithField("sender", sender).
		WithField("recipient", recipient).
		WithField("asset_code", assetCode).
		WithField("total_amount", totalAmount).
		Info("stream created")
	metrics.RecordStreamCreated()

	s.publish(events.TypeStreamCreated, created, out.Progress.ReleasedAmount, created.CreatedAt)
	return out, nil
}

// Get returns a stream annotated with progress at the current instant.
func (s *Service) Get(ctx context.Context, id string) (StreamWithProgress, error) {
	st, err := s.store.GetStream(ctx, id)
	if err != nil {
		return StreamWithProgress{}, err
	}
	return s.annotate(st, time.Now().UTC()), nil
}

// List returns streams in creation order, every entry annotated at the same
// evaluation instant so one response is internally consistent.
func (s *Service) List(ctx context.Context, f Filter) ([]StreamWithProgress, error) {
	stored, err := s.store.ListStreams(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	out := make([]StreamWithProgress, 0, len(stored))
	for _, st := range stored {
		item := s.annotate(st, now)
		if !f.matches(item) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// Cancel freezes a stream's released amount at the current instant. Canceling
// an already canceled stream returns it unchanged and emits nothing.
func (s *Service) Cancel(ctx context.Context, id string) (StreamWithProgress, error) {
	existing, err := s.store.GetStream(ctx, id)
	if err != nil {
		return StreamWithProgress{}, err
	}
	wasCanceled := existing.Status == stream.StatusCanceled

	canceled, err := s.store.CancelStream(ctx, id)
	if err != nil {
		return StreamWithProgress{}, err
	}

	out := s.annotate(canceled, time.Now().UTC())
	if wasCanceled {
		s.log.WithField("stream_id", canceled.ID).Debug("cancel ignored, stream already canceled")
		return out, nil
	}

	s.log.WithField("stream_id", canceled.ID).
		WithField("released", out.Progress.ReleasedAmount).
		Info("stream canceled")
	metrics.RecordStreamCanceled()

	s.publish(events.TypeStreamCanceled, canceled, out.Progress.ReleasedAmount, *canceled.CanceledAt)
	return out, nil
}

// Stats aggregates stream counts and amounts at the current instant.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	stored, err := s.store.ListStreams(ctx)
	if err != nil {
		return Stats{}, err
	}

	now := time.Now().UTC()
	stats := Stats{GeneratedAt: now}
	for _, st := range stored {
		pr := st.ProgressAt(now)
		stats.TotalStreams++
		switch pr.EffectiveStatus {
		case stream.StatusScheduled:
			stats.Scheduled++
		case stream.StatusActive:
			stats.Active++
		case stream.StatusCompleted:
			stats.Completed++
		case stream.StatusCanceled:
			stats.Canceled++
		}
		stats.TotalCommitted += st.TotalAmount
		stats.TotalReleased += pr.ReleasedAmount
		stats.TotalRemaining += pr.RemainingAmount
	}
	return stats, nil
}

// Close releases every attached publisher.
func (s *Service) Close() error {
	s.mu.Lock()
	pubs := s.pubs
	s.pubs = nil
	s.mu.Unlock()

	for _, p := range pubs {
		if err := p.Close(); err != nil {
			s.log.WithError(err).Warn("publisher close failed")
		}
	}
	return nil
}

func (s *Service) annotate(st stream.Stream, now time.Time) StreamWithProgress {
	pr := st.ProgressAt(now)
	st.Status = pr.EffectiveStatus
	return StreamWithProgress{Stream: st, Progress: pr}
}

// publish fans the event out asynchronously so request latency never depends
// on sink availability.
func (s *Service) publish(eventType string, st stream.Stream, released float64, at time.Time) {
	s.mu.Lock()
	pubs := make([]events.Publisher, len(s.pubs))
	copy(pubs, s.pubs)
	s.mu.Unlock()
	if len(pubs) == 0 {
		return
	}

	evt := events.NewEvent(eventType, st, released, at)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, p := range pubs {
			err := p.Publish(ctx, evt)
			metrics.RecordEventPublish(evt.Type, err == nil)
			if err != nil {
				s.log.WithError(err).
					WithField("type", evt.Type).
					WithField("stream_id", evt.StreamID).
					Warn("event publish failed")
			}
		}
	}()
}
