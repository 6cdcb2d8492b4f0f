package streams

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/R3E-Network/neostream/internal/app/metrics"
	"github.com/R3E-Network/neostream/internal/app/system"
	"github.com/R3E-Network/neostream/pkg/logger"
)

var _ system.Service = (*Reporter)(nil)

// DefaultReportSchedule emits a portfolio summary once a minute.
const DefaultReportSchedule = "@every 1m"

// Reporter periodically aggregates portfolio stats, refreshes the stream
// gauges, and logs a summary line operators can watch.
type Reporter struct {
	service  *Service
	log      *logger.Logger
	schedule string

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewReporter creates a lifecycle-managed stats reporter. An empty schedule
// falls back to DefaultReportSchedule; anything the cron parser accepts works,
// including @every durations.
func NewReporter(service *Service, schedule string, log *logger.Logger) *Reporter {
	if log == nil {
		log = logger.NewDefault("streams-reporter")
	}
	if schedule == "" {
		schedule = DefaultReportSchedule
	}
	return &Reporter{
		service:  service,
		log:      log,
		schedule: schedule,
	}
}

func (r *Reporter) Name() string { return "streams-reporter" }

func (r *Reporter) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(r.schedule, r.report); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("invalid report schedule %q: %w", r.schedule, err)
	}
	r.cron = c
	r.running = true
	r.mu.Unlock()

	c.Start()
	r.log.WithField("schedule", r.schedule).Info("stream reporter started")
	return nil
}

func (r *Reporter) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	c := r.cron
	r.running = false
	r.cron = nil
	r.mu.Unlock()

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	r.log.Info("stream reporter stopped")
	return nil
}

func (r *Reporter) report() {
	if r.service == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := r.service.Stats(ctx)
	if err != nil {
		r.log.WithError(err).Warn("stream stats report failed")
		return
	}

	metrics.SetPortfolio(stats.Scheduled+stats.Active, stats.TotalCommitted, stats.TotalReleased, stats.TotalRemaining)

	r.log.WithField("total", stats.TotalStreams).
		WithField("scheduled", stats.Scheduled).
		WithField("active", stats.Active).
		WithField("completed", stats.Completed).
		WithField("canceled", stats.Canceled).
		WithField("released", stats.TotalReleased).
		WithField("remaining", stats.TotalRemaining).
		Info("stream portfolio report")
}
