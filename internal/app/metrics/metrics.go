package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "neostream",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neostream",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "neostream",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	streamsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "neostream",
			Subsystem: "streams",
			Name:      "created_total",
			Help:      "Total number of streams created.",
		},
	)

	streamsCanceled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "neostream",
			Subsystem: "streams",
			Name:      "canceled_total",
			Help:      "Total number of streams canceled.",
		},
	)

	eventPublishes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neostream",
			Subsystem: "events",
			Name:      "publishes_total",
			Help:      "Total number of lifecycle event publish attempts.",
		},
		[]string{"type", "outcome"},
	)

	openStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "neostream",
			Subsystem: "streams",
			Name:      "open",
			Help:      "Streams currently scheduled or actively releasing.",
		},
	)

	committedAmount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "neostream",
			Subsystem: "streams",
			Name:      "committed_amount",
			Help:      "Sum of total amounts across all streams.",
		},
	)

	releasedAmount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "neostream",
			Subsystem: "streams",
			Name:      "released_amount",
			Help:      "Sum of released amounts across all streams.",
		},
	)

	remainingAmount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "neostream",
			Subsystem: "streams",
			Name:      "remaining_amount",
			Help:      "Sum of remaining amounts across all streams.",
		},
	)

	watchSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "neostream",
			Subsystem: "watch",
			Name:      "active_sessions",
			Help:      "Currently connected progress watch sessions.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		streamsCreated,
		streamsCanceled,
		eventPublishes,
		openStreams,
		committedAmount,
		releasedAmount,
		remainingAmount,
		watchSessions,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one handled request. Path should be the route
// template, not the raw URL, to keep label cardinality bounded.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncInFlight marks a request as started.
func IncInFlight() { httpInFlight.Inc() }

// DecInFlight marks a request as finished.
func DecInFlight() { httpInFlight.Dec() }

// RecordStreamCreated counts a successful stream creation.
func RecordStreamCreated() { streamsCreated.Inc() }

// RecordStreamCanceled counts a stream transitioning to canceled.
func RecordStreamCanceled() { streamsCanceled.Inc() }

// RecordEventPublish counts one publish attempt per sink.
func RecordEventPublish(eventType string, success bool) {
	outcome := "error"
	if success {
		outcome = "ok"
	}
	eventPublishes.WithLabelValues(eventType, outcome).Inc()
}

// SetPortfolio refreshes the aggregate stream gauges from a stats snapshot.
func SetPortfolio(open int, committed, released, remaining float64) {
	openStreams.Set(float64(open))
	committedAmount.Set(committed)
	releasedAmount.Set(released)
	remainingAmount.Set(remaining)
}

// WatchSessionStarted marks a progress watch connection as open.
func WatchSessionStarted() { watchSessions.Inc() }

// WatchSessionEnded marks a progress watch connection as closed.
func WatchSessionEnded() { watchSessions.Dec() }
