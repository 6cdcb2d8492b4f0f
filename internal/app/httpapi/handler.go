// Package httpapi assembles the REST and websocket surface of the stream
// service, including the middleware chain around it.
package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	app "github.com/R3E-Network/neostream/internal/app"
	"github.com/R3E-Network/neostream/internal/app/metrics"
	"github.com/R3E-Network/neostream/internal/app/services/streams"
	"github.com/R3E-Network/neostream/internal/app/storage"
	"github.com/R3E-Network/neostream/internal/httputil"
	"github.com/R3E-Network/neostream/internal/middleware"
	"github.com/R3E-Network/neostream/pkg/logger"
)

// Options configures the handler assembly. The zero value serves an open,
// unthrottled API with in-memory auditing only.
type Options struct {
	Log                  *logger.Logger
	Auth                 middleware.AuthConfig
	RateLimitRPS         float64
	RateLimitBurst       int
	CORSOrigins          []string
	AllowedAssets        []string
	ValidateNeoAddresses bool
	AuditMax             int
	AuditFile            string
	WatchInterval        time.Duration
	Version              string
}

// handler bundles the HTTP endpoints for the application services.
type handler struct {
	app        *app.Application
	log        *logger.Logger
	audit      *auditLog
	validate   *requestValidator
	watchEvery time.Duration
	version    string
}

// NewHandler returns the fully assembled HTTP API.
func NewHandler(application *app.Application, opts Options) (http.Handler, error) {
	log := opts.Log
	if log == nil {
		log = logger.NewDefault("httpapi")
	}

	sink, err := newFileAuditSink(opts.AuditFile)
	if err != nil {
		return nil, fmt.Errorf("open audit sink: %w", err)
	}

	version := opts.Version
	if version == "" {
		version = "dev"
	}

	watchEvery := opts.WatchInterval
	if watchEvery <= 0 {
		watchEvery = defaultWatchInterval
	}

	h := &handler{
		app:        application,
		log:        log,
		audit:      newAuditLog(opts.AuditMax, sink),
		validate:   newRequestValidator(opts.AllowedAssets, opts.ValidateNeoAddresses),
		watchEvery: watchEvery,
		version:    version,
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", h.readyz).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/streams", h.createStream).Methods(http.MethodPost)
	v1.HandleFunc("/streams", h.listStreams).Methods(http.MethodGet)
	v1.HandleFunc("/streams/{id}", h.getStream).Methods(http.MethodGet)
	v1.HandleFunc("/streams/{id}", h.cancelStream).Methods(http.MethodDelete)
	v1.HandleFunc("/streams/{id}/watch", h.watchStream).Methods(http.MethodGet)
	v1.HandleFunc("/stats", h.stats).Methods(http.MethodGet)
	v1.HandleFunc("/audit", h.auditEntries).Methods(http.MethodGet)

	r.Use(middleware.MetricsMiddleware())
	r.Use(h.auditMiddleware)

	// Lifecycle endpoints stay reachable without credentials.
	authCfg := opts.Auth
	authCfg.SkipPaths = append(authCfg.SkipPaths, "/healthz", "/readyz", "/metrics")
	auth := middleware.NewAuthMiddleware(authCfg, log)

	// Outermost first: tracing wraps everything, auth runs last before routing.
	var out http.Handler = r
	out = auth.Handler(out)
	if opts.RateLimitRPS > 0 {
		out = middleware.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst, log).Handler(out)
	}
	out = middleware.NewCORSMiddleware(opts.CORSOrigins).Handler(out)
	out = middleware.TracingMiddleware(log)(out)
	return out, nil
}

func (h *handler) createStream(w http.ResponseWriter, r *http.Request) {
	var payload createStreamRequest
	if !httputil.DecodeJSON(w, r, &payload) {
		return
	}

	startAt, err := h.validate.createRequest(&payload)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	out, err := h.app.Streams.Create(r.Context(), payload.Sender, payload.Recipient, payload.AssetCode,
		payload.TotalAmount, payload.DurationSeconds, startAt)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toStreamDTO(out))
}

func (h *handler) listStreams(w http.ResponseWriter, r *http.Request) {
	filter, err := h.validate.listFilter(r.URL.Query())
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	items, err := h.app.Streams.List(r.Context(), filter)
	if err != nil {
		httputil.InternalError(w, "failed to list streams")
		return
	}

	dtos := make([]streamDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, toStreamDTO(item))
	}
	httputil.WriteJSON(w, http.StatusOK, listStreamsResponse{Streams: dtos, Count: len(dtos)})
}

func (h *handler) getStream(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	out, err := h.app.Streams.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrStreamNotFound) {
			httputil.NotFound(w, "stream not found")
			return
		}
		httputil.InternalError(w, "failed to load stream")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toStreamDTO(out))
}

func (h *handler) cancelStream(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	out, err := h.app.Streams.Cancel(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrStreamNotFound) {
			httputil.NotFound(w, "stream not found")
			return
		}
		httputil.InternalError(w, "failed to cancel stream")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toStreamDTO(out))
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.app.Streams.Stats(r.Context())
	if err != nil {
		httputil.InternalError(w, "failed to compute stats")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatsDTO(stats))
}

func (h *handler) auditEntries(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.BadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	entries := h.audit.listLimit(limit)
	httputil.WriteJSON(w, http.StatusOK, auditResponse{Entries: entries, Count: len(entries)})
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Service:   "neostream",
		Version:   h.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) readyz(w http.ResponseWriter, r *http.Request) {
	if _, err := h.app.Streams.Stats(r.Context()); err != nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "store not ready")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, healthResponse{
		Status:    "ready",
		Service:   "neostream",
		Version:   h.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// =============================================================================
// Response Types
// =============================================================================

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

type streamDTO struct {
	ID               string     `json:"id"`
	Sender           string     `json:"sender"`
	Recipient        string     `json:"recipient"`
	AssetCode        string     `json:"asset_code"`
	TotalAmount      float64    `json:"total_amount"`
	DurationSeconds  int64      `json:"duration_seconds"`
	StartAt          time.Time  `json:"start_at"`
	EndAt            time.Time  `json:"end_at"`
	Status           string     `json:"status"`
	CanceledAt       *time.Time `json:"canceled_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	ReleasedAmount   float64    `json:"released_amount"`
	RemainingAmount  float64    `json:"remaining_amount"`
	FractionComplete float64    `json:"fraction_complete"`
}

type listStreamsResponse struct {
	Streams []streamDTO `json:"streams"`
	Count   int         `json:"count"`
}

type statsDTO struct {
	TotalStreams   int       `json:"total_streams"`
	Scheduled      int       `json:"scheduled"`
	Active         int       `json:"active"`
	Completed      int       `json:"completed"`
	Canceled       int       `json:"canceled"`
	TotalCommitted float64   `json:"total_committed"`
	TotalReleased  float64   `json:"total_released"`
	TotalRemaining float64   `json:"total_remaining"`
	GeneratedAt    time.Time `json:"generated_at"`
}

type auditResponse struct {
	Entries []auditEntry `json:"entries"`
	Count   int          `json:"count"`
}

func toStreamDTO(sp streams.StreamWithProgress) streamDTO {
	return streamDTO{
		ID:               sp.ID,
		Sender:           sp.Sender,
		Recipient:        sp.Recipient,
		AssetCode:        sp.AssetCode,
		TotalAmount:      sp.TotalAmount,
		DurationSeconds:  sp.DurationSeconds,
		StartAt:          sp.StartAt,
		EndAt:            sp.EndAt,
		Status:           string(sp.Status),
		CanceledAt:       sp.CanceledAt,
		CreatedAt:        sp.CreatedAt,
		ReleasedAmount:   sp.Progress.ReleasedAmount,
		RemainingAmount:  sp.Progress.RemainingAmount,
		FractionComplete: sp.Progress.FractionComplete,
	}
}

func toStatsDTO(st streams.Stats) statsDTO {
	return statsDTO{
		TotalStreams:   st.TotalStreams,
		Scheduled:      st.Scheduled,
		Active:         st.Active,
		Completed:      st.Completed,
		Canceled:       st.Canceled,
		TotalCommitted: st.TotalCommitted,
		TotalReleased:  st.TotalReleased,
		TotalRemaining: st.TotalRemaining,
		GeneratedAt:    st.GeneratedAt,
	}
}
