package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/R3E-Network/neostream/internal/app/domain/stream"
	"github.com/R3E-Network/neostream/internal/app/metrics"
	"github.com/R3E-Network/neostream/internal/app/storage"
	"github.com/R3E-Network/neostream/internal/httputil"
)

const (
	defaultWatchInterval = time.Second
	watchWriteWait       = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// watchStream upgrades the request and pushes a progress snapshot on every
// tick until the stream reaches a terminal status or the client goes away.
func (h *handler) watchStream(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	// Resolve before upgrading so a missing stream is a plain 404.
	if _, err := h.app.Streams.Get(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrStreamNotFound) {
			httputil.NotFound(w, "stream not found")
			return
		}
		httputil.InternalError(w, "failed to load stream")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	metrics.WatchSessionStarted()
	defer metrics.WatchSessionEnded()

	// Reads only serve to detect the client closing the connection.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.watchEvery)
	defer ticker.Stop()

	for {
		out, err := h.app.Streams.Get(r.Context(), id)
		if err != nil {
			return
		}

		conn.SetWriteDeadline(time.Now().Add(watchWriteWait))
		if err := conn.WriteJSON(toStreamDTO(out)); err != nil {
			return
		}

		if out.Status == stream.StatusCompleted || out.Status == stream.StatusCanceled {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(out.Status))
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(watchWriteWait))
			return
		}

		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}
