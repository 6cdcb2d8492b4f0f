package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	app "github.com/R3E-Network/neostream/internal/app"
	"github.com/R3E-Network/neostream/internal/middleware"
)

const testAPIKey = "test-key"

func newTestHandler(t *testing.T, opts Options) (http.Handler, *app.Application) {
	t.Helper()

	application, err := app.New(app.Stores{}, nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	if err := application.Start(context.Background()); err != nil {
		t.Fatalf("start application: %v", err)
	}
	t.Cleanup(func() { _ = application.Stop(context.Background()) })

	handler, err := NewHandler(application, opts)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler, application
}

func TestHandlerLifecycle(t *testing.T) {
	handler, _ := newTestHandler(t, Options{
		Auth: authOpts(),
	})

	body := marshal(map[string]any{
		"sender":           "alice",
		"recipient":        "bob",
		"asset_code":       "gas",
		"total_amount":     1000.0,
		"duration_seconds": 3600,
	})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/v1/streams", body))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 create, got %d: %s", resp.Code, resp.Body.String())
	}
	created := decodeStream(t, resp.Body.Bytes())
	if created.ID == "" {
		t.Fatal("expected stream id")
	}
	if created.AssetCode != "GAS" {
		t.Fatalf("expected normalized asset code, got %q", created.AssetCode)
	}
	if created.Status != "active" {
		t.Fatalf("expected active stream, got %q", created.Status)
	}
	if created.ReleasedAmount > 1 {
		t.Fatalf("expected near-zero release right after create, got %f", created.ReleasedAmount)
	}

	futureBody := marshal(map[string]any{
		"sender":           "carol",
		"recipient":        "dave",
		"asset_code":       "NEO",
		"total_amount":     50.0,
		"duration_seconds": 600,
		"start_at":         time.Now().Add(time.Hour).Unix(),
	})
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/v1/streams", futureBody))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 scheduled create, got %d", resp.Code)
	}
	scheduled := decodeStream(t, resp.Body.Bytes())
	if scheduled.Status != "scheduled" {
		t.Fatalf("expected scheduled stream, got %q", scheduled.Status)
	}
	if scheduled.ReleasedAmount != 0 {
		t.Fatalf("scheduled stream should have released nothing, got %f", scheduled.ReleasedAmount)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/v1/streams", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 list, got %d", resp.Code)
	}
	var list listStreamsResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if list.Count != 2 || len(list.Streams) != 2 {
		t.Fatalf("expected 2 streams, got count=%d len=%d", list.Count, len(list.Streams))
	}
	if list.Streams[0].ID != created.ID {
		t.Fatalf("expected insertion order, got %q first", list.Streams[0].ID)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/v1/streams?status=scheduled", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 filtered list, got %d", resp.Code)
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal filtered list: %v", err)
	}
	if list.Count != 1 || list.Streams[0].ID != scheduled.ID {
		t.Fatalf("status filter mismatch: %+v", list)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/v1/streams?sender=alice", nil))
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal sender list: %v", err)
	}
	if list.Count != 1 || list.Streams[0].ID != created.ID {
		t.Fatalf("sender filter mismatch: %+v", list)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/v1/streams/"+created.ID, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 get, got %d", resp.Code)
	}
	if got := decodeStream(t, resp.Body.Bytes()); got.ID != created.ID {
		t.Fatalf("get returned wrong stream: %q", got.ID)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/v1/streams/does-not-exist", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodDelete, "/v1/streams/"+created.ID, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 cancel, got %d", resp.Code)
	}
	canceled := decodeStream(t, resp.Body.Bytes())
	if canceled.Status != "canceled" || canceled.CanceledAt == nil {
		t.Fatalf("expected canceled stream, got %+v", canceled)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodDelete, "/v1/streams/"+created.ID, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 repeat cancel, got %d", resp.Code)
	}
	repeat := decodeStream(t, resp.Body.Bytes())
	if repeat.CanceledAt == nil || !repeat.CanceledAt.Equal(*canceled.CanceledAt) {
		t.Fatalf("repeat cancel changed CanceledAt: %+v", repeat)
	}
	if repeat.ReleasedAmount != canceled.ReleasedAmount {
		t.Fatalf("repeat cancel changed frozen release: %f vs %f", repeat.ReleasedAmount, canceled.ReleasedAmount)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodDelete, "/v1/streams/does-not-exist", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 cancel unknown, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/v1/stats", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 stats, got %d", resp.Code)
	}
	var stats statsDTO
	if err := json.Unmarshal(resp.Body.Bytes(), &stats); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	if stats.TotalStreams != 2 || stats.Canceled != 1 || stats.Scheduled != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.TotalCommitted != 1050 {
		t.Fatalf("expected committed 1050, got %f", stats.TotalCommitted)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/v1/audit", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 audit, got %d", resp.Code)
	}
	var audit auditResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &audit); err != nil {
		t.Fatalf("unmarshal audit: %v", err)
	}
	if audit.Count == 0 {
		t.Fatal("expected audit entries for mutating calls")
	}
	for _, entry := range audit.Entries {
		if entry.Method == http.MethodGet {
			t.Fatalf("audit trail should only hold mutations, found %s %s", entry.Method, entry.Path)
		}
		if entry.User != "api-key" {
			t.Fatalf("expected authenticated user on audit entry, got %q", entry.User)
		}
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 health, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 ready, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 metrics, got %d", resp.Code)
	}
	if resp.Body.Len() == 0 {
		t.Fatal("expected metrics output to be non-empty")
	}
}

func TestHandlerAuthRequired(t *testing.T) {
	handler, _ := newTestHandler(t, Options{Auth: authOpts()})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/v1/streams", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/streams", nil)
	req.Header.Set("X-API-Key", "wrong-key")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad key, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("health should skip auth, got %d", resp.Code)
	}
}

func TestHandlerValidation(t *testing.T) {
	handler, _ := newTestHandler(t, Options{AllowedAssets: []string{"GAS", "NEO"}})

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing sender", map[string]any{
			"recipient": "bob", "asset_code": "GAS", "total_amount": 10.0, "duration_seconds": 60,
		}},
		{"missing recipient", map[string]any{
			"sender": "alice", "asset_code": "GAS", "total_amount": 10.0, "duration_seconds": 60,
		}},
		{"zero amount", map[string]any{
			"sender": "alice", "recipient": "bob", "asset_code": "GAS", "total_amount": 0.0, "duration_seconds": 60,
		}},
		{"negative amount", map[string]any{
			"sender": "alice", "recipient": "bob", "asset_code": "GAS", "total_amount": -5.0, "duration_seconds": 60,
		}},
		{"short duration", map[string]any{
			"sender": "alice", "recipient": "bob", "asset_code": "GAS", "total_amount": 10.0, "duration_seconds": 59,
		}},
		{"negative start_at", map[string]any{
			"sender": "alice", "recipient": "bob", "asset_code": "GAS", "total_amount": 10.0, "duration_seconds": 60,
			"start_at": -100,
		}},
		{"asset not allowed", map[string]any{
			"sender": "alice", "recipient": "bob", "asset_code": "DOGE", "total_amount": 10.0, "duration_seconds": 60,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/v1/streams", marshal(tt.body)))
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
			}
			var errBody map[string]string
			if err := json.Unmarshal(resp.Body.Bytes(), &errBody); err != nil {
				t.Fatalf("unmarshal error body: %v", err)
			}
			if errBody["error"] == "" {
				t.Fatal("expected error message in body")
			}
		})
	}

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/v1/streams", []byte("{not json")))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/v1/streams?status=bogus", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad status filter, got %d", resp.Code)
	}
}

func authOpts() middleware.AuthConfig {
	return middleware.AuthConfig{APIKeys: []string{testAPIKey}}
}

func authedRequest(method, url string, body []byte) *http.Request {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	req.Header.Set("X-API-Key", testAPIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func marshal(v any) []byte {
	buf, _ := json.Marshal(v)
	return buf
}

func decodeStream(t *testing.T, body []byte) streamDTO {
	t.Helper()
	var dto streamDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		t.Fatalf("unmarshal stream: %v", err)
	}
	return dto
}
