package events

import (
	"context"
	"fmt"
	"time"

	"github.com/R3E-Network/neostream/internal/httputil"
	"github.com/R3E-Network/neostream/pkg/logger"
)

// WebhookPublisher POSTs each event as JSON to a configured endpoint.
// Delivery reuses the shared service client so retries and body limits match
// other outbound calls.
type WebhookPublisher struct {
	client *httputil.ServiceClient
	log    *logger.Logger
}

var _ Publisher = (*WebhookPublisher)(nil)

// NewWebhookPublisher creates a publisher for the given endpoint URL. The API
// key is optional and sent as X-API-Key when set.
func NewWebhookPublisher(endpoint, apiKey string, timeout time.Duration, log *logger.Logger) *WebhookPublisher {
	if log == nil {
		log = logger.NewDefault("events")
	}
	return &WebhookPublisher{
		client: httputil.NewServiceClient(httputil.ServiceClientConfig{
			BaseURL: endpoint,
			APIKey:  apiKey,
			Timeout: timeout,
		}),
		log: log,
	}
}

// Publish delivers the event to the webhook endpoint.
func (p *WebhookPublisher) Publish(ctx context.Context, evt Event) error {
	resp, err := p.client.Post(ctx, "", evt)
	if err != nil {
		return fmt.Errorf("deliver %s: %w", evt.Type, err)
	}
	if err := httputil.DecodeResponse(resp, nil); err != nil {
		return fmt.Errorf("deliver %s: %w", evt.Type, err)
	}
	p.log.WithField("type", evt.Type).
		WithField("stream_id", evt.StreamID).
		Debug("event delivered to webhook")
	return nil
}

// Close is a no-op; the underlying client holds no persistent connections.
func (p *WebhookPublisher) Close() error {
	return nil
}
