package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/R3E-Network/neostream/pkg/logger"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "neostream.events"

// RedisPublisher fans events out on a Redis pub/sub channel. Subscribers that
// are offline miss events; the stream store remains the source of truth.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	log     *logger.Logger
}

var _ Publisher = (*RedisPublisher)(nil)

// NewRedisPublisher connects to Redis and verifies the connection before
// returning a publisher.
func NewRedisPublisher(addr, password string, db int, channel string, log *logger.Logger) (*RedisPublisher, error) {
	if log == nil {
		log = logger.NewDefault("events")
	}
	if channel == "" {
		channel = DefaultChannel
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}

	return &RedisPublisher{
		client:  client,
		channel: channel,
		log:     log,
	}, nil
}

// Publish sends the event as JSON on the configured channel.
func (p *RedisPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}
	p.log.WithField("type", evt.Type).
		WithField("stream_id", evt.StreamID).
		Debugf("event published to %s", p.channel)
	return nil
}

// Close releases the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
