package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel events are published on.
const DefaultChannel = "veilpay.events"

// RedisEmitter publishes events as JSON on a Redis pub/sub channel so
// external listeners can consume the coordinator's event stream.
type RedisEmitter struct {
	client  *redis.Client
	channel string
}

// NewRedisEmitter constructs a Redis-backed emitter. An empty channel falls
// back to DefaultChannel.
func NewRedisEmitter(client *redis.Client, channel string) *RedisEmitter {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisEmitter{client: client, channel: channel}
}

// Emit publishes the event. Delivery is fire-and-forget; listeners that are
// not subscribed at publish time miss the event.
func (e *RedisEmitter) Emit(ctx context.Context, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return e.client.Publish(ctx, e.channel, payload).Err()
}
