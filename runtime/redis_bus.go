package runtime

import (
	"chat-hub/domain/event"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChannelPrefix namespaces the redis pub/sub channels, one channel per topic.
const ChannelPrefix = "chat-hub:"

// RedisBus publishes events to every gateway node through redis pub/sub.
// Each node runs a RedisRelay worker that hands received events to its LocalBus.
// Redis pub/sub keeps no history: a node that is down misses the events.
type RedisBus struct {
	client         *redis.Client
	log            *slog.Logger
	publishTimeout time.Duration
}

func NewRedisBus(client *redis.Client, log *slog.Logger, publishTimeout time.Duration) *RedisBus {
	return &RedisBus{client: client, log: log, publishTimeout: publishTimeout}
}

func (b *RedisBus) Publish(ctx context.Context, evt event.DomainEvent) error {
	data, err := event.Encode(evt)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", evt.Kind(), err)
	}
	ctx, cancel := context.WithTimeout(ctx, b.publishTimeout)
	defer cancel()
	return b.client.Publish(ctx, ChannelPrefix+string(evt.Topic()), data).Err()
}
