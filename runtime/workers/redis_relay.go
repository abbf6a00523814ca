package workers

import (
	"chat-hub/contract"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisRelay forwards the events published on redis by any node to the local fan-out.
type RedisRelay struct {
	client  *redis.Client
	pattern string
	local   contract.Publisher
	log     *slog.Logger
}

func NewRedisRelay(client *redis.Client, channelPrefix string, local contract.Publisher, log *slog.Logger) *RedisRelay {
	return &RedisRelay{client: client, pattern: channelPrefix + "*", local: local, log: log}
}

func (w RedisRelay) Run(ctx context.Context) error {
	pubsub := w.client.PSubscribe(ctx, w.pattern)
	defer func() { _ = pubsub.Close() }()

	// Wait for the subscription to be confirmed, so a broken redis makes the supervisor restart us
	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping redis relay")
			return nil
		case msg, ok := <-messages:
			if !ok {
				return errors.ErrSubscriptionClosed
			}
			evt, err := event.Decode([]byte(msg.Payload))
			if err != nil {
				w.log.Warn("Dropping undecodable event", "channel", msg.Channel, "error", err)
				continue
			}
			if err := w.local.Publish(ctx, evt); err != nil {
				w.log.Debug("Relayed event lost", "topic", evt.Topic(), "error", err)
			}
		}
	}
}
