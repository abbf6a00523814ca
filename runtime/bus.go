package runtime

import (
	"chat-hub/domain/event"
	"chat-hub/errors"
	"context"
	"log/slog"
)

// LocalBus is the in-process side of the fan-out: Publish only enqueues,
// the EventFanout worker drains the queue towards the registered sinks.
type LocalBus struct {
	events chan event.DomainEvent
	log    *slog.Logger
}

func NewLocalBus(log *slog.Logger, bufferSize int) *LocalBus {
	return &LocalBus{events: make(chan event.DomainEvent, bufferSize), log: log}
}

// Publish never waits for a slot: a full queue drops the event.
func (b *LocalBus) Publish(ctx context.Context, evt event.DomainEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case b.events <- evt:
		return nil
	default:
		b.log.Debug("Fan-out queue full, dropping event", "topic", evt.Topic(), "kind", evt.Kind())
		return errors.ErrBusFull
	}
}

// Events is the queue the fan-out worker reads from.
func (b *LocalBus) Events() <-chan event.DomainEvent { return b.events }
