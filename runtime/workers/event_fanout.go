package workers

import (
	"chat-hub/contract"
	"chat-hub/domain/event"
	"context"
	"log/slog"
	"sync"
	"time"
)

// EventFanoutWorker delivers domain events to the sinks currently listening to their topic.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// ordering across topics, durability, or retries. It is not a message broker:
// a slow sink is abandoned after sinkTimeout and the event is lost for it.
type EventFanoutWorker struct {
	log         *slog.Logger
	registry    contract.IRegistry
	events      <-chan event.DomainEvent
	sinkTimeout time.Duration
}

func NewEventFanoutWorker(log *slog.Logger, registry contract.IRegistry,
	events <-chan event.DomainEvent, sinkTimeout time.Duration) *EventFanoutWorker {
	return &EventFanoutWorker{log: log, registry: registry, events: events, sinkTimeout: sinkTimeout}
}

func (w EventFanoutWorker) Run(ctx context.Context) error {
	for {
		select {
		case evt, ok := <-w.events:
			if !ok {
				w.log.Debug("Event channel closed, stopping fan-out")
				return nil
			}
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fan-out")
			return nil
		}
	}
}

// Fanout hands the event to every sink of its topic, each one in its own goroutine
// and bounded by sinkTimeout. It returns once every sink returned or timed out.
func (w EventFanoutWorker) Fanout(ctx context.Context, evt event.DomainEvent) {
	sinks := w.registry.GetSinksForTopic(evt.Topic())
	var wg sync.WaitGroup
	for _, sink := range sinks {
		wg.Add(1)
		go func(sink contract.EventSink) {
			defer wg.Done()
			sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
			defer cancel()
			if err := sink.Consume(sinkCtx, evt); err != nil {
				w.log.Debug("Sink dropped event", "topic", evt.Topic(), "kind", evt.Kind(), "error", err)
			}
		}(sink)
	}
	wg.Wait()
}
