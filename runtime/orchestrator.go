// Package runtime handles the live side of the system: who is connected, which topics they listen to,
// and the supervised workers moving events to them. It holds no business rule and persists nothing.
package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain/event"
	"chat-hub/runtime/workers"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type Orchestrator struct {
	mu         sync.Mutex
	log        *slog.Logger
	supervisor contract.ISupervisor
	registry   contract.IRegistry
	bus        *LocalBus
	publisher  contract.Publisher
	workers    []contract.Worker
}

// NewOrchestrator wires a local fan-out: events published are delivered to the sessions of this process.
func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, registry contract.IRegistry,
	bus *LocalBus, sinkTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		log:        log,
		supervisor: supervisor,
		registry:   registry,
		bus:        bus,
		publisher:  bus,
		workers:    []contract.Worker{workers.NewEventFanoutWorker(log, registry, bus.Events(), sinkTimeout)},
	}
}

// WithRedis routes publications through redis so that every node sharing the redis server
// delivers them to its own sessions.
func (o *Orchestrator) WithRedis(client *redis.Client, publishTimeout time.Duration) *Orchestrator {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.publisher = NewRedisBus(client, o.log, publishTimeout)
	o.workers = append(o.workers, workers.NewRedisRelay(client, ChannelPrefix, o.bus, o.log))
	return o
}

// Publisher is what the services publish to.
func (o *Orchestrator) Publisher() contract.Publisher {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.publisher
}

func (o *Orchestrator) RegisterSession(sessionID string, topic event.Topic, sink contract.EventSink) {
	o.registry.Subscribe(sessionID, topic, sink)
}

func (o *Orchestrator) UnregisterTopic(sessionID string, topic event.Topic) {
	o.registry.Unsubscribe(sessionID, topic)
}

// UnregisterSession disconnects a session from every topic.
func (o *Orchestrator) UnregisterSession(sessionID string) {
	o.registry.UnsubscribeAll(sessionID)
}

// Start runs the fan-out workers under the supervisor and blocks until ctx is canceled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	o.supervisor.Add(o.workers...)
	o.mu.Unlock()

	o.log.Info("Starting fan-out workers", "count", len(o.workers))
	o.supervisor.Run(ctx)
}

func (o *Orchestrator) Stop() {
	o.log.Info("Requesting fan-out shutdown")
	o.supervisor.Stop()
}
