//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives events for one live subscriber. Implementations must not block:
// a sink that cannot accept an event drops it.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

type IRegistry interface {
	GetSinksForTopic(topic event.Topic) []EventSink
	Subscribe(sessionID string, topic event.Topic, sink EventSink)
	Unsubscribe(sessionID string, topic event.Topic)
	UnsubscribeAll(sessionID string)
}

// Publisher is the write side of the fan-out bus.
// Publish never blocks on subscribers and never persists anything.
type Publisher interface {
	Publish(ctx context.Context, evt event.DomainEvent) error
}

// IdentityDirectory is the read-only user lookup owned by the account system.
type IdentityDirectory interface {
	FindByID(ctx context.Context, id domain.UserID) (domain.UserRef, error)
	FindByUsername(ctx context.Context, username string) (domain.UserRef, error)
	Search(ctx context.Context, query string, excludeID domain.UserID) ([]domain.UserRef, error)
}

// AttachmentStorage keeps attachment bytes and returns an opaque token for them.
type AttachmentStorage interface {
	Store(ctx context.Context, data []byte, fileName, subdir string) (domain.StoredFile, error)
	Delete(ctx context.Context, token string) error
}
