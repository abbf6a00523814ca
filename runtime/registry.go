package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain/event"
	"sync"
)

type Set map[string]struct{}

// Registry maps live sessions to the topics they listen to.
// It only knows connections: who may subscribe to what is decided before Subscribe is called.
type Registry struct {
	mu            sync.RWMutex
	Sessions      map[string]contract.EventSink // map session -> Sink
	TopicMembers  map[event.Topic]Set           // map topic to sessions
	sessionTopics map[string]map[event.Topic]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		Sessions:      make(map[string]contract.EventSink),
		TopicMembers:  make(map[event.Topic]Set),
		sessionTopics: make(map[string]map[event.Topic]struct{}),
	}
}

// GetSinksForTopic retrieves all active sinks listening to a topic.
// It performs a two-step lookup:
// 1. Identifies session IDs associated with the topic via TopicMembers.
// 2. Resolves those IDs into actual EventSinks using the Sessions map.
//
// A session listening to several topics keeps a single sink.
// Returns nil if nobody listens to the topic.
func (r *Registry) GetSinksForTopic(topic event.Topic) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.TopicMembers[topic]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for sessionID := range members {
		if sink, exists := r.Sessions[sessionID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// Subscribe registers the session's sink and adds the session to the topic.
// If the topic does not yet exist in the registry, it is initialized on the fly.
func (r *Registry) Subscribe(sessionID string, topic event.Topic, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Sessions[sessionID] = sink

	if _, ok := r.TopicMembers[topic]; !ok {
		r.TopicMembers[topic] = make(Set)
	}
	r.TopicMembers[topic][sessionID] = struct{}{}

	if _, ok := r.sessionTopics[sessionID]; !ok {
		r.sessionTopics[sessionID] = make(map[event.Topic]struct{})
	}
	r.sessionTopics[sessionID][topic] = struct{}{}
}

// Unsubscribe removes the session from one topic. The session stays registered
// for its other topics.
func (r *Registry) Unsubscribe(sessionID string, topic event.Topic) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leave(sessionID, topic)
	if len(r.sessionTopics[sessionID]) == 0 {
		delete(r.sessionTopics, sessionID)
		delete(r.Sessions, sessionID)
	}
}

// UnsubscribeAll forgets the session entirely, typically on disconnect.
func (r *Registry) UnsubscribeAll(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for topic := range r.sessionTopics[sessionID] {
		r.leave(sessionID, topic)
	}
	delete(r.sessionTopics, sessionID)
	delete(r.Sessions, sessionID)
}

func (r *Registry) leave(sessionID string, topic event.Topic) {
	if topics, ok := r.sessionTopics[sessionID]; ok {
		delete(topics, topic)
	}
	if members, ok := r.TopicMembers[topic]; ok {
		delete(members, sessionID)

		// If no one is left on the topic, remove the entry entirely
		if len(members) == 0 {
			delete(r.TopicMembers, topic)
		}
	}
}
