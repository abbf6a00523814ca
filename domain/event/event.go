package event

import (
	"chat-hub/domain"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Topic is a fan-out address. Conversation topics are shared by every subscriber of the
// conversation, user topics are private to one user.
type Topic string

func ConversationTopic(id domain.ConversationID) Topic {
	return Topic(fmt.Sprintf("conversation/%d", id))
}

func TypingTopic(id domain.ConversationID) Topic {
	return Topic(fmt.Sprintf("conversation/%d/typing", id))
}

func UserErrorTopic(id domain.UserID) Topic {
	return Topic(fmt.Sprintf("user/%d/errors", id))
}

// IsPrivate reports whether the topic belongs to a single user.
func (t Topic) IsPrivate() bool { return strings.HasPrefix(string(t), "user/") }

type Kind string

const (
	KindMessage Kind = "MESSAGE"
	KindTyping  Kind = "TYPING"
	KindError   Kind = "ERROR"
)

// Action names the real-time request an ErrorEvent reports on.
type Action string

const (
	ActionSend      Action = "send message"
	ActionTyping    Action = "send typing indicator"
	ActionRead      Action = "mark message as read"
	ActionDelivered Action = "mark message as delivered"
)

type DomainEvent interface {
	Topic() Topic
	Kind() Kind
}

type MessageEvent struct {
	ID             domain.MessageID      `json:"id"`
	ConversationID domain.ConversationID `json:"conversationId"`
	SenderID       domain.UserID         `json:"senderId"`
	SenderUsername string                `json:"senderUsername"`
	Content        string                `json:"content"`
	Type           domain.MessageType    `json:"type"`
	SentAt         time.Time             `json:"sentAt"`
	Status         domain.MessageStatus  `json:"status"`
	IsEdited       bool                  `json:"isEdited,omitempty"`
	IsDeleted      bool                  `json:"isDeleted,omitempty"`
}

func (e MessageEvent) Topic() Topic { return ConversationTopic(e.ConversationID) }
func (e MessageEvent) Kind() Kind   { return KindMessage }

func NewMessageEvent(view domain.MessageView) MessageEvent {
	return MessageEvent{
		ID:             view.ID,
		ConversationID: view.ConversationID,
		SenderID:       view.SenderID,
		SenderUsername: view.SenderUsername,
		Content:        view.Content,
		Type:           view.Type,
		SentAt:         view.SentAt,
		Status:         view.Status,
		IsEdited:       view.IsEdited,
		IsDeleted:      view.IsDeleted,
	}
}

type TypingEvent struct {
	ConversationID domain.ConversationID `json:"conversationId"`
	SenderID       domain.UserID         `json:"senderId"`
	SenderUsername string                `json:"senderUsername"`
	IsTyping       bool                  `json:"isTyping"`
}

func (e TypingEvent) Topic() Topic { return TypingTopic(e.ConversationID) }
func (e TypingEvent) Kind() Kind   { return KindTyping }

// ErrorEvent is only ever delivered on the private topic of the user whose request failed.
type ErrorEvent struct {
	ConversationID domain.ConversationID `json:"conversationId"`
	Content        string                `json:"content"`
	Type           Kind                  `json:"type"`
	Recipient      domain.UserID         `json:"-"`
}

func NewErrorEvent(recipient domain.UserID, conversationID domain.ConversationID, action Action, err error) ErrorEvent {
	return ErrorEvent{
		ConversationID: conversationID,
		Content:        fmt.Sprintf("Failed to %s: %v", action, err),
		Type:           KindError,
		Recipient:      recipient,
	}
}

func (e ErrorEvent) Topic() Topic { return UserErrorTopic(e.Recipient) }
func (e ErrorEvent) Kind() Kind   { return KindError }

// Envelope is the JSON frame written to websocket clients and to the redis bus.
type Envelope struct {
	Topic   Topic           `json:"topic"`
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

func Encode(evt DomainEvent) ([]byte, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Topic: evt.Topic(), Kind: evt.Kind(), Payload: payload})
}

// Decode rebuilds a typed event from an envelope produced by Encode.
func Decode(data []byte) (DomainEvent, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case KindMessage:
		var e MessageEvent
		err := json.Unmarshal(env.Payload, &e)
		return e, err
	case KindTyping:
		var e TypingEvent
		err := json.Unmarshal(env.Payload, &e)
		return e, err
	case KindError:
		var e ErrorEvent
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return nil, err
		}
		var userID domain.UserID
		if _, err := fmt.Sscanf(string(env.Topic), "user/%d/errors", &userID); err != nil {
			return nil, fmt.Errorf("error event on non private topic %q", env.Topic)
		}
		e.Recipient = userID
		return e, nil
	default:
		return nil, fmt.Errorf("unknown event kind %q", env.Kind)
	}
}
