// Package domain contains core concepts of the messaging system.
// This file defines Message records and their attachments.
package domain

import (
	"chat-hub/errors"
	"time"
)

type MessageID int64

// Message is one entry of a conversation log.
// It is never physically deleted: deletion clears Content and keeps the row for ordering and counting.
type Message struct {
	ID               MessageID
	ConversationID   ConversationID
	SenderID         UserID
	Content          string
	Type             MessageType
	SentAt           time.Time
	IsDeleted        bool
	IsEdited         bool
	EditedAt         *time.Time
	Status           MessageStatus
	ReplyToMessageID *MessageID
}

// Before orders messages by SentAt, with ID as tie-break.
func (m Message) Before(other Message) bool {
	if m.SentAt.Equal(other.SentAt) {
		return m.ID < other.ID
	}
	return m.SentAt.Before(other.SentAt)
}

func (m *Message) MarkDeleted() {
	m.IsDeleted = true
	m.Content = ""
}

func (m *Message) Edit(content string, at time.Time) error {
	if m.IsDeleted {
		return errors.ErrMessageDeleted
	}
	m.Content = content
	m.IsEdited = true
	m.EditedAt = &at
	return nil
}

// Advance moves the status forward. Moving to the current status changes nothing.
func (m *Message) Advance(next MessageStatus) error {
	if !next.Valid() || !m.Status.CanAdvanceTo(next) {
		return errors.ErrInvalidTransition
	}
	m.Status = next
	return nil
}

type AttachmentID int64

// Attachment describes a stored file. FilePath is an opaque token returned by the attachment storage.
type Attachment struct {
	ID              AttachmentID
	MessageID       MessageID
	FileName        string
	FilePath        string
	FileSize        int64
	MimeType        string
	UploadedAt      time.Time
	Width           *int32
	Height          *int32
	DurationSeconds *int32
}

// MessageView is the message shape returned to callers and broadcast to subscribers.
type MessageView struct {
	Message
	SenderUsername string
	Attachments    []Attachment
}
