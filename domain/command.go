package domain

import (
	"time"
)

// AppendCommand carries everything the message store needs to append one message.
// AutoJoin lets a sender who is not yet a participant join the conversation on first send.
type AppendCommand struct {
	ConversationID ConversationID
	SenderID       UserID
	Content        string
	Type           MessageType
	ReplyTo        *MessageID
	Attachments    []Attachment
	AutoJoin       bool
}

// TypingTarget addresses a typing indicator either to a known conversation
// or to the private conversation with a recipient.
type TypingTarget struct {
	ConversationID    *ConversationID
	RecipientUsername string
}

// Upload is an attachment received from a client, before storage.
type Upload struct {
	FileName string
	Data     []byte
}

// StoredFile is what the attachment storage hands back.
type StoredFile struct {
	Token    string
	Size     int64
	MimeType string
}

// ParticipantSettings are the per-member notification preferences.
type ParticipantSettings struct {
	IsMuted             bool
	MutedUntil          *time.Time
	NotificationSetting NotificationSetting
}

// SendDirectCommand sends to the private conversation with a user known by username.
type SendDirectCommand struct {
	SenderID          UserID `validate:"required,gt=0"`
	RecipientUsername string `validate:"required,max=64"`
	Content           string
}

// SendCommand sends to a known conversation.
type SendCommand struct {
	SenderID       UserID         `validate:"required,gt=0"`
	ConversationID ConversationID `validate:"required,gt=0"`
	Content        string
	Type           MessageType
	ReplyTo        *MessageID
}

type CreateGroupCommand struct {
	CreatorID UserID   `validate:"required,gt=0"`
	Name      string   `validate:"required,max=100"`
	MemberIDs []UserID `validate:"dive,gt=0"`
}
