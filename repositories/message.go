//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"bytes"
	"chat-hub/domain"
	"chat-hub/errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type IMessageRepository interface {
	Append(cmd domain.AppendCommand) (domain.Message, []domain.Attachment, error)
	Get(id domain.MessageID) (domain.Message, error)
	Page(req domain.PageRequest) (domain.PagedResult[domain.Message], error)
	CountUnread(conversationID domain.ConversationID, userID domain.UserID) (int, error)
	MarkDeleted(id domain.MessageID) (domain.Message, error)
	MarkEdited(id domain.MessageID, content string) (domain.Message, error)
	UpdateStatus(id domain.MessageID, status domain.MessageStatus) (domain.Message, error)
	Attachments(id domain.MessageID) ([]domain.Attachment, error)
	AttachmentsByConversation(conversationID domain.ConversationID, family domain.MessageType) ([]domain.Attachment, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	messageSeq    *badger.Sequence
	attachmentSeq *badger.Sequence
	now           func() time.Time
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	messageSeq, err := db.GetSequence([]byte(messageSequence), sequenceBandwidth)
	if err != nil {
		return nil, err
	}
	attachmentSeq, err := db.GetSequence([]byte(attachmentSequence), sequenceBandwidth)
	if err != nil {
		_ = messageSeq.Release()
		return nil, err
	}
	return &MessageRepository{
		db:            db,
		log:           log,
		messageSeq:    messageSeq,
		attachmentSeq: attachmentSeq,
		now:           utcNow,
	}, nil
}

func (r *MessageRepository) Close() error {
	if err := r.messageSeq.Release(); err != nil {
		return err
	}
	return r.attachmentSeq.Release()
}

// Append stores a message with status SENT and bumps the conversation's UpdatedAt.
// The key is formatted as "msg:{conversation}:{sent_at}:{id}": SentAt is never lower than the
// previous message of the conversation, so key order is the conversation order.
// A sender without membership joins as MEMBER in the same transaction when cmd.AutoJoin is set.
func (r *MessageRepository) Append(cmd domain.AppendCommand) (domain.Message, []domain.Attachment, error) {
	if strings.TrimSpace(cmd.Content) == "" && len(cmd.Attachments) == 0 {
		return domain.Message{}, nil, errors.ErrBlankContent
	}
	if cmd.Type == 0 {
		cmd.Type = domain.Text
	}
	if !cmd.Type.Valid() {
		return domain.Message{}, nil, errors.ErrInvalidEnum
	}
	var message domain.Message
	var attachments []domain.Attachment
	err := update(r.db, func(txn *badger.Txn) error {
		attachments = nil
		conversation, found, err := get(txn, conversationKey(cmd.ConversationID), decodeConversation)
		if err != nil {
			return err
		}
		if !found {
			return errors.ErrConversationNotFound
		}
		now := r.now()
		if err := r.ensureSender(txn, cmd, now); err != nil {
			return err
		}
		if cmd.ReplyTo != nil {
			if _, err := messageKeyInConversation(txn, cmd.ConversationID, *cmd.ReplyTo); err != nil {
				return errors.ErrInvalidReply
			}
		}

		id, err := nextID(r.messageSeq)
		if err != nil {
			return err
		}
		sentAt := now
		if !sentAt.After(conversation.UpdatedAt) {
			sentAt = conversation.UpdatedAt.Add(time.Nanosecond)
		}
		message = domain.Message{
			ID:               domain.MessageID(id),
			ConversationID:   cmd.ConversationID,
			SenderID:         cmd.SenderID,
			Content:          cmd.Content,
			Type:             cmd.Type,
			SentAt:           sentAt,
			Status:           domain.StatusSent,
			ReplyToMessageID: cmd.ReplyTo,
		}
		key := messageKey(message)
		if err := txn.Set(key, encodeMessage(message)); err != nil {
			return err
		}
		if err := txn.Set(messageIDKey(message.ID), key); err != nil {
			return err
		}
		for _, a := range cmd.Attachments {
			attachmentID, err := nextID(r.attachmentSeq)
			if err != nil {
				return err
			}
			a.ID = domain.AttachmentID(attachmentID)
			a.MessageID = message.ID
			if a.UploadedAt.IsZero() {
				a.UploadedAt = sentAt
			}
			if err := txn.Set(attachmentKey(a), encodeAttachment(a)); err != nil {
				return err
			}
			attachments = append(attachments, a)
		}
		conversation.UpdatedAt = sentAt
		return txn.Set(conversationKey(conversation.ID), encodeConversation(conversation))
	})
	if err != nil {
		return domain.Message{}, nil, err
	}
	return message, attachments, nil
}

// ensureSender checks the sender may post, and performs the auto-join when allowed.
// Reading the participant key puts it in the transaction's read set, so two concurrent
// first sends by the same user conflict and the replay sees the membership already created.
func (r *MessageRepository) ensureSender(txn *badger.Txn, cmd domain.AppendCommand, now time.Time) error {
	participant, found, err := get(txn, participantKey(cmd.ConversationID, cmd.SenderID), decodeParticipant)
	if err != nil {
		return err
	}
	switch {
	case found && participant.IsActive:
		return nil
	case found:
		return errors.ErrInactiveParticipant
	case !cmd.AutoJoin:
		return errors.ErrNotParticipant
	}
	r.log.Debug("Sender joins conversation on first send", "conversation", cmd.ConversationID, "user", cmd.SenderID)
	return putParticipant(txn, domain.NewParticipant(cmd.ConversationID, cmd.SenderID, domain.RoleMember, now))
}

func (r *MessageRepository) Get(id domain.MessageID) (domain.Message, error) {
	var message domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		message, _, err = getMessage(txn, id)
		return err
	})
	return message, err
}

// Page returns one page of a conversation log, ordered by SentAt then id.
// Deleted messages are skipped unless req.IncludeDeleted is set, so are messages sent after req.Until.
func (r *MessageRepository) Page(req domain.PageRequest) (domain.PagedResult[domain.Message], error) {
	if req.SortField != domain.SortBySentAt || (req.SortDir != domain.Asc && req.SortDir != domain.Desc) {
		return domain.PagedResult[domain.Message]{}, errors.ErrInvalidSort
	}
	if req.Page < 0 || req.Size < 1 {
		return domain.PagedResult[domain.Message]{}, errors.ErrInvalidPage
	}
	var items []domain.Message
	total := 0
	first := req.Page * req.Size
	err := r.db.View(func(txn *badger.Txn) error {
		_, found, err := get(txn, conversationKey(req.ConversationID), rawValue)
		if err != nil {
			return err
		}
		if !found {
			return errors.ErrConversationNotFound
		}
		return scan(txn, messagePrefix(req.ConversationID), req.SortDir == domain.Desc, decodeMessage, func(_ []byte, m domain.Message) (bool, error) {
			if m.IsDeleted && !req.IncludeDeleted {
				return true, nil
			}
			if req.Until != nil && m.SentAt.After(*req.Until) {
				return true, nil
			}
			if total >= first && total < first+req.Size {
				items = append(items, m)
			}
			total++
			return true, nil
		})
	})
	if err != nil {
		return domain.PagedResult[domain.Message]{}, err
	}
	return domain.NewPagedResult(items, total, req.Page, req.Size), nil
}

// CountUnread counts the messages of other senders, not deleted and not READ,
// that come after the user's read pointer.
func (r *MessageRepository) CountUnread(conversationID domain.ConversationID, userID domain.UserID) (int, error) {
	count := 0
	err := r.db.View(func(txn *badger.Txn) error {
		participant, found, err := get(txn, participantKey(conversationID, userID), decodeParticipant)
		if err != nil {
			return err
		}
		if !found {
			return errors.ErrParticipantNotFound
		}
		var from []byte
		if participant.LastReadMessageID != nil {
			if from, err = messageKeyInConversation(txn, conversationID, *participant.LastReadMessageID); err != nil {
				return err
			}
		}
		return scan(txn, messagePrefix(conversationID), false, decodeMessage, func(key []byte, m domain.Message) (bool, error) {
			if from != nil && bytes.Compare(key, from) <= 0 {
				return true, nil
			}
			if m.SenderID != userID && !m.IsDeleted && m.Status != domain.StatusRead {
				count++
			}
			return true, nil
		})
	})
	return count, err
}

// MarkDeleted soft-deletes a message. Deleting twice changes nothing.
func (r *MessageRepository) MarkDeleted(id domain.MessageID) (domain.Message, error) {
	return r.mutate(id, func(m *domain.Message) error {
		m.MarkDeleted()
		return nil
	})
}

func (r *MessageRepository) MarkEdited(id domain.MessageID, content string) (domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return domain.Message{}, errors.ErrBlankContent
	}
	return r.mutate(id, func(m *domain.Message) error {
		return m.Edit(content, r.now())
	})
}

func (r *MessageRepository) UpdateStatus(id domain.MessageID, status domain.MessageStatus) (domain.Message, error) {
	return r.mutate(id, func(m *domain.Message) error {
		return m.Advance(status)
	})
}

func (r *MessageRepository) mutate(id domain.MessageID, fn func(m *domain.Message) error) (domain.Message, error) {
	var message domain.Message
	err := update(r.db, func(txn *badger.Txn) error {
		m, key, err := getMessage(txn, id)
		if err != nil {
			return err
		}
		if err := fn(&m); err != nil {
			return err
		}
		message = m
		return txn.Set(key, encodeMessage(m))
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

func (r *MessageRepository) Attachments(id domain.MessageID) ([]domain.Attachment, error) {
	var attachments []domain.Attachment
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		attachments, err = listAttachments(txn, id)
		return err
	})
	return attachments, err
}

// AttachmentsByConversation lists the attachments of non deleted messages, oldest first.
// A zero family returns every attachment, otherwise only the ones whose mime type maps to family.
func (r *MessageRepository) AttachmentsByConversation(conversationID domain.ConversationID, family domain.MessageType) ([]domain.Attachment, error) {
	var attachments []domain.Attachment
	err := r.db.View(func(txn *badger.Txn) error {
		var ids []domain.MessageID
		err := scan(txn, messagePrefix(conversationID), false, decodeMessage, func(_ []byte, m domain.Message) (bool, error) {
			if !m.IsDeleted {
				ids = append(ids, m.ID)
			}
			return true, nil
		})
		if err != nil {
			return err
		}
		for _, id := range ids {
			list, err := listAttachments(txn, id)
			if err != nil {
				return err
			}
			for _, a := range list {
				if family == 0 || domain.MessageTypeFromMime(a.MimeType) == family {
					attachments = append(attachments, a)
				}
			}
		}
		return nil
	})
	return attachments, err
}

func getMessage(txn *badger.Txn, id domain.MessageID) (domain.Message, []byte, error) {
	key, found, err := get(txn, messageIDKey(id), rawValue)
	if err != nil {
		return domain.Message{}, nil, err
	}
	if !found {
		return domain.Message{}, nil, errors.ErrMessageNotFound
	}
	m, found, err := get(txn, key, decodeMessage)
	if err != nil {
		return domain.Message{}, nil, err
	}
	if !found {
		return domain.Message{}, nil, errors.ErrMessageNotFound
	}
	return m, key, nil
}

func listAttachments(txn *badger.Txn, id domain.MessageID) ([]domain.Attachment, error) {
	var attachments []domain.Attachment
	err := scan(txn, attachmentPrefix(id), false, decodeAttachment, func(_ []byte, a domain.Attachment) (bool, error) {
		attachments = append(attachments, a)
		return true, nil
	})
	return attachments, err
}
