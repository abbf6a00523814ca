//go:generate go run go.uber.org/mock/mockgen -source=search.go -destination=../mocks/mock_message_index.go -package=mocks
package repositories

import (
	"chat-hub/domain"
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/blugelabs/bluge"
)

const (
	contentField      = "content"
	conversationField = "conversation"
	senderField       = "sender"
	idField           = "_id"
)

type IMessageIndex interface {
	Index(message domain.Message) error
	Remove(id domain.MessageID) error
	SearchPaginated(ctx context.Context, query string, conversationID domain.ConversationID, page, size int) ([]domain.MessageID, int, error)
}

// MessageIndex keeps a full text index of message contents next to the badger log.
// The log stays the source of truth: hits are resolved back through the message store.
type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger) *MessageIndex {
	return &MessageIndex{writer: writer, log: log}
}

// Index adds or replaces the document of a message. Deleted messages are removed instead.
func (i *MessageIndex) Index(message domain.Message) error {
	if message.IsDeleted {
		return i.Remove(message.ID)
	}
	doc := bluge.NewDocument(strconv.FormatInt(int64(message.ID), 10)).
		AddField(bluge.NewTextField(contentField, message.Content)).
		AddField(bluge.NewKeywordField(conversationField, strconv.FormatInt(int64(message.ConversationID), 10))).
		AddField(bluge.NewKeywordField(senderField, strconv.FormatInt(int64(message.SenderID), 10)).StoreValue())
	if err := i.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("index message %d: %w", message.ID, err)
	}
	return nil
}

func (i *MessageIndex) Remove(id domain.MessageID) error {
	doc := bluge.NewDocument(strconv.FormatInt(int64(id), 10))
	return i.writer.Delete(doc.ID())
}

// SearchPaginated matches query against the contents of one conversation, best hits first.
// It returns the ids of the requested page and the total number of hits.
func (i *MessageIndex) SearchPaginated(ctx context.Context, query string, conversationID domain.ConversationID, page, size int) ([]domain.MessageID, int, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = reader.Close() }()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(query).SetField(contentField)).
		AddMust(bluge.NewTermQuery(strconv.FormatInt(int64(conversationID), 10)).SetField(conversationField))
	request := bluge.NewTopNSearch(size, q).SetFrom(page * size).WithStandardAggregations()

	dmi, err := reader.Search(ctx, request)
	if err != nil {
		return nil, 0, err
	}
	var ids []domain.MessageID
	match, err := dmi.Next()
	for err == nil && match != nil {
		var visitErr error
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field != idField {
				return true
			}
			id, parseErr := strconv.ParseInt(string(value), 10, 64)
			if parseErr != nil {
				visitErr = parseErr
				return false
			}
			ids = append(ids, domain.MessageID(id))
			return false
		})
		if err == nil {
			err = visitErr
		}
		if err != nil {
			break
		}
		match, err = dmi.Next()
	}
	if err != nil {
		return nil, 0, err
	}
	return ids, int(dmi.Aggregations().Count()), nil
}
