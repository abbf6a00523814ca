package repositories

import (
	"chat-hub/domain"
	"context"
	"log/slog"
	"testing"

	"github.com/blugelabs/bluge"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func newMessageIndex(t *testing.T) *MessageIndex {
	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = blugeWriter.Close() })
	return NewMessageIndex(blugeWriter, slog.Default())
}

func Test_MessageIndex_Search_Is_Scoped_To_Conversation(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	index := newMessageIndex(t)

	// Given messages in two conversations
	req.NoError(index.Index(domain.Message{ID: 1, ConversationID: 10, SenderID: alice, Content: "The database migration is done"}))
	req.NoError(index.Index(domain.Message{ID: 2, ConversationID: 10, SenderID: bob, Content: "lunch?"}))
	req.NoError(index.Index(domain.Message{ID: 3, ConversationID: 20, SenderID: carol, Content: "Database backup failed"}))

	// When searching, case does not matter and other conversations stay hidden
	ids, total, err := index.SearchPaginated(ctx, "DATABASE", 10, 0, 10)
	req.NoError(err)
	req.Equal([]domain.MessageID{1}, ids)
	req.Equal(1, total)
}

func Test_MessageIndex_Follows_Edits_And_Deletes(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	index := newMessageIndex(t)

	m := domain.Message{ID: 7, ConversationID: 10, SenderID: alice, Content: "see you tomorrow"}
	req.NoError(index.Index(m))

	// An edit replaces the document
	m.Content = "see you on monday"
	req.NoError(index.Index(m))
	ids, _, err := index.SearchPaginated(ctx, "tomorrow", 10, 0, 10)
	req.NoError(err)
	req.Empty(ids)
	ids, _, err = index.SearchPaginated(ctx, "monday", 10, 0, 10)
	req.NoError(err)
	req.Equal([]domain.MessageID{7}, ids)

	// A deleted message disappears
	m.MarkDeleted()
	req.NoError(index.Index(m))
	ids, total, err := index.SearchPaginated(ctx, "monday", 10, 0, 10)
	req.NoError(err)
	req.Empty(ids)
	req.Zero(total)
}

func Test_MessageIndex_Pages(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	index := newMessageIndex(t)
	for i := 1; i <= 5; i++ {
		req.NoError(index.Index(domain.Message{ID: domain.MessageID(i), ConversationID: 10, SenderID: alice, Content: "deploy pipeline"}))
	}

	first, total, err := index.SearchPaginated(ctx, "deploy", 10, 0, 3)
	req.NoError(err)
	req.Len(first, 3)
	req.Equal(5, total)
	second, _, err := index.SearchPaginated(ctx, "deploy", 10, 1, 3)
	req.NoError(err)
	req.Len(second, 2)
	req.Empty(lo.Intersect(first, second))
}
