package repositories

import (
	"chat-hub/domain"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *badger.DB {
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newConversationRepository(t *testing.T, db *badger.DB) *ConversationRepository {
	repo, err := NewConversationRepository(db, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func newMessageRepository(t *testing.T, db *badger.DB) *MessageRepository {
	repo, err := NewMessageRepository(db, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// fakeClock returns a time that moves one second forward on every call.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func appendText(t *testing.T, repo *MessageRepository, conversationID domain.ConversationID, sender domain.UserID, content string) domain.Message {
	m, _, err := repo.Append(domain.AppendCommand{
		ConversationID: conversationID,
		SenderID:       sender,
		Content:        content,
		Type:           domain.Text,
	})
	require.NoError(t, err)
	return m
}
