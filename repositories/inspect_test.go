package repositories

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInspect_Describes_Every_Kind(t *testing.T) {
	req := require.New(t)
	db := openDB(t)
	users, err := NewUserRepository(db)
	req.NoError(err)
	t.Cleanup(func() { _ = users.Close() })
	conversations := newConversationRepository(t, db)
	messages := newMessageRepository(t, db)

	// Given a user writing in a private conversation
	alice, err := users.CreateUser("alice", "Alice")
	req.NoError(err)
	bob, err := users.CreateUser("bob", "Bob")
	req.NoError(err)
	conversation, _, err := conversations.FindOrCreatePrivate(alice.ID, bob.ID)
	req.NoError(err)
	appendText(t, messages, conversation.ID, alice.ID, "hello bob")

	// When the whole store is inspected
	kinds := map[string][]Entry{}
	req.NoError(Inspect(db, "", func(e Entry) error {
		kinds[e.Kind] = append(kinds[e.Kind], e)
		return nil
	}))

	// Then every record is decoded
	req.Len(kinds["user"], 2)
	req.Contains(kinds["user"][0].Summary, "alice (Alice)")
	req.Len(kinds["conv"], 1)
	req.True(strings.HasPrefix(kinds["conv"][0].Summary, "PRIVATE"))
	req.Len(kinds["part"], 2)
	req.Len(kinds["msg"], 1)
	req.Contains(kinds["msg"][0].Summary, `"hello bob"`)
	req.Len(kinds["pair"], 1)
	for _, entries := range kinds {
		for _, e := range entries {
			req.NotContains(e.Summary, "undecodable", e.Key)
		}
	}
}

func TestDescribe_Reports_Corrupted_Values(t *testing.T) {
	req := require.New(t)
	entry := Describe([]byte("msg:00000000000000000001"), []byte{0xFF, 0xFF, 0xFF})
	req.Equal("msg", entry.Kind)
	req.True(strings.HasPrefix(entry.Summary, "undecodable"))
}
