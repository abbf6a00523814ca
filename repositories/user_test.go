package repositories

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func Test_User_Directory(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo, err := NewUserRepository(openDB(t))
	req.NoError(err)
	t.Cleanup(func() { _ = repo.Close() })

	// Given three users, one of them deactivated
	alice, err := repo.CreateUser("Alice", "Alice Liddell")
	req.NoError(err)
	bob, err := repo.CreateUser("bob", "Bob")
	req.NoError(err)
	alicia, err := repo.CreateUser("alicia", "Alicia")
	req.NoError(err)
	req.NoError(repo.SetActive(alicia.ID, false))

	// Usernames are unique ignoring case
	_, err = repo.CreateUser("ALICE", "Impostor")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
	_, err = repo.CreateUser("  ", "Nobody")
	req.ErrorIs(err, errors.ErrBlankUsername)

	found, err := repo.FindByUsername(ctx, "alice")
	req.NoError(err)
	req.Equal(alice.ID, found.ID)
	req.Equal("Alice", found.Username)

	req.NoError(repo.SetOnline(bob.ID, true))
	found, err = repo.FindByID(ctx, bob.ID)
	req.NoError(err)
	req.True(found.IsOnline)

	_, err = repo.FindByID(ctx, 404)
	req.ErrorIs(err, errors.ErrUserNotFound)
	_, err = repo.FindByUsername(ctx, "zoe")
	req.ErrorIs(err, errors.ErrNotFound)

	// Search skips inactive users and the requester
	results, err := repo.Search(ctx, "ALI", bob.ID)
	req.NoError(err)
	req.Equal([]string{"Alice"}, lo.Map(results, func(u domain.UserRef, _ int) string { return u.Username }))
	results, err = repo.Search(ctx, "ali", alice.ID)
	req.NoError(err)
	req.Empty(results)
}
