//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"context"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

type IUserRepository interface {
	CreateUser(username, displayName string) (domain.UserRef, error)
	SetActive(id domain.UserID, active bool) error
	SetOnline(id domain.UserID, online bool) error
	FindByID(ctx context.Context, id domain.UserID) (domain.UserRef, error)
	FindByUsername(ctx context.Context, username string) (domain.UserRef, error)
	Search(ctx context.Context, query string, excludeID domain.UserID) ([]domain.UserRef, error)
}

// UserRepository is the local copy of the account directory.
// Usernames are unique ignoring case.
type UserRepository struct {
	db  *badger.DB
	seq *badger.Sequence
}

func NewUserRepository(db *badger.DB) (*UserRepository, error) {
	seq, err := db.GetSequence([]byte(userSequence), sequenceBandwidth)
	if err != nil {
		return nil, err
	}
	return &UserRepository{db: db, seq: seq}, nil
}

func (u *UserRepository) Close() error { return u.seq.Release() }

// CreateUser registers an active user and returns it with its new id.
func (u *UserRepository) CreateUser(username, displayName string) (domain.UserRef, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.UserRef{}, errors.ErrBlankUsername
	}
	var user domain.UserRef
	err := update(u.db, func(txn *badger.Txn) error {
		_, taken, err := get(txn, usernameKey(username), rawValue)
		if err != nil {
			return err
		}
		if taken {
			return errors.ErrUserAlreadyExists
		}
		id, err := nextID(u.seq)
		if err != nil {
			return err
		}
		user = domain.UserRef{
			ID:          domain.UserID(id),
			Username:    username,
			DisplayName: displayName,
			IsActive:    true,
		}
		if err := txn.Set(userKey(user.ID), encodeUser(user)); err != nil {
			return err
		}
		return txn.Set(usernameKey(username), []byte(strconv.FormatInt(id, 10)))
	})
	if err != nil {
		return domain.UserRef{}, err
	}
	return user, nil
}

func (u *UserRepository) SetActive(id domain.UserID, active bool) error {
	return u.mutate(id, func(user *domain.UserRef) { user.IsActive = active })
}

// SetOnline records presence. It is driven by the websocket gateway.
func (u *UserRepository) SetOnline(id domain.UserID, online bool) error {
	return u.mutate(id, func(user *domain.UserRef) { user.IsOnline = online })
}

func (u *UserRepository) mutate(id domain.UserID, fn func(user *domain.UserRef)) error {
	return update(u.db, func(txn *badger.Txn) error {
		user, found, err := get(txn, userKey(id), decodeUser)
		if err != nil {
			return err
		}
		if !found {
			return errors.ErrUserNotFound
		}
		fn(&user)
		return txn.Set(userKey(id), encodeUser(user))
	})
}

func (u *UserRepository) FindByID(_ context.Context, id domain.UserID) (domain.UserRef, error) {
	return LookupUser(u.db, id)
}

// LookupUser reads a user without leasing a sequence, so it works on a read-only database.
func LookupUser(db *badger.DB, id domain.UserID) (domain.UserRef, error) {
	var user domain.UserRef
	err := db.View(func(txn *badger.Txn) error {
		var err error
		user, err = findUser(txn, id)
		return err
	})
	return user, err
}

func (u *UserRepository) FindByUsername(_ context.Context, username string) (domain.UserRef, error) {
	var user domain.UserRef
	err := u.db.View(func(txn *badger.Txn) error {
		rawID, found, err := get(txn, usernameKey(strings.TrimSpace(username)), rawValue)
		if err != nil {
			return err
		}
		if !found {
			return errors.ErrUserNotFound
		}
		id, err := strconv.ParseInt(string(rawID), 10, 64)
		if err != nil {
			return err
		}
		user, err = findUser(txn, domain.UserID(id))
		return err
	})
	return user, err
}

// Search returns active users whose username contains query, ignoring case, in username order.
func (u *UserRepository) Search(_ context.Context, query string, excludeID domain.UserID) ([]domain.UserRef, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	users := []domain.UserRef{}
	err := u.db.View(func(txn *badger.Txn) error {
		prefix := []byte("username:")
		var ids []domain.UserID
		err := scan(txn, prefix, false, rawValue, func(key []byte, value []byte) (bool, error) {
			if !strings.Contains(string(key[len(prefix):]), query) {
				return true, nil
			}
			id, err := strconv.ParseInt(string(value), 10, 64)
			if err != nil {
				return false, err
			}
			if domain.UserID(id) != excludeID {
				ids = append(ids, domain.UserID(id))
			}
			return true, nil
		})
		if err != nil {
			return err
		}
		for _, id := range ids {
			user, err := findUser(txn, id)
			if err != nil {
				return err
			}
			if user.IsActive {
				users = append(users, user)
			}
		}
		return nil
	})
	return users, err
}

func findUser(txn *badger.Txn, id domain.UserID) (domain.UserRef, error) {
	user, found, err := get(txn, userKey(id), decodeUser)
	if err != nil {
		return domain.UserRef{}, err
	}
	if !found {
		return domain.UserRef{}, errors.ErrUserNotFound
	}
	return user, nil
}
