package repositories

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Key layout. Ids are zero padded to 20 digits and timestamps to 19 so that
// lexicographical order matches numerical order.
//
//	conv:{conversation}                         -> Conversation
//	pair:{low}:{high}                           -> conversation id of a private pair
//	part:{conversation}:{user}                  -> Participant
//	upart:{user}:{conversation}                 -> empty, reverse membership index
//	msg:{conversation}:{sent_at}:{message}      -> Message
//	msgid:{message}                             -> msg key
//	att:{message}:{attachment}                  -> Attachment
//	user:{user}                                 -> UserRef
//	username:{lowercase username}               -> user id

const (
	conversationSequence = "seq:conversation"
	messageSequence      = "seq:message"
	attachmentSequence   = "seq:attachment"
	userSequence         = "seq:user"

	// sequenceBandwidth is how many ids a sequence leases from badger at once.
	sequenceBandwidth = 100
)

func conversationKey(id domain.ConversationID) []byte {
	return []byte(fmt.Sprintf("conv:%020d", id))
}

func pairKey(pair domain.Pair) []byte {
	return []byte(fmt.Sprintf("pair:%020d:%020d", pair.Low, pair.High))
}

func participantPrefix(id domain.ConversationID) []byte {
	return []byte(fmt.Sprintf("part:%020d:", id))
}

func participantKey(conversationID domain.ConversationID, userID domain.UserID) []byte {
	return []byte(fmt.Sprintf("part:%020d:%020d", conversationID, userID))
}

func membershipPrefix(id domain.UserID) []byte {
	return []byte(fmt.Sprintf("upart:%020d:", id))
}

func membershipKey(userID domain.UserID, conversationID domain.ConversationID) []byte {
	return []byte(fmt.Sprintf("upart:%020d:%020d", userID, conversationID))
}

func messagePrefix(id domain.ConversationID) []byte {
	return []byte(fmt.Sprintf("msg:%020d:", id))
}

func messageKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%020d:%019d:%020d", m.ConversationID, m.SentAt.UnixNano(), m.ID))
}

func messageIDKey(id domain.MessageID) []byte {
	return []byte(fmt.Sprintf("msgid:%020d", id))
}

func attachmentPrefix(id domain.MessageID) []byte {
	return []byte(fmt.Sprintf("att:%020d:", id))
}

func attachmentKey(a domain.Attachment) []byte {
	return []byte(fmt.Sprintf("att:%020d:%020d", a.MessageID, a.ID))
}

func userKey(id domain.UserID) []byte {
	return []byte(fmt.Sprintf("user:%020d", id))
}

func usernameKey(username string) []byte {
	return []byte("username:" + strings.ToLower(username))
}

// maxTxnAttempts bounds how many times a conflicting read-modify-write transaction is replayed.
const maxTxnAttempts = 32

// update runs fn in a read-write transaction and replays it when badger detects
// that a concurrent transaction committed a key fn read. fn must be safe to run again:
// every attempt re-reads the state it depends on.
func update(db *badger.DB, fn func(txn *badger.Txn) error) error {
	for attempt := 0; attempt < maxTxnAttempts; attempt++ {
		err := db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		time.Sleep(time.Duration(rand.IntN(1<<min(attempt, 6))+1) * time.Millisecond)
	}
	return errors.ErrTooManyRetries
}

// get loads the value at key. found is false when the key is absent.
func get[T any](txn *badger.Txn, key []byte, decodeFn func([]byte) (T, error)) (T, bool, error) {
	var zero T
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	var v T
	err = item.Value(func(b []byte) error {
		v, err = decodeFn(b)
		return err
	})
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// scan decodes every value under prefix, in key order or reversed.
func scan[T any](txn *badger.Txn, prefix []byte, reverse bool, decodeFn func([]byte) (T, error), visit func(key []byte, v T) (bool, error)) error {
	options := badger.DefaultIteratorOptions
	options.Prefix = prefix
	options.Reverse = reverse
	it := txn.NewIterator(options)
	defer it.Close()

	seek := prefix
	if reverse {
		seek = append(append([]byte{}, prefix...), 0xFF)
	}
	for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		var v T
		err := item.Value(func(b []byte) error {
			var err error
			v, err = decodeFn(b)
			return err
		})
		if err != nil {
			return err
		}
		more, err := visit(item.KeyCopy(nil), v)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

func rawValue(b []byte) ([]byte, error) { return append([]byte{}, b...), nil }

func nextID(seq *badger.Sequence) (int64, error) {
	v, err := seq.Next()
	if err != nil {
		return 0, err
	}
	// badger sequences start at 0, ids start at 1
	return int64(v) + 1, nil
}
