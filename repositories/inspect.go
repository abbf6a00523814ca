package repositories

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Entry is one stored key rendered for humans.
type Entry struct {
	Key     string
	Kind    string
	Summary string
}

// Inspect walks every key under prefix and describes it. Undecodable values are reported, not returned.
func Inspect(db *badger.DB, prefix string, visit func(Entry) error) error {
	return db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = []byte(prefix)
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := visit(Describe(item.KeyCopy(nil), value)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Describe decodes a value according to the key layout documented in keys.go.
func Describe(key, value []byte) Entry {
	kind, _, _ := bytes.Cut(key, []byte(":"))
	entry := Entry{Key: string(key), Kind: string(kind)}

	var err error
	switch entry.Kind {
	case "conv":
		c, e := decodeConversation(value)
		err = e
		entry.Summary = fmt.Sprintf("%s %q by %d, updated %s", c.Type, c.Name, c.CreatedBy, c.UpdatedAt.Format(time.DateTime))
	case "part":
		p, e := decodeParticipant(value)
		err = e
		entry.Summary = fmt.Sprintf("user %d %s active=%t lastRead=%s", p.UserID, p.Role, p.IsActive, optional(p.LastReadMessageID))
	case "msg":
		m, e := decodeMessage(value)
		err = e
		entry.Summary = fmt.Sprintf("#%d from %d %s %s %q", m.ID, m.SenderID, m.Type, m.Status, truncate(m.Content, 40))
		if m.IsDeleted {
			entry.Summary += " (deleted)"
		}
	case "att":
		a, e := decodeAttachment(value)
		err = e
		entry.Summary = fmt.Sprintf("%s %s %d bytes -> %s", a.FileName, a.MimeType, a.FileSize, a.FilePath)
	case "user":
		u, e := decodeUser(value)
		err = e
		entry.Summary = fmt.Sprintf("%s (%s) active=%t online=%t", u.Username, u.DisplayName, u.IsActive, u.IsOnline)
	case "pair", "msgid", "username":
		entry.Summary = string(value)
	case "upart":
		entry.Summary = "membership index"
	case "seq":
		entry.Summary = "sequence lease"
	default:
		entry.Summary = fmt.Sprintf("%d bytes", len(value))
	}
	if err != nil {
		entry.Summary = "undecodable: " + err.Error()
	}
	return entry
}

func optional[T ~int64](v *T) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(int64(*v), 10)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
