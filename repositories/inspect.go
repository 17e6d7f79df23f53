package repositories

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/vmihailenco/msgpack/v5"
)

const inspectTimeFormat = "15:04:05"

// InspectMapper renders a raw key/value pair for the badger inspector.
// Values that fail to decode keep the default row.
func InspectMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	namespace, rest, _ := strings.Cut(key, ":")

	switch namespace {
	case "user":
		var u diskUser
		if err := msgpack.Unmarshal(val, &u); err != nil {
			row.Detail = "Error: unmarshal failed"
			return row
		}
		row.Type = "USER"
		row.Namespace = "users"
		row.EntityID = u.Username
		row.Timestamp = u.CreatedAt.Format(inspectTimeFormat)
		row.Detail = "id " + u.ID

	case "msg":
		var m diskMessage
		if err := msgpack.Unmarshal(val, &m); err != nil {
			row.Detail = "Error: unmarshal failed"
			return row
		}
		row.Type = strings.ToUpper(m.Kind)
		row.EntityID = shortID(m.ID)
		row.Namespace = m.Receiver
		if m.GroupID != "" {
			row.Namespace = shortID(m.GroupID)
		}
		row.Timestamp = time.Unix(0, m.CreatedAt).Format(inspectTimeFormat)
		row.Detail = fmt.Sprintf("%s: %s", m.Sender, m.Content)

	case "group":
		var g diskGroup
		if err := msgpack.Unmarshal(val, &g); err != nil {
			row.Detail = "Error: unmarshal failed"
			return row
		}
		row.Type = "GROUP"
		row.Namespace = "groups"
		row.EntityID = shortID(g.ID)
		row.Timestamp = g.CreatedAt.Format(inspectTimeFormat)
		row.Detail = fmt.Sprintf("%s (%d members)", g.Name, len(g.Members))

	case "inbox", "gmsg", "member":
		owner, suffix, _ := strings.Cut(rest, ":")
		row.Type = "INDEX"
		row.Namespace = namespace
		row.EntityID = owner
		row.Detail = "-> " + suffix
	}
	return row
}

// Scan visits every entry whose key starts with prefix, in key order.
func Scan(db *badger.DB, prefix string, visit func(database.InspectRow)) error {
	return db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))
			if err := item.Value(func(val []byte) error {
				visit(InspectMapper(key, val))
				return nil
			}); err != nil {
				return persistence(err)
			}
		}
		return nil
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
