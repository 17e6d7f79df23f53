//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	GetMessagesForUser(identity domain.Identity, cursor *string, limit int) ([]domain.Message, *string, error)
	GetGroupMessages(groupID domain.GroupID, cursor *string, limit int) ([]domain.Message, *string, error)
	GetMessagesByIDs(ids []uuid.UUID) ([]domain.Message, error)
}

const DefaultPageSize = 50

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages int
}

// NewMessageRepository builds a repository whose pages never exceed limitMessages.
func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

type diskMessage struct {
	ID        string `msgpack:"id"`
	Kind      string `msgpack:"kind"`
	Sender    string `msgpack:"sender"`
	Receiver  string `msgpack:"receiver,omitempty"`
	GroupID   string `msgpack:"group_id,omitempty"`
	Content   string `msgpack:"content"`
	CreatedAt int64  `msgpack:"created_at"`
}

func fromMessage(m domain.Message) diskMessage {
	return diskMessage{
		ID:        m.ID.String(),
		Kind:      string(m.Kind),
		Sender:    m.Sender.String(),
		Receiver:  m.Receiver.String(),
		GroupID:   string(m.GroupID),
		Content:   m.Content,
		CreatedAt: m.CreatedAt.UnixNano(),
	}
}

func (d diskMessage) toMessage() (domain.Message, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return domain.Message{}, persistence(err)
	}
	return domain.Message{
		ID:        id,
		Kind:      domain.MessageKind(d.Kind),
		Sender:    domain.Identity(d.Sender),
		Receiver:  domain.Identity(d.Receiver),
		GroupID:   domain.GroupID(d.GroupID),
		Content:   d.Content,
		CreatedAt: time.Unix(0, d.CreatedAt).UTC(),
	}, nil
}

func messageKey(id string) []byte { return []byte("msg:" + id) }

// indexSuffix is "{timestamp_padded}:{uuid}". The 19-digit padding keeps
// lexicographical order chronological and the uuid separates messages
// created at the same nanosecond. The suffix doubles as the page cursor.
func indexSuffix(m domain.Message) string {
	return fmt.Sprintf("%019d:%s", m.CreatedAt.UnixNano(), m.ID)
}

func inboxPrefix(identity domain.Identity) string { return "inbox:" + identity.String() + ":" }

func groupPrefix(groupID domain.GroupID) string { return "gmsg:" + string(groupID) + ":" }

// StoreMessage persists the message body and its index entries in one transaction:
// a direct message is indexed in the inbox of both participants, a group
// message in the group timeline.
func (m MessageRepository) StoreMessage(message domain.Message) error {
	dm := fromMessage(message)
	suffix := indexSuffix(message)
	var indexes []string
	switch message.Kind {
	case domain.DirectMessage:
		indexes = []string{inboxPrefix(message.Sender) + suffix}
		if message.Receiver != message.Sender {
			indexes = append(indexes, inboxPrefix(message.Receiver)+suffix)
		}
	case domain.GroupMessage:
		indexes = []string{groupPrefix(message.GroupID) + suffix}
	default:
		return fmt.Errorf("%w: %q", errors.ErrUnsupportedMessage, message.Kind)
	}

	err := m.db.Update(func(txn *badger.Txn) error {
		if err := setValue(txn, messageKey(dm.ID), dm); err != nil {
			return err
		}
		for _, index := range indexes {
			if err := txn.Set([]byte(index), []byte(dm.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	return persistence(err)
}

// GetMessagesForUser returns the direct messages sent or received by identity, newest first.
func (m MessageRepository) GetMessagesForUser(identity domain.Identity, cursor *string, limit int) ([]domain.Message, *string, error) {
	return m.page(inboxPrefix(identity), cursor, limit)
}

// GetGroupMessages returns the timeline of a group, newest first.
func (m MessageRepository) GetGroupMessages(groupID domain.GroupID, cursor *string, limit int) ([]domain.Message, *string, error) {
	return m.page(groupPrefix(groupID), cursor, limit)
}

// page walks an index prefix backwards from cursor (exclusive).
// The returned cursor is nil once the index is exhausted.
func (m MessageRepository) page(prefixStr string, cursor *string, limit int) ([]domain.Message, *string, error) {
	limit = m.clamp(limit)
	var messages []domain.Message
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		if cursor == nil {
			// Past the newest possible key, then walk backwards
			seekKey = append([]byte(prefixStr), []byte("9999999999999999999~")...)
		} else {
			seekKey = append([]byte(prefixStr), []byte(*cursor)...)
		}
		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()[len(prefix):]) == *cursor {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if len(messages) == limit {
				m.log.Debug("Page limit reached", "prefix", prefixStr, "limit", limit)
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefix):])
			id, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			message, err := m.load(txn, string(id))
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, nil, persistence(err)
	}
	if len(messages) < limit {
		return messages, nil, nil
	}
	return messages, &lastKey, nil
}

// GetMessagesByIDs loads messages by id, silently skipping unknown ones.
func (m MessageRepository) GetMessagesByIDs(ids []uuid.UUID) ([]domain.Message, error) {
	messages := make([]domain.Message, 0, len(ids))
	err := m.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			message, err := m.load(txn, id.String())
			if errors.Is(err, errors.ErrTargetNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, persistence(err)
	}
	return messages, nil
}

func (m MessageRepository) load(txn *badger.Txn, id string) (domain.Message, error) {
	var dm diskMessage
	if err := getValue(txn, messageKey(id), &dm, errors.ErrTargetNotFound); err != nil {
		return domain.Message{}, err
	}
	return dm.toMessage()
}

func (m MessageRepository) clamp(limit int) int {
	maxLimit := m.limitMessages
	if maxLimit <= 0 {
		maxLimit = DefaultPageSize
	}
	if limit <= 0 || limit > maxLimit {
		return maxLimit
	}
	return limit
}
