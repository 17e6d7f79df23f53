//go:generate go run go.uber.org/mock/mockgen -source=index.go -destination=../mocks/mock_search_index.go -package=mocks
// Package search keeps a full-text index of messages next to the badger store.
// The index only holds what is needed to find and authorize a message;
// bodies are always loaded back from the repository.
package search

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

const (
	fieldContent     = "content"
	fieldSender      = "sender"
	fieldParticipant = "participant"
	fieldGroup       = "group"
	fieldCreatedAt   = "created_at"
	fieldID          = "_id"
)

type IIndex interface {
	Index(message domain.Message) error
	// Search returns the ids of matching messages the reader may see:
	// direct messages they took part in and messages of the given groups.
	Search(ctx context.Context, query Query, reader domain.Identity, groups []domain.GroupID) ([]uuid.UUID, error)
	Close() error
}

type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

// OpenIndex opens the bluge index stored under path.
func OpenIndex(path string, log *slog.Logger) (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, fmt.Errorf("%w: opening bluge writer at %s: %v", errors.ErrPersistence, path, err)
	}
	return &Index{writer: writer, log: log}, nil
}

func (i *Index) Index(message domain.Message) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewTextField(fieldContent, message.Content)).
		AddField(bluge.NewKeywordField(fieldSender, message.Sender.String())).
		AddField(bluge.NewDateTimeField(fieldCreatedAt, message.CreatedAt).Sortable())

	if message.IsGroup() {
		doc.AddField(bluge.NewKeywordField(fieldGroup, string(message.GroupID)))
	} else {
		doc.AddField(bluge.NewKeywordField(fieldParticipant, message.Sender.String()))
		if message.Receiver != message.Sender {
			doc.AddField(bluge.NewKeywordField(fieldParticipant, message.Receiver.String()))
		}
	}

	if err := i.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("%w: indexing message %s: %v", errors.ErrPersistence, message.ID, err)
	}
	return nil
}

// Search runs query restricted to what reader is allowed to see, newest first.
func (i *Index) Search(ctx context.Context, query Query, reader domain.Identity, groups []domain.GroupID) ([]uuid.UUID, error) {
	if query.IsEmpty() {
		return nil, fmt.Errorf("%w: empty search", errors.ErrInvalidRequest)
	}

	visibility := bluge.NewBooleanQuery().
		AddShould(bluge.NewTermQuery(reader.String()).SetField(fieldParticipant)).
		SetMinShould(1)
	for _, group := range groups {
		visibility.AddShould(bluge.NewTermQuery(string(group)).SetField(fieldGroup))
	}

	q := bluge.NewBooleanQuery().AddMust(visibility)
	if query.Terms != "" {
		q.AddMust(bluge.NewMatchQuery(query.Terms).SetField(fieldContent))
	}
	if query.From != "" {
		q.AddMust(bluge.NewTermQuery(query.From.String()).SetField(fieldSender))
	}
	if query.GroupID != "" {
		q.AddMust(bluge.NewTermQuery(string(query.GroupID)).SetField(fieldGroup))
	}

	limit := query.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	snapshot, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	defer func() { _ = snapshot.Close() }()

	request := bluge.NewTopNSearch(limit, q).SortBy([]string{"-" + fieldCreatedAt})
	matches, err := snapshot.Search(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	var ids []uuid.UUID
	match, err := matches.Next()
	for err == nil && match != nil {
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			if field != fieldID {
				return true
			}
			if id, parseErr := uuid.ParseBytes(value); parseErr == nil {
				ids = append(ids, id)
			}
			return false
		})
		if visitErr != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, visitErr)
		}
		match, err = matches.Next()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	i.log.Debug("Search executed", "reader", reader, "terms", query.Terms, "hits", len(ids))
	return ids, nil
}

func (i *Index) Close() error {
	return i.writer.Close()
}
