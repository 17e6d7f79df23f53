package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/search"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/samber/lo"
)

const senderStripes = 64

type IChatService interface {
	SendDirect(ctx context.Context, cmd chat.SendDirectCommand) (domain.Message, error)
	SendGroup(ctx context.Context, cmd chat.SendGroupCommand) (domain.Message, error)
	ListMessages(cmd chat.ListMessagesCommand) ([]domain.Message, *string, error)
	ListGroupMessages(cmd chat.ListGroupMessagesCommand) ([]domain.Message, *string, error)
	Search(ctx context.Context, identity domain.Identity, raw string) ([]domain.Message, error)
}

// ChatService is the ingestion API: a message is validated, moderated and
// persisted before any delivery is attempted.
type ChatService struct {
	log              *slog.Logger
	users            repositories.IUserRepository
	messages         repositories.IMessageRepository
	groups           repositories.IGroupRepository
	index            search.IIndex
	router           contract.IRouter
	censorer         moderation.Censorer
	metrics          *observability.Metrics
	maxContentLength int
	now              func() time.Time

	// Persist and deliver run under the sender's stripe so that one sender's
	// messages reach every connection in persistence order.
	senders [senderStripes]sync.Mutex
}

func NewChatService(log *slog.Logger,
	users repositories.IUserRepository,
	messages repositories.IMessageRepository,
	groups repositories.IGroupRepository,
	index search.IIndex,
	router contract.IRouter,
	censorer moderation.Censorer,
	metrics *observability.Metrics,
	maxContentLength int) *ChatService {
	return &ChatService{
		log:              log,
		users:            users,
		messages:         messages,
		groups:           groups,
		index:            index,
		router:           router,
		censorer:         censorer,
		metrics:          metrics,
		maxContentLength: maxContentLength,
		now:              time.Now,
	}
}

func (s *ChatService) SendDirect(ctx context.Context, cmd chat.SendDirectCommand) (domain.Message, error) {
	if err := validateCommand(cmd); err != nil {
		return domain.Message{}, err
	}
	if err := validateContent(cmd.Content, s.maxContentLength); err != nil {
		return domain.Message{}, err
	}

	exists, err := s.users.Exists(cmd.Receiver)
	if err != nil {
		return domain.Message{}, err
	}
	if !exists {
		return domain.Message{}, fmt.Errorf("%w: user %s", errors.ErrTargetNotFound, cmd.Receiver)
	}

	return s.ingest(ctx, cmd.Sender, func(content string, at time.Time) domain.Message {
		return domain.NewDirectMessage(cmd.Sender, cmd.Receiver, content, at)
	}, cmd.Content)
}

func (s *ChatService) SendGroup(ctx context.Context, cmd chat.SendGroupCommand) (domain.Message, error) {
	if err := validateCommand(cmd); err != nil {
		return domain.Message{}, err
	}
	if err := validateContent(cmd.Content, s.maxContentLength); err != nil {
		return domain.Message{}, err
	}

	group, err := s.groups.GetGroupByID(cmd.GroupID)
	if errors.Is(err, errors.ErrGroupNotFound) {
		return domain.Message{}, fmt.Errorf("%w: %w", errors.ErrTargetNotFound, err)
	}
	if err != nil {
		return domain.Message{}, err
	}
	if !group.HasMember(cmd.Sender) {
		return domain.Message{}, errors.ErrNotGroupMember
	}

	return s.ingest(ctx, cmd.Sender, func(content string, at time.Time) domain.Message {
		return domain.NewGroupMessage(cmd.Sender, cmd.GroupID, content, at)
	}, cmd.Content)
}

// ingest runs the common tail of both send operations. Only a persistence
// failure is reported to the caller; indexing and delivery are best effort.
func (s *ChatService) ingest(ctx context.Context, sender domain.Identity,
	build func(content string, at time.Time) domain.Message, content string) (domain.Message, error) {
	result := s.censorer.Censor(content)
	if result.Censored() {
		s.log.Warn("Message content censored",
			"sender", sender,
			"words", len(result.Words),
			"lang", result.Language)
	}

	lock := &s.senders[xxhash.Sum64String(sender.String())%senderStripes]
	lock.Lock()
	defer lock.Unlock()

	message := build(result.Content, s.now().UTC())
	if err := s.messages.StoreMessage(message); err != nil {
		return domain.Message{}, err
	}
	s.metrics.ObserveIngested(message.Kind)

	if err := s.index.Index(message); err != nil {
		s.log.Warn("Indexing failed, message will not be searchable", "message_id", message.ID, "error", err)
	}

	report, err := s.router.Deliver(ctx, message)
	if err != nil {
		s.log.Error("Delivery failed after persistence", "message_id", message.ID, "error", err)
		return message, nil
	}
	s.log.Debug("Message delivered",
		"message_id", message.ID,
		"kind", message.Kind,
		"targets", report.Targets,
		"pushed", report.Pushed,
		"failed", report.Failed)
	return message, nil
}

// ListMessages returns the direct messages sent or received by the identity, newest first.
func (s *ChatService) ListMessages(cmd chat.ListMessagesCommand) ([]domain.Message, *string, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, nil, err
	}
	return s.messages.GetMessagesForUser(cmd.Identity, cmd.Cursor, cmd.Limit)
}

// ListGroupMessages returns a group timeline, readable by members only.
func (s *ChatService) ListGroupMessages(cmd chat.ListGroupMessagesCommand) ([]domain.Message, *string, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, nil, err
	}
	group, err := s.groups.GetGroupByID(cmd.GroupID)
	if err != nil {
		return nil, nil, err
	}
	if !group.HasMember(cmd.Identity) {
		return nil, nil, errors.ErrNotGroupMember
	}
	return s.messages.GetGroupMessages(cmd.GroupID, cmd.Cursor, cmd.Limit)
}

// Search looks up messages visible to identity: its direct conversations and
// the groups it currently belongs to.
func (s *ChatService) Search(ctx context.Context, identity domain.Identity, raw string) ([]domain.Message, error) {
	query := search.NewQuery(raw)
	if query.IsEmpty() {
		return nil, fmt.Errorf("%w: empty search", errors.ErrInvalidRequest)
	}

	groups, err := s.groups.GetGroupsForMember(identity)
	if err != nil {
		return nil, err
	}
	groupIDs := lo.Map(groups, func(g domain.Group, _ int) domain.GroupID { return g.ID })
	if query.GroupID != "" && !lo.Contains(groupIDs, query.GroupID) {
		return nil, errors.ErrNotGroupMember
	}

	ids, err := s.index.Search(ctx, query, identity, groupIDs)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Message{}, nil
	}
	return s.messages.GetMessagesByIDs(ids)
}
