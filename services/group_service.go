package services

import (
	"chat-relay/domain"
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"chat-relay/repositories"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
)

type IGroupService interface {
	CreateGroup(cmd chat.CreateGroupCommand) (domain.Group, error)
	ListGroups(identity domain.Identity) ([]domain.Group, error)
}

type GroupService struct {
	log    *slog.Logger
	users  repositories.IUserRepository
	groups repositories.IGroupRepository
}

func NewGroupService(log *slog.Logger, users repositories.IUserRepository, groups repositories.IGroupRepository) *GroupService {
	return &GroupService{log: log, users: users, groups: groups}
}

// CreateGroup creates a group owned by the creator. Every other member must
// be a registered user.
func (s *GroupService) CreateGroup(cmd chat.CreateGroupCommand) (domain.Group, error) {
	cmd.Name = strings.TrimSpace(cmd.Name)
	if err := validateCommand(cmd); err != nil {
		return domain.Group{}, err
	}

	others := lo.Without(lo.Uniq(cmd.Members), cmd.Creator)
	for _, member := range others {
		exists, err := s.users.Exists(member)
		if err != nil {
			return domain.Group{}, err
		}
		if !exists {
			return domain.Group{}, fmt.Errorf("%w: %s", errors.ErrUserNotFound, member)
		}
	}

	group := domain.NewGroup(cmd.Creator, cmd.Name, others, time.Now().UTC())
	if err := s.groups.CreateGroup(group); err != nil {
		return domain.Group{}, err
	}
	s.log.Info("Group created", "group_id", group.ID, "creator", cmd.Creator, "members", len(group.Members))
	return group, nil
}

func (s *GroupService) ListGroups(identity domain.Identity) ([]domain.Group, error) {
	groups, err := s.groups.GetGroupsForMember(identity)
	if err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []domain.Group{}
	}
	return groups, nil
}
