//go:generate go run go.uber.org/mock/mockgen -source=group.go -destination=../mocks/mock_group_repository.go -package=mocks
package repositories

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type IGroupRepository interface {
	CreateGroup(group domain.Group) error
	GetGroupByID(id domain.GroupID) (domain.Group, error)
	GetGroupsForMember(identity domain.Identity) ([]domain.Group, error)
}

var _ contract.GroupDirectory = GroupRepository{}

type GroupRepository struct {
	db *badger.DB
}

func NewGroupRepository(db *badger.DB) GroupRepository {
	return GroupRepository{db: db}
}

type diskGroup struct {
	ID        string    `msgpack:"id"`
	Name      string    `msgpack:"name"`
	Members   []string  `msgpack:"members"`
	Admins    []string  `msgpack:"admins"`
	CreatedAt time.Time `msgpack:"created_at"`
}

func groupKey(id domain.GroupID) []byte { return []byte("group:" + string(id)) }

func memberPrefix(identity domain.Identity) string { return "member:" + identity.String() + ":" }

// CreateGroup stores the group and one membership key per member,
// "member:{username}:{group_id}", so groups of a user are a prefix scan away.
func (g GroupRepository) CreateGroup(group domain.Group) error {
	toStrings := func(ids []domain.Identity) []string {
		return lo.Map(ids, func(id domain.Identity, _ int) string { return id.String() })
	}
	dg := diskGroup{
		ID:        string(group.ID),
		Name:      group.Name,
		Members:   toStrings(group.Members),
		Admins:    toStrings(group.Admins),
		CreatedAt: group.CreatedAt,
	}
	err := g.db.Update(func(txn *badger.Txn) error {
		if err := setValue(txn, groupKey(group.ID), dg); err != nil {
			return err
		}
		for _, member := range group.Members {
			if err := txn.Set([]byte(memberPrefix(member)+string(group.ID)), nil); err != nil {
				return err
			}
		}
		return nil
	})
	return persistence(err)
}

// GetGroupByID always reads the stored membership, nothing is cached.
func (g GroupRepository) GetGroupByID(id domain.GroupID) (domain.Group, error) {
	var group domain.Group
	err := g.db.View(func(txn *badger.Txn) error {
		var err error
		group, err = loadGroup(txn, id)
		return err
	})
	return group, persistence(err)
}

// GetGroupsForMember returns the groups identity belongs to, oldest first.
func (g GroupRepository) GetGroupsForMember(identity domain.Identity) ([]domain.Group, error) {
	var groups []domain.Group
	err := g.db.View(func(txn *badger.Txn) error {
		prefix := []byte(memberPrefix(identity))
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			id := domain.GroupID(it.Item().Key()[len(prefix):])
			group, err := loadGroup(txn, id)
			if err != nil {
				return err
			}
			groups = append(groups, group)
		}
		return nil
	})
	if err != nil {
		return nil, persistence(err)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].CreatedAt.Before(groups[j].CreatedAt) })
	return groups, nil
}

func loadGroup(txn *badger.Txn, id domain.GroupID) (domain.Group, error) {
	var dg diskGroup
	if err := getValue(txn, groupKey(id), &dg, errors.ErrGroupNotFound); err != nil {
		return domain.Group{}, err
	}
	toIdentities := func(names []string) []domain.Identity {
		return lo.Map(names, func(name string, _ int) domain.Identity { return domain.Identity(name) })
	}
	return domain.Group{
		ID:        domain.GroupID(dg.ID),
		Name:      dg.Name,
		Members:   toIdentities(dg.Members),
		Admins:    toIdentities(dg.Admins),
		CreatedAt: dg.CreatedAt.UTC(),
	}, nil
}
