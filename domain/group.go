package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type GroupID string

func NewGroupID() GroupID { return GroupID(uuid.NewString()) }

// Group is a named set of members. The creator is always a member and an admin.
type Group struct {
	ID        GroupID
	Name      string
	Members   []Identity
	Admins    []Identity
	CreatedAt time.Time
}

// NewGroup builds a group owned by creator. Duplicated members are collapsed
// and the creator is always placed first.
func NewGroup(creator Identity, name string, members []Identity, at time.Time) Group {
	all := lo.Uniq(append([]Identity{creator}, members...))
	return Group{
		ID:        NewGroupID(),
		Name:      name,
		Members:   all,
		Admins:    []Identity{creator},
		CreatedAt: at,
	}
}

func (g Group) HasMember(identity Identity) bool {
	return lo.Contains(g.Members, identity)
}

func (g Group) IsAdmin(identity Identity) bool {
	return lo.Contains(g.Admins, identity)
}
