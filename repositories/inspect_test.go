package repositories

import (
	"chat-relay/domain"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestScan_Renders_Stored_Entities(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	at := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	// Given a user, a group and a direct message
	req.NoError(NewUserRepository(db).CreateUser(domain.User{ID: "u1", Username: "alice", CreatedAt: at}))
	group := domain.NewGroup("alice", "team", []domain.Identity{"bob"}, at)
	req.NoError(NewGroupRepository(db).CreateGroup(group))
	message := domain.NewDirectMessage("alice", "bob", "hello", at)
	req.NoError(NewMessageRepository(db, logs.GetLoggerFromLevel(slog.LevelDebug), 10).StoreMessage(message))

	collect := func(prefix string) []database.InspectRow {
		var rows []database.InspectRow
		req.NoError(Scan(db, prefix, func(row database.InspectRow) { rows = append(rows, row) }))
		return rows
	}

	// Then each namespace is decoded
	users := collect("user:")
	req.Len(users, 1)
	req.Equal("USER", users[0].Type)
	req.Equal("alice", users[0].EntityID)

	messages := collect("msg:")
	req.Len(messages, 1)
	req.Equal("DIRECT", messages[0].Type)
	req.Equal("alice: hello", messages[0].Detail)
	req.Equal("bob", messages[0].Namespace)

	groups := collect("group:")
	req.Len(groups, 1)
	req.Equal("team (2 members)", groups[0].Detail)

	// And both inboxes index the message
	inboxes := collect("inbox:")
	req.Len(inboxes, 2)
	req.Equal("INDEX", inboxes[0].Type)
}

func TestInspectMapper_Undecodable_Value(t *testing.T) {
	row := InspectMapper("msg:broken", []byte{0xc1})
	require.Equal(t, "Error: unmarshal failed", row.Detail)
}
