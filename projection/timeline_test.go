package projection

import (
	"chat-relay/client"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimeline_Load_Orders_Oldest_First(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()
	now := time.Now()

	// Given a page returned newest first
	added := timeline.Load(client.Page{Messages: []client.Message{
		{ID: "m2", Sender: "Clara", Content: "Hi Bob", CreatedAt: now.Add(time.Second)},
		{ID: "m1", Sender: "Alice", Content: "Hello Bob", CreatedAt: now},
	}})

	req.Len(added, 2)
	req.Equal("m1", added[0].ID)
	req.Equal("Alice", timeline.Messages[0].Sender)
	req.Equal("Clara", timeline.Messages[1].Sender)
}

func TestTimeline_Consume_Deduplicates(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()
	timeline.Load(client.Page{Messages: []client.Message{{ID: "m1", Sender: "Alice", CreatedAt: time.Now()}}})

	// When the same message arrives live
	_, isNew := timeline.Consume(client.Event{Type: "newMessage", Data: client.EventData{MessageID: "m1", Sender: "Alice"}})
	req.False(isNew)

	// And a group message follows
	m, isNew := timeline.Consume(client.Event{Type: "newGroupMessage", Data: client.EventData{MessageID: "m2", GroupID: "team", Sender: "Bob"}})
	req.True(isNew)
	req.Equal("group", m.Kind)
	req.Equal(2, timeline.Len())
}
