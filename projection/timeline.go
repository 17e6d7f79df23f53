// Package projection builds local timelines from history pages and live events.
// Handles ordering and deduplication, never talks to the server itself.
package projection

import (
	"chat-relay/client"
	"sort"
	"sync"
)

// Timeline holds the messages seen by one client, oldest first.
type Timeline struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	Messages []client.Message
}

func NewTimeline() *Timeline {
	return &Timeline{seen: make(map[string]struct{})}
}

// Load merges a history page, which the server returns newest first.
func (t *Timeline) Load(page client.Page) []client.Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	var added []client.Message
	for _, m := range page.Messages {
		if t.add(m) {
			added = append(added, m)
		}
	}
	sort.SliceStable(t.Messages, func(i, j int) bool {
		return t.Messages[i].CreatedAt.Before(t.Messages[j].CreatedAt)
	})
	sort.SliceStable(added, func(i, j int) bool { return added[i].CreatedAt.Before(added[j].CreatedAt) })
	return added
}

// Consume appends a live event and reports whether it was new. A message
// fetched by history and then pushed live is only kept once.
func (t *Timeline) Consume(e client.Event) (client.Message, bool) {
	m := fromEvent(e)
	t.mu.Lock()
	defer t.mu.Unlock()
	return m, t.add(m)
}

func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Messages)
}

func (t *Timeline) add(m client.Message) bool {
	if _, ok := t.seen[m.ID]; ok || m.ID == "" {
		return false
	}
	t.seen[m.ID] = struct{}{}
	t.Messages = append(t.Messages, m)
	return true
}

func fromEvent(e client.Event) client.Message {
	kind := "direct"
	if e.Data.GroupID != "" {
		kind = "group"
	}
	return client.Message{
		ID:        e.Data.MessageID,
		Kind:      kind,
		Sender:    e.Data.Sender,
		GroupID:   e.Data.GroupID,
		Content:   e.Data.Content,
		CreatedAt: e.Data.Timestamp,
	}
}
