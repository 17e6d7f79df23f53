package runtime

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"sync"

	"github.com/google/uuid"
)

// fakeConnection records every event pushed to it.
type fakeConnection struct {
	mu       sync.Mutex
	id       string
	identity domain.Identity
	events   []event.DomainEvent
	closed   bool
}

func newFakeConnection(identity domain.Identity) *fakeConnection {
	return &fakeConnection{id: uuid.NewString(), identity: identity}
}

func (f *fakeConnection) ID() string                { return f.id }
func (f *fakeConnection) Identity() domain.Identity { return f.identity }

func (f *fakeConnection) Push(_ context.Context, e event.DomainEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.ErrConnectionClosed
	}
	f.events = append(f.events, e)
	return nil
}

func (f *fakeConnection) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConnection) received() []event.DomainEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]event.DomainEvent(nil), f.events...)
}

// identities counts the registry entries, empty ones included.
func identities(r *Registry) int {
	total := 0
	for _, s := range r.shards {
		s.mu.RLock()
		total += len(s.connections)
		s.mu.RUnlock()
	}
	return total
}
