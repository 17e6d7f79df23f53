// Package runtime holds the real-time delivery core: the connection registry
// and the router fanning persisted messages out to live connections.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"sync"

	"github.com/cespare/xxhash/v2"
)

const DefaultShardCount = 32

var _ contract.IRegistry = (*Registry)(nil)

type shard struct {
	mu          sync.RWMutex
	connections map[domain.Identity]map[string]contract.Connection // identity -> connection id -> connection
}

// Registry maps identities to their currently open connections.
// Identities are spread over independently locked shards so that admission
// and removal for different users rarely contend.
type Registry struct {
	shards   []*shard
	bindings sync.Map // connection id -> domain.Identity
}

func NewRegistry(shardCount int) *Registry {
	if shardCount <= 0 {
		shardCount = DefaultShardCount
	}
	shards := make([]*shard, shardCount)
	for i := range shards {
		shards[i] = &shard{connections: make(map[domain.Identity]map[string]contract.Connection)}
	}
	return &Registry{shards: shards}
}

func (r *Registry) shardFor(identity domain.Identity) *shard {
	return r.shards[xxhash.Sum64String(string(identity))%uint64(len(r.shards))]
}

// Admit records that conn is open and bound to identity.
// Admitting the same connection twice under the same identity is a no-op.
func (r *Registry) Admit(identity domain.Identity, conn contract.Connection) error {
	s := r.shardFor(identity)
	s.mu.Lock()
	defer s.mu.Unlock()

	if bound, loaded := r.bindings.LoadOrStore(conn.ID(), identity); loaded && bound != identity {
		return errors.ErrAlreadyBound
	}

	conns, ok := s.connections[identity]
	if !ok {
		conns = make(map[string]contract.Connection)
		s.connections[identity] = conns
	}
	conns[conn.ID()] = conn
	return nil
}

// Remove detaches conn from the identity it was bound to.
// It is a no-op when the connection is unknown or already removed.
func (r *Registry) Remove(conn contract.Connection) {
	bound, ok := r.bindings.Load(conn.ID())
	if !ok {
		return
	}
	identity := bound.(domain.Identity)

	s := r.shardFor(identity)
	s.mu.Lock()
	defer s.mu.Unlock()

	// A concurrent Remove may have won the race while we were waiting for the lock.
	if _, ok = r.bindings.LoadAndDelete(conn.ID()); !ok {
		return
	}
	if conns, exists := s.connections[identity]; exists {
		delete(conns, conn.ID())
		// No empty sets are left behind to prevent leaks over time
		if len(conns) == 0 {
			delete(s.connections, identity)
		}
	}
}

// Lookup returns a snapshot of the open connections of identity.
// It returns nil when the identity has no live connection.
func (r *Registry) Lookup(identity domain.Identity) []contract.Connection {
	s := r.shardFor(identity)
	s.mu.RLock()
	defer s.mu.RUnlock()

	conns, ok := s.connections[identity]
	if !ok {
		return nil
	}
	snapshot := make([]contract.Connection, 0, len(conns))
	for _, c := range conns {
		snapshot = append(snapshot, c)
	}
	return snapshot
}

// Count returns the number of admitted connections across all identities.
func (r *Registry) Count() int {
	total := 0
	for _, s := range r.shards {
		s.mu.RLock()
		for _, conns := range s.connections {
			total += len(conns)
		}
		s.mu.RUnlock()
	}
	return total
}
