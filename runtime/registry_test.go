package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Lookup_Unknown_Identity(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(4)

	// Given nobody is connected
	// Then lookup returns nothing
	req.Empty(registry.Lookup("alice"))
	req.Zero(registry.Count())
}

func TestRegistry_Admit_Then_Remove(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(4)
	conn := newFakeConnection("alice")

	// Given alice's connection is admitted
	req.NoError(registry.Admit("alice", conn))
	req.Equal([]contract.Connection{conn}, registry.Lookup("alice"))

	// When the connection is removed
	registry.Remove(conn)

	// Then alice has no connection left
	// And no empty entry survives
	req.Empty(registry.Lookup("alice"))
	req.Zero(identities(registry))

	// And removing again is a no-op
	registry.Remove(conn)
	req.Empty(registry.Lookup("alice"))
	req.Zero(registry.Count())
}

func TestRegistry_Multi_Device(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(4)
	laptop := newFakeConnection("alice")
	phone := newFakeConnection("alice")

	// When alice connects from two devices
	req.NoError(registry.Admit("alice", laptop))
	req.NoError(registry.Admit("alice", phone))

	// Then both are reachable
	conns := registry.Lookup("alice")
	req.Len(conns, 2)
	req.Contains(conns, laptop)
	req.Contains(conns, phone)

	// When one device disconnects the other stays reachable
	registry.Remove(laptop)
	req.Equal([]contract.Connection{phone}, registry.Lookup("alice"))
}

func TestRegistry_Admit_Twice_Same_Identity_Is_Noop(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(4)
	conn := newFakeConnection("alice")

	req.NoError(registry.Admit("alice", conn))
	req.NoError(registry.Admit("alice", conn))

	req.Len(registry.Lookup("alice"), 1)
	req.Equal(1, registry.Count())
}

func TestRegistry_Admit_Under_Another_Identity_Fails(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(4)
	conn := newFakeConnection("alice")

	// Given the connection is bound to alice
	req.NoError(registry.Admit("alice", conn))

	// When it is admitted again for bob
	err := registry.Admit("bob", conn)

	// Then the binding is refused and nothing changes
	req.ErrorIs(err, errors.ErrAlreadyBound)
	req.Empty(registry.Lookup("bob"))
	req.Len(registry.Lookup("alice"), 1)
}

func TestRegistry_Concurrent_Admit_Remove(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(8)
	const users, devices = 20, 5

	var conns []*fakeConnection
	for u := 0; u < users; u++ {
		for d := 0; d < devices; d++ {
			conns = append(conns, newFakeConnection(domain.Identity(fmt.Sprintf("user-%d", u))))
		}
	}

	// When every connection is admitted concurrently
	var wg sync.WaitGroup
	for _, c := range conns {
		wg.Add(1)
		go func(c *fakeConnection) {
			defer wg.Done()
			req.NoError(registry.Admit(c.Identity(), c))
		}(c)
	}
	wg.Wait()
	req.Equal(users*devices, registry.Count())

	// And every connection is removed twice, racing with lookups
	for _, c := range conns {
		wg.Add(3)
		go func(c *fakeConnection) { defer wg.Done(); registry.Remove(c) }(c)
		go func(c *fakeConnection) { defer wg.Done(); registry.Remove(c) }(c)
		go func(c *fakeConnection) { defer wg.Done(); _ = registry.Lookup(c.Identity()) }(c)
	}
	wg.Wait()

	// Then the registry is empty, without lost or duplicated entries
	req.Zero(registry.Count())
	req.Zero(identities(registry))
}

func TestRegistry_Default_Shards(t *testing.T) {
	registry := NewRegistry(0)
	require.Len(t, registry.shards, DefaultShardCount)
}
