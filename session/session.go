// Package session implements the lifecycle of one live-event connection:
// token authentication, admission into the registry, websocket pumps and close.
package session

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

type State int

const (
	Connecting State = iota
	Authenticating
	Admitted
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Authenticating:
		return "authenticating"
	case Admitted:
		return "admitted"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const DefaultBufferSize = 64

var _ contract.Connection = (*Session)(nil)

// Session is a single client connection on the live-event channel.
// Transitions only move forward: Connecting -> Authenticating -> Admitted -> Closed,
// and any state may jump to Closed.
type Session struct {
	id       string
	log      *slog.Logger
	registry contract.IRegistry
	send     chan []byte
	done     chan struct{}

	mu       sync.Mutex
	state    State
	identity domain.Identity
}

func New(log *slog.Logger, registry contract.IRegistry, bufferSize int) *Session {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	id := uuid.NewString()
	return &Session{
		id:       id,
		log:      log.With("connection_id", id),
		registry: registry,
		send:     make(chan []byte, bufferSize),
		done:     make(chan struct{}),
		state:    Connecting,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Identity() domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once the session reaches Closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Authenticate validates token synchronously and binds the resulting identity.
// A rejected token closes the session without touching the registry.
func (s *Session) Authenticate(verifier contract.TokenVerifier, token string) (domain.Identity, error) {
	if err := s.transition(Connecting, Authenticating); err != nil {
		return "", err
	}

	identity, err := verifier.Verify(token)
	if err == nil && identity == "" {
		err = errors.ErrUnauthenticated
	}
	if err != nil {
		_ = s.Close()
		if !errors.Is(err, errors.ErrUnauthenticated) {
			err = fmt.Errorf("%w: %v", errors.ErrUnauthenticated, err)
		}
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Authenticating {
		return "", errors.ErrConnectionClosed
	}
	s.identity = identity
	return identity, nil
}

// Admit records the authenticated session in the registry.
func (s *Session) Admit() error {
	s.mu.Lock()
	if s.state != Authenticating || s.identity == "" {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: admit from %s", errors.ErrInvalidTransition, state)
	}
	if err := s.registry.Admit(s.identity, s); err != nil {
		s.mu.Unlock()
		_ = s.Close()
		return err
	}
	s.state = Admitted
	identity := s.identity
	s.mu.Unlock()

	s.log.Debug("Connection admitted", "identity", identity)
	return nil
}

// Close moves the session to Closed and releases its registry slot.
// Calling it more than once is harmless.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == Closed {
		s.mu.Unlock()
		return nil
	}
	previous := s.state
	s.state = Closed
	close(s.done)
	s.mu.Unlock()

	if previous == Admitted {
		s.registry.Remove(s)
		s.log.Debug("Connection closed", "identity", s.Identity())
	}
	return nil
}

// Push enqueues evt on the outbound queue without blocking.
// A connection whose queue is full is considered too slow and gets closed.
func (s *Session) Push(_ context.Context, evt event.DomainEvent) error {
	select {
	case <-s.done:
		return errors.ErrConnectionClosed
	default:
	}

	payload, err := json.Marshal(event.Wrap(evt))
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", evt.EventType(), err)
	}

	select {
	case <-s.done:
		return errors.ErrConnectionClosed
	case s.send <- payload:
		return nil
	default:
		s.log.Warn("Send buffer full, closing slow connection", "identity", s.Identity())
		_ = s.Close()
		return errors.ErrSendBufferFull
	}
}

func (s *Session) transition(from, to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return fmt.Errorf("%w: %s -> %s from %s", errors.ErrInvalidTransition, from, to, s.state)
	}
	s.state = to
	return nil
}
