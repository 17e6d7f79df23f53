package e2e

import (
	"chat-relay/client"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
)

type BaseSuite struct {
	suite.Suite
	Config  Config
	timeout time.Duration
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerURL == "" {
		s.T().Skip("CHAT_SERVER_URL not set")
	}
	s.timeout, err = time.ParseDuration(s.Config.Timeout)
	s.Require().NoError(err)
}

// Step prints a colorized header for a scenario step.
func (s *BaseSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// NewUser registers and logs in a fresh account, its name prefixed for readability.
func (s *BaseSuite) NewUser(prefix string) (*client.Client, string) {
	username := prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	c := client.New(s.Config.ServerURL, s.timeout)
	ctx, cancel := s.Context()
	defer cancel()
	s.Require().NoError(c.Register(ctx, username, "e2e-password"))
	s.Require().NoError(c.Login(ctx, username, "e2e-password"))
	return c, username
}

func (s *BaseSuite) Context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Listen streams the live events of c into the returned channel until the suite step ends.
func (s *BaseSuite) Listen(c *client.Client) (<-chan client.Event, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan client.Event, 16)
	go func() {
		defer close(events)
		_ = c.Listen(ctx, func(e client.Event) { events <- e })
	}()
	return events, cancel
}

func (s *BaseSuite) Await(events <-chan client.Event) client.Event {
	select {
	case evt, ok := <-events:
		s.Require().True(ok, "live channel closed")
		return evt
	case <-time.After(s.timeout):
		s.FailNow("no live event received")
		return client.Event{}
	}
}
