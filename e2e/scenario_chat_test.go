package e2e

import (
	"chat-relay/client"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type chatSuite struct {
	BaseSuite
}

func TestChatSuite(t *testing.T) {
	suite.Run(t, &chatSuite{})
}

func (s *chatSuite) TestDirectMessageFlow() {
	alice, _ := s.NewUser("alice")
	bob, bobName := s.NewUser("bob")

	events, stop := s.Listen(bob)
	defer stop()
	// Leave the handshake time to complete before sending
	time.Sleep(200 * time.Millisecond)

	s.Step("alice sends bob a message")
	ctx, cancel := s.Context()
	defer cancel()
	sent, err := alice.SendDirect(ctx, bobName, "hello bob")
	s.Require().NoError(err)

	s.Step("bob receives it live and in history")
	evt := s.Await(events)
	s.Equal("newMessage", evt.Type)
	s.Equal(sent.ID, evt.Data.MessageID)

	page, err := bob.History(ctx, "", 10)
	s.Require().NoError(err)
	s.Require().NotEmpty(page.Messages)
	s.Equal(sent.ID, page.Messages[0].ID)
}

func (s *chatSuite) TestUnknownReceiver() {
	alice, _ := s.NewUser("alice")
	ctx, cancel := s.Context()
	defer cancel()

	_, err := alice.SendDirect(ctx, "nobody-that-exists", "hi")

	var apiErr *client.APIError
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusNotFound, apiErr.Status)
}
