package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/observability"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestRouter(t *testing.T, groups contract.GroupDirectory) (*Router, *Registry, *observability.Metrics) {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewRegistry(4)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	return NewRouter(log, registry, groups, metrics), registry, metrics
}

func TestRouter_Direct_Offline_Recipient(t *testing.T) {
	req := require.New(t)
	router, _, _ := newTestRouter(t, nil)

	// Given alice has no live connection
	msg := domain.NewDirectMessage("bob", "alice", "hi", time.Now().UTC())

	// When bob's message is delivered
	report, err := router.Deliver(context.Background(), msg)

	// Then nothing is pushed and it is not an error
	req.NoError(err)
	req.Equal(contract.DeliveryReport{Targets: 1}, report)
}

func TestRouter_Direct_Multi_Device(t *testing.T) {
	req := require.New(t)
	router, registry, metrics := newTestRouter(t, nil)
	laptop := newFakeConnection("alice")
	phone := newFakeConnection("alice")
	bobConn := newFakeConnection("bob")
	req.NoError(registry.Admit("alice", laptop))
	req.NoError(registry.Admit("alice", phone))
	req.NoError(registry.Admit("bob", bobConn))

	at := time.Now().UTC()
	msg := domain.NewDirectMessage("bob", "alice", "hi", at)

	// When bob sends alice a message
	report, err := router.Deliver(context.Background(), msg)

	// Then both of alice's devices receive it
	req.NoError(err)
	req.Equal(2, report.Pushed)
	expected := event.NewMessage{MessageID: msg.ID, Sender: "bob", Content: "hi", Timestamp: at}
	req.Equal([]event.DomainEvent{expected}, laptop.received())
	req.Equal([]event.DomainEvent{expected}, phone.received())

	// And bob, who is not a recipient, gets nothing
	req.Empty(bobConn.received())
	req.Equal(2.0, testutil.ToFloat64(metrics.Pushes.WithLabelValues("direct", "success")))
}

func TestRouter_Group_Reaches_Members_Only(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	groups := mocks.NewMockGroupDirectory(ctrl)
	router, registry, _ := newTestRouter(t, groups)

	alice, bob, carol, mallory := newFakeConnection("alice"), newFakeConnection("bob"),
		newFakeConnection("carol"), newFakeConnection("mallory")
	for _, c := range []*fakeConnection{alice, bob, carol, mallory} {
		req.NoError(registry.Admit(c.Identity(), c))
	}

	// Given a group with members alice, bob and carol
	team := domain.Group{ID: "team", Name: "team", Members: []domain.Identity{"alice", "bob", "carol"}}
	groups.EXPECT().GetGroupByID(domain.GroupID("team")).Return(team, nil).Times(1)

	msg := domain.NewGroupMessage("alice", "team", "standup?", time.Now().UTC())

	// When alice posts to the group
	report, err := router.Deliver(context.Background(), msg)

	// Then every member, alice included, receives the event
	req.NoError(err)
	req.Equal(contract.DeliveryReport{Targets: 3, Pushed: 3}, report)
	for _, c := range []*fakeConnection{alice, bob, carol} {
		req.Len(c.received(), 1)
		groupEvt, ok := c.received()[0].(event.NewGroupMessage)
		req.True(ok)
		req.Equal("team", groupEvt.GroupID)
		req.Equal("alice", groupEvt.Sender)
		req.Equal("standup?", groupEvt.Content)
	}

	// And an identity outside the group never does
	req.Empty(mallory.received())
}

func TestRouter_Group_Membership_Is_Read_On_Each_Delivery(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	groups := mocks.NewMockGroupDirectory(ctrl)
	router, registry, _ := newTestRouter(t, groups)
	dave := newFakeConnection("dave")
	req.NoError(registry.Admit("dave", dave))

	before := domain.Group{ID: "team", Members: []domain.Identity{"alice"}}
	after := domain.Group{ID: "team", Members: []domain.Identity{"alice", "dave"}}
	gomock.InOrder(
		groups.EXPECT().GetGroupByID(domain.GroupID("team")).Return(before, nil),
		groups.EXPECT().GetGroupByID(domain.GroupID("team")).Return(after, nil),
	)

	_, err := router.Deliver(context.Background(), domain.NewGroupMessage("alice", "team", "one", time.Now()))
	req.NoError(err)
	req.Empty(dave.received())

	// When dave joins, the next message reaches him
	_, err = router.Deliver(context.Background(), domain.NewGroupMessage("alice", "team", "two", time.Now()))
	req.NoError(err)
	req.Len(dave.received(), 1)
}

func TestRouter_Group_Not_Found(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	groups := mocks.NewMockGroupDirectory(ctrl)
	router, _, _ := newTestRouter(t, groups)

	groups.EXPECT().GetGroupByID(gomock.Any()).Return(domain.Group{}, errors.ErrGroupNotFound)

	_, err := router.Deliver(context.Background(), domain.NewGroupMessage("alice", "ghost", "hello?", time.Now()))

	req.ErrorIs(err, errors.ErrGroupNotFound)
}

func TestRouter_Failed_Push_Does_Not_Stop_Others(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	router, registry, metrics := newTestRouter(t, nil)

	// Given one of alice's connections closes mid-push
	broken := mocks.NewMockConnection(ctrl)
	broken.EXPECT().ID().Return("broken").AnyTimes()
	broken.EXPECT().Push(gomock.Any(), gomock.Any()).Return(errors.ErrConnectionClosed).Times(1)
	healthy := newFakeConnection("alice")
	req.NoError(registry.Admit("alice", broken))
	req.NoError(registry.Admit("alice", healthy))

	// When a message is delivered
	report, err := router.Deliver(context.Background(), domain.NewDirectMessage("bob", "alice", "hi", time.Now()))

	// Then the healthy connection still receives it, with no retry on the broken one
	req.NoError(err)
	req.Equal(contract.DeliveryReport{Targets: 1, Pushed: 1, Failed: 1}, report)
	req.Len(healthy.received(), 1)
	req.Equal(1.0, testutil.ToFloat64(metrics.Pushes.WithLabelValues("direct", "failure")))
}

func TestRouter_Preserves_Sender_Order(t *testing.T) {
	req := require.New(t)
	router, registry, _ := newTestRouter(t, nil)
	alice := newFakeConnection("alice")
	req.NoError(registry.Admit("alice", alice))

	first := domain.NewDirectMessage("bob", "alice", "M1", time.Now())
	second := domain.NewDirectMessage("bob", "alice", "M2", time.Now())

	_, err := router.Deliver(context.Background(), first)
	req.NoError(err)
	_, err = router.Deliver(context.Background(), second)
	req.NoError(err)

	received := alice.received()
	req.Len(received, 2)
	req.Equal("M1", received[0].(event.NewMessage).Content)
	req.Equal("M2", received[1].(event.NewMessage).Content)
}

func TestRouter_Unsupported_Kind(t *testing.T) {
	router, _, _ := newTestRouter(t, nil)
	_, err := router.Deliver(context.Background(), domain.Message{Kind: "broadcast"})
	require.ErrorIs(t, err, errors.ErrUnsupportedMessage)
}
