package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/observability"
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
)

var _ contract.IRouter = (*Router)(nil)

// Router fans a persisted message out to the live connections of its targets.
//
// Delivery is best-effort and at-most-once per live connection: offline
// identities are skipped, a failed push is logged and never retried, and a
// failure on one connection never prevents pushes to the others.
// Do not add retries here without revisiting the failure model.
type Router struct {
	log      *slog.Logger
	registry contract.IRegistry
	groups   contract.GroupDirectory
	metrics  *observability.Metrics
}

func NewRouter(log *slog.Logger, registry contract.IRegistry,
	groups contract.GroupDirectory, metrics *observability.Metrics) *Router {
	return &Router{log: log, registry: registry, groups: groups, metrics: metrics}
}

// Deliver resolves the target set of message and pushes its event to every
// live connection found in the registry. Group membership is read fresh on
// each call, never cached.
func (r *Router) Deliver(ctx context.Context, message domain.Message) (contract.DeliveryReport, error) {
	targets, err := r.targets(message)
	if err != nil {
		return contract.DeliveryReport{}, err
	}

	evt := event.FromMessage(message)
	report := contract.DeliveryReport{Targets: len(targets)}
	for _, identity := range targets {
		for _, conn := range r.registry.Lookup(identity) {
			if err = conn.Push(ctx, evt); err != nil {
				report.Failed++
				r.metrics.ObservePush(message.Kind, false)
				r.log.Debug("Push failed, skipping connection",
					"identity", identity,
					"connection_id", conn.ID(),
					"message_id", message.ID,
					"error", err)
				continue
			}
			report.Pushed++
			r.metrics.ObservePush(message.Kind, true)
		}
	}
	return report, nil
}

// targets computes the set of identities that must receive message.
func (r *Router) targets(message domain.Message) ([]domain.Identity, error) {
	switch message.Kind {
	case domain.DirectMessage:
		return []domain.Identity{message.Receiver}, nil
	case domain.GroupMessage:
		group, err := r.groups.GetGroupByID(message.GroupID)
		if err != nil {
			return nil, fmt.Errorf("resolving members of group %s: %w", message.GroupID, err)
		}
		return lo.Uniq(group.Members), nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnsupportedMessage, message.Kind)
	}
}
