//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker lifecycle events,
// avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Connection is a live channel to one client process, bound to one identity.
type Connection interface {
	ID() string
	Identity() domain.Identity
	Push(ctx context.Context, e event.DomainEvent) error
	Close() error
}

type IRegistry interface {
	Admit(identity domain.Identity, conn Connection) error
	Remove(conn Connection)
	Lookup(identity domain.Identity) []Connection
	Count() int
}

type IRouter interface {
	Deliver(ctx context.Context, message domain.Message) (DeliveryReport, error)
}

// DeliveryReport summarises one Deliver call.
type DeliveryReport struct {
	Targets int
	Pushed  int
	Failed  int
}

// GroupDirectory resolves group membership at delivery time.
type GroupDirectory interface {
	GetGroupByID(id domain.GroupID) (domain.Group, error)
}

type TokenVerifier interface {
	Verify(token string) (domain.Identity, error)
}
