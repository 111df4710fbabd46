//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/chat"
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

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
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

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Transport is the outbound half of one client connection.
// Consume enqueues in FIFO order and returns once enqueued or failed.
// Close must not block and may be called more than once.
type Transport interface {
	EventSink
	Close()
}

// Audience lists the transports of everyone currently online.
type Audience interface {
	Transports() []Transport
}

// Authenticator verifies a bearer credential presented at connect time.
type Authenticator interface {
	Verify(ctx context.Context, credential string) (domain.Principal, error)
}

// Directory owns block relationships and reports.
type Directory interface {
	IsBlocked(ctx context.Context, blocker, blocked domain.Identity) (bool, error)
	RecordReport(ctx context.Context, report chat.Report) error
}

// Translator performs one blocking translation call.
type Translator interface {
	Translate(ctx context.Context, text string, target domain.Language) (string, error)
}
