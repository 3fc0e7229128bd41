// Package broadcast delivers committed mutations to live observers.
//
// Publish is called once per commit, from inside the committing task's lock,
// so for any single task observers see events in commit order. Nothing is
// buffered for observers that connect later; they fetch a snapshot instead.
package broadcast

import (
	"context"

	"github.com/google/uuid"
)

type Kind string

const (
	TaskCreated Kind = "task.created"
	TaskUpdated Kind = "task.updated"
	TaskDeleted Kind = "task.deleted"
	LogCreated  Kind = "log.created"
)

// Event is one published notification. Payload is the fully resolved entity
// (or the task id for deletions), ready to be JSON encoded.
type Event struct {
	Kind    Kind      `json:"kind"`
	TaskID  uuid.UUID `json:"taskId"`
	Payload any       `json:"payload"`
}

// Broadcaster publishes events. Implementations must not block on slow
// observers and must not fail the caller's mutation.
type Broadcaster interface {
	Publish(ctx context.Context, ev Event)
}

// Fanout publishes every event to each broadcaster in order.
type Fanout []Broadcaster

func (f Fanout) Publish(ctx context.Context, ev Event) {
	for _, b := range f {
		b.Publish(ctx, ev)
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) {}
