// Package audit records one human-readable entry per committed mutation.
// Recording is best-effort: failures are logged and never reach the caller.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/broadcast"
	"taskboard/internal/dto"
	"taskboard/internal/logger"
	"taskboard/internal/model"
)

type LogWriter interface {
	Create(ctx context.Context, entry *model.ActionLog) error
}

type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type Recorder struct {
	logs   LogWriter
	users  UserLookup
	events broadcast.Broadcaster
	now    func() time.Time
}

func NewRecorder(logs LogWriter, users UserLookup, events broadcast.Broadcaster) *Recorder {
	return &Recorder{logs: logs, users: users, events: events, now: time.Now}
}

// Record persists the entry for m and publishes it as log.created.
func (r *Recorder) Record(ctx context.Context, m Mutation, actorID uuid.UUID) {
	ctx = context.WithoutCancel(ctx)
	task := m.task()
	log := logger.FromContext(ctx).With("task_id", task.ID, "actor_id", actorID)

	actor, err := r.users.GetByID(ctx, actorID)
	if err != nil {
		log.Warn("audit: actor lookup failed", "error", err)
	}
	actorName := actorID.String()
	if actor != nil {
		actorName = actor.Username
	}

	action, message := Classify(m, actorName)
	entry := &model.ActionLog{
		ID:        uuid.New(),
		Action:    action,
		Message:   message,
		TaskID:    task.ID,
		TaskTitle: task.Title,
		UserID:    actorID,
		CreatedAt: r.now(),
	}
	if (m.Kind == MutationAssign || m.Kind == MutationCreate) && m.After != nil && m.After.AssignedTo != nil {
		id := *m.After.AssignedTo
		entry.AssignedTo = &id
	}

	if err := r.logs.Create(ctx, entry); err != nil {
		log.Error("audit: failed to record entry", "action", action, "error", err)
		return
	}

	entry.User = actor
	if entry.AssignedTo != nil {
		entry.Assignee = m.After.Assignee
	}
	r.events.Publish(ctx, broadcast.Event{Kind: broadcast.LogCreated, TaskID: task.ID, Payload: dto.Log(*entry)})
}
