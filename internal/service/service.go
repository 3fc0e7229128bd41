package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"taskboard/internal/apperr"
	"taskboard/internal/assign"
	"taskboard/internal/audit"
	"taskboard/internal/broadcast"
	"taskboard/internal/dto"
	"taskboard/internal/model"
	"taskboard/internal/store"
)

const DefaultRecentLogLimit = 20

type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

type LogReader interface {
	Recent(ctx context.Context, limit int) ([]model.ActionLog, error)
}

type AssigneeKind int

const (
	AssignByID AssigneeKind = iota + 1
	AssignByUsername
	Unassign
)

// AssigneeRef names the user a task should be assigned to.
type AssigneeRef struct {
	Kind     AssigneeKind
	ID       uuid.UUID
	Username string
}

func AssigneeID(id uuid.UUID) *AssigneeRef { return &AssigneeRef{Kind: AssignByID, ID: id} }

func AssigneeUsername(name string) *AssigneeRef {
	return &AssigneeRef{Kind: AssignByUsername, Username: name}
}

func NoAssignee() *AssigneeRef { return &AssigneeRef{Kind: Unassign} }

type CreateInput struct {
	Title       string
	Description string
	// Priority and Status default to Medium and Todo when empty.
	Priority model.Priority
	Status   model.Status
	Assignee *AssigneeRef
}

// UpdateInput is a partial change set. Nil fields are left as they are.
type UpdateInput struct {
	Title       *string
	Description *string
	Priority    *model.Priority
	Status      *model.Status
	Assignee    *AssigneeRef

	Baseline *int64
	Force    bool
}

type TaskService struct {
	store       *store.Store
	users       UserDirectory
	logs        LogReader
	balancer    *assign.Balancer
	recorder    *audit.Recorder
	events      broadcast.Broadcaster
	recentLimit int
}

func NewTaskService(
	st *store.Store,
	users UserDirectory,
	logs LogReader,
	balancer *assign.Balancer,
	recorder *audit.Recorder,
	events broadcast.Broadcaster,
	recentLimit int,
) *TaskService {
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLogLimit
	}
	return &TaskService{
		store:       st,
		users:       users,
		logs:        logs,
		balancer:    balancer,
		recorder:    recorder,
		events:      events,
		recentLimit: recentLimit,
	}
}

func (s *TaskService) Get(ctx context.Context, id uuid.UUID) (model.Task, error) {
	task, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	return *task, nil
}

func (s *TaskService) List(ctx context.Context) ([]model.Task, error) {
	return s.store.List(ctx)
}

func (s *TaskService) RecentLogs(ctx context.Context) ([]model.ActionLog, error) {
	logs, err := s.logs.Recent(ctx, s.recentLimit)
	if err != nil {
		return nil, apperr.Internal("load recent logs", err)
	}
	return logs, nil
}

func (s *TaskService) Create(ctx context.Context, actor uuid.UUID, in CreateInput) (model.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return model.Task{}, apperr.Validation("title is required")
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if in.Status == "" {
		in.Status = model.StatusTodo
	}
	if err := validateEnums(&in.Priority, &in.Status); err != nil {
		return model.Task{}, err
	}
	assignee, err := s.resolveAssignee(ctx, in.Assignee)
	if err != nil {
		return model.Task{}, err
	}

	task := model.Task{
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Status:      in.Status,
		AssignedTo:  assignee,
		CreatedBy:   actor,
	}
	commit, err := s.store.Create(ctx, task, s.publish(broadcast.TaskCreated))
	if err != nil {
		return model.Task{}, err
	}

	s.recorder.Record(ctx, audit.Mutation{Kind: audit.MutationCreate, After: commit.After}, actor)
	return *commit.After, nil
}

func (s *TaskService) Update(ctx context.Context, actor, id uuid.UUID, in UpdateInput) (model.Task, error) {
	if err := validateEnums(in.Priority, in.Status); err != nil {
		return model.Task{}, err
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return model.Task{}, apperr.Validation("title is required")
	}
	var assignee *uuid.UUID
	if in.Assignee != nil {
		var err error
		if assignee, err = s.resolveAssignee(ctx, in.Assignee); err != nil {
			return model.Task{}, err
		}
	}

	commit, err := s.store.Mutate(ctx, store.MutateRequest{
		TaskID:   id,
		Baseline: in.Baseline,
		Force:    in.Force,
		Apply: func(_ context.Context, t *model.Task) error {
			if in.Title != nil {
				t.Title = *in.Title
			}
			if in.Description != nil {
				t.Description = *in.Description
			}
			if in.Priority != nil {
				t.Priority = *in.Priority
			}
			if in.Status != nil {
				t.Status = *in.Status
			}
			if in.Assignee != nil {
				t.AssignedTo = assignee
			}
			return nil
		},
		OnCommit: s.publish(broadcast.TaskUpdated),
	})
	if err != nil {
		return model.Task{}, err
	}

	s.recorder.Record(ctx, audit.Mutation{
		Kind:   audit.MutationUpdate,
		Before: commit.Before,
		After:  commit.After,
		Force:  in.Force,
	}, actor)
	return *commit.After, nil
}

func (s *TaskService) Delete(ctx context.Context, actor, id uuid.UUID) error {
	commit, err := s.store.Delete(ctx, id, s.publish(broadcast.TaskDeleted))
	if err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.Mutation{Kind: audit.MutationDelete, Before: commit.Before}, actor)
	return nil
}

// SmartAssign assigns the task to the least-loaded user other than actor.
// The choice is made under the task lock, so it never races another
// mutation of the same task.
func (s *TaskService) SmartAssign(ctx context.Context, actor, id uuid.UUID) (model.Task, error) {
	commit, err := s.store.Mutate(ctx, store.MutateRequest{
		TaskID: id,
		Apply: func(ctx context.Context, t *model.Task) error {
			chosen, err := s.balancer.Choose(ctx, actor)
			if err != nil {
				return err
			}
			t.AssignedTo = &chosen.ID
			return nil
		},
		OnCommit: s.publish(broadcast.TaskUpdated),
	})
	if err != nil {
		return model.Task{}, err
	}

	s.recorder.Record(ctx, audit.Mutation{Kind: audit.MutationAssign, Before: commit.Before, After: commit.After}, actor)
	return *commit.After, nil
}

// publish returns a commit hook that broadcasts the committed state. It runs
// under the task lock, which keeps per-task events in commit order.
func (s *TaskService) publish(kind broadcast.Kind) store.CommitHook {
	return func(c store.Commit) {
		ev := broadcast.Event{Kind: kind}
		if c.After != nil {
			ev.TaskID = c.After.ID
			ev.Payload = dto.Task(*c.After)
		} else {
			ev.TaskID = c.Before.ID
			ev.Payload = map[string]string{"id": c.Before.ID.String()}
		}
		s.events.Publish(context.Background(), ev)
	}
}

func (s *TaskService) resolveAssignee(ctx context.Context, ref *AssigneeRef) (*uuid.UUID, error) {
	if ref == nil {
		return nil, nil
	}
	var (
		user *model.User
		err  error
		key  string
	)
	switch ref.Kind {
	case Unassign:
		return nil, nil
	case AssignByID:
		key = ref.ID.String()
		user, err = s.users.GetByID(ctx, ref.ID)
	case AssignByUsername:
		key = ref.Username
		user, err = s.users.FindByUsername(ctx, ref.Username)
	default:
		return nil, apperr.Validation("invalid assignee")
	}
	if err != nil {
		return nil, apperr.Internal("resolve assignee", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user", key)
	}
	return &user.ID, nil
}

func validateEnums(p *model.Priority, st *model.Status) error {
	if p != nil && !p.Valid() {
		return apperr.Validation("invalid priority %q", *p)
	}
	if st != nil && !st.Valid() {
		return apperr.Validation("invalid status %q", *st)
	}
	return nil
}
