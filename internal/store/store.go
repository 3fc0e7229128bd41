package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"taskboard/internal/apperr"
	"taskboard/internal/model"
	"taskboard/internal/repository"
)

// TaskRepository is the persistence the store needs. UpdateVersioned must
// fail with repository.ErrVersionMismatch when the stored version differs.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	List(ctx context.Context) ([]model.Task, error)
	UpdateVersioned(ctx context.Context, task *model.Task, expectedVersion int64) error
	Delete(ctx context.Context, id uuid.UUID) error
	TitleTaken(ctx context.Context, titleKey string, exclude uuid.UUID) (bool, error)
}

// Mutator edits a private copy of the current record. Returning an error
// aborts the mutation without writing.
type Mutator func(ctx context.Context, task *model.Task) error

// Commit describes a successful write. Before is nil for creates and After
// is nil for deletes.
type Commit struct {
	Before *model.Task
	After  *model.Task
}

// CommitHook runs after the write while the task lock is still held.
type CommitHook func(Commit)

type MutateRequest struct {
	TaskID uuid.UUID
	// Baseline is the version the caller last saw. Nil skips the check.
	Baseline *int64
	// Force applies the mutation regardless of Baseline.
	Force    bool
	Apply    Mutator
	OnCommit CommitHook
}

const defaultCASRetries = 3

type Store struct {
	tasks   TaskRepository
	locks   Locker
	now     func() time.Time
	retries int
}

type Option func(*Store)

func WithLocker(l Locker) Option {
	return func(s *Store) { s.locks = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(tasks TaskRepository, opts ...Option) *Store {
	s := &Store{
		tasks:   tasks,
		locks:   NewKeyedMutex(),
		now:     time.Now,
		retries: defaultCASRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TitleKey is the case-folded form titles are compared by.
func TitleKey(title string) string {
	return cases.Fold().String(strings.TrimSpace(title))
}

func taskLockKey(id uuid.UUID) string { return "task:" + id.String() }
func titleLockKey(key string) string { return "title:" + key }

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	return s.load(ctx, id)
}

func (s *Store) List(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return nil, apperr.Internal("list tasks", err)
	}
	return tasks, nil
}

// Create inserts task at version 1. It is the degenerate mutation with no
// prior record and no baseline.
func (s *Store) Create(ctx context.Context, task model.Task, onCommit CommitHook) (Commit, error) {
	task.Title = strings.TrimSpace(task.Title)
	task.TitleKey = TitleKey(task.Title)
	if task.TitleKey == "" {
		return Commit{}, apperr.Validation("title is required")
	}
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}

	unlock, err := s.locks.Lock(ctx, taskLockKey(task.ID))
	if err != nil {
		return Commit{}, apperr.Internal("lock task", err)
	}
	defer unlock()
	ctx = context.WithoutCancel(ctx)

	unlockTitle, err := s.claimTitle(ctx, task.TitleKey, task.ID)
	if err != nil {
		return Commit{}, err
	}
	now := s.now()
	task.Version = 1
	task.CreatedAt = now
	task.UpdatedAt = now
	task.Assignee = nil
	err = s.tasks.Create(ctx, &task)
	unlockTitle()
	if err != nil {
		return Commit{}, writeError("create task", err)
	}

	after, err := s.load(ctx, task.ID)
	if err != nil {
		return Commit{}, err
	}
	commit := Commit{After: after}
	if onCommit != nil {
		onCommit(commit)
	}
	return commit, nil
}

// Mutate performs the check-and-mutate cycle for one task. A non-forced
// request whose baseline differs from the stored version gets an
// *apperr.ConflictError carrying the current record, and nothing is written.
func (s *Store) Mutate(ctx context.Context, req MutateRequest) (Commit, error) {
	unlock, err := s.locks.Lock(ctx, taskLockKey(req.TaskID))
	if err != nil {
		return Commit{}, apperr.Internal("lock task", err)
	}
	defer unlock()
	// Once the lock is held the mutation runs to completion.
	ctx = context.WithoutCancel(ctx)

	for attempt := 0; ; attempt++ {
		current, err := s.load(ctx, req.TaskID)
		if err != nil {
			return Commit{}, err
		}
		if !req.Force && req.Baseline != nil && *req.Baseline != current.Version {
			return Commit{}, &apperr.ConflictError{Baseline: *req.Baseline, Current: *current}
		}

		next := current.Clone()
		if req.Apply != nil {
			if err := req.Apply(ctx, &next); err != nil {
				return Commit{}, err
			}
		}
		next.ID = current.ID
		next.CreatedAt = current.CreatedAt
		next.CreatedBy = current.CreatedBy
		next.Assignee = nil
		next.Title = strings.TrimSpace(next.Title)
		next.TitleKey = TitleKey(next.Title)
		if next.TitleKey == "" {
			return Commit{}, apperr.Validation("title is required")
		}

		unlockTitle := func() {}
		if next.TitleKey != current.TitleKey {
			if unlockTitle, err = s.claimTitle(ctx, next.TitleKey, next.ID); err != nil {
				return Commit{}, err
			}
		}
		next.Version = current.Version + 1
		next.UpdatedAt = s.now()
		err = s.tasks.UpdateVersioned(ctx, &next, current.Version)
		unlockTitle()

		if errors.Is(err, repository.ErrVersionMismatch) && attempt < s.retries {
			// Written by another process since we loaded; evaluate again
			// against the fresh record.
			continue
		}
		if err != nil {
			return Commit{}, writeError("update task", err)
		}

		after, err := s.load(ctx, req.TaskID)
		if err != nil {
			return Commit{}, err
		}
		commit := Commit{Before: current, After: after}
		if req.OnCommit != nil {
			req.OnCommit(commit)
		}
		return commit, nil
	}
}

// Delete removes a task unconditionally. Unlike Mutate it takes no baseline:
// a delete never conflicts. It still serializes with other mutations of the
// same task so the deletion is observed after them.
func (s *Store) Delete(ctx context.Context, id uuid.UUID, onCommit CommitHook) (Commit, error) {
	unlock, err := s.locks.Lock(ctx, taskLockKey(id))
	if err != nil {
		return Commit{}, apperr.Internal("lock task", err)
	}
	defer unlock()
	ctx = context.WithoutCancel(ctx)

	current, err := s.load(ctx, id)
	if err != nil {
		return Commit{}, err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return Commit{}, apperr.NotFound("task", id.String())
		}
		return Commit{}, apperr.Internal("delete task", err)
	}

	commit := Commit{Before: current}
	if onCommit != nil {
		onCommit(commit)
	}
	return commit, nil
}

// claimTitle locks titleKey and verifies no other task holds it. The returned
// func releases the title lock.
func (s *Store) claimTitle(ctx context.Context, titleKey string, owner uuid.UUID) (func(), error) {
	unlock, err := s.locks.Lock(ctx, titleLockKey(titleKey))
	if err != nil {
		return nil, apperr.Internal("lock title", err)
	}
	taken, err := s.tasks.TitleTaken(ctx, titleKey, owner)
	if err != nil {
		unlock()
		return nil, apperr.Internal("check title", err)
	}
	if taken {
		unlock()
		return nil, duplicateTitle()
	}
	return unlock, nil
}

func (s *Store) load(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, apperr.NotFound("task", id.String())
		}
		return nil, apperr.Internal("load task", err)
	}
	return task, nil
}

func duplicateTitle() error {
	return apperr.Wrap(apperr.KindValidation, "task title already exists", repository.ErrDuplicateTitle)
}

func writeError(op string, err error) error {
	if errors.Is(err, repository.ErrDuplicateTitle) {
		return duplicateTitle()
	}
	return apperr.Internal(op, err)
}
