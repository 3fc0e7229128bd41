// Package memory is an in-process implementation of the task, user and
// action-log repositories. It mirrors the constraints of the postgres schema
// (unique title key, unique username and email) and is used for local runs
// and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

// DB holds every table behind a single lock.
type DB struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]model.Task
	users []model.User
	logs  []model.ActionLog
}

func New() *DB {
	return &DB{tasks: make(map[uuid.UUID]model.Task)}
}

func (db *DB) Tasks() *TaskRepository           { return &TaskRepository{db: db} }
func (db *DB) Users() *UserRepository           { return &UserRepository{db: db} }
func (db *DB) ActionLogs() *ActionLogRepository { return &ActionLogRepository{db: db} }

func (db *DB) userByID(id uuid.UUID) *model.User {
	for i := range db.users {
		if db.users[i].ID == id {
			u := db.users[i]
			return &u
		}
	}
	return nil
}

// resolve returns a copy of t with its assignee populated. Caller holds mu.
func (db *DB) resolve(t model.Task) model.Task {
	c := t.Clone()
	c.Assignee = nil
	if c.AssignedTo != nil {
		c.Assignee = db.userByID(*c.AssignedTo)
	}
	return c
}

type TaskRepository struct{ db *DB }

func (r *TaskRepository) Create(_ context.Context, task *model.Task) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, t := range r.db.tasks {
		if t.TitleKey == task.TitleKey {
			return repository.ErrDuplicateTitle
		}
	}
	stored := task.Clone()
	stored.Assignee = nil
	r.db.tasks[task.ID] = stored
	return nil
}

func (r *TaskRepository) GetByID(_ context.Context, id uuid.UUID) (*model.Task, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	t, ok := r.db.tasks[id]
	if !ok {
		return nil, repository.ErrTaskNotFound
	}
	resolved := r.db.resolve(t)
	return &resolved, nil
}

func (r *TaskRepository) List(_ context.Context) ([]model.Task, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]model.Task, 0, len(r.db.tasks))
	for _, t := range r.db.tasks {
		out = append(out, r.db.resolve(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *TaskRepository) UpdateVersioned(_ context.Context, task *model.Task, expectedVersion int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	current, ok := r.db.tasks[task.ID]
	if !ok || current.Version != expectedVersion {
		return repository.ErrVersionMismatch
	}
	for id, t := range r.db.tasks {
		if id != task.ID && t.TitleKey == task.TitleKey {
			return repository.ErrDuplicateTitle
		}
	}
	stored := task.Clone()
	stored.Assignee = nil
	stored.CreatedAt = current.CreatedAt
	stored.CreatedBy = current.CreatedBy
	r.db.tasks[task.ID] = stored
	return nil
}

func (r *TaskRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.tasks[id]; !ok {
		return repository.ErrTaskNotFound
	}
	delete(r.db.tasks, id)
	return nil
}

func (r *TaskRepository) TitleTaken(_ context.Context, titleKey string, exclude uuid.UUID) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for id, t := range r.db.tasks {
		if id != exclude && t.TitleKey == titleKey {
			return true, nil
		}
	}
	return false, nil
}

func (r *TaskRepository) CountActiveByAssignee(_ context.Context) (map[uuid.UUID]int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	counts := make(map[uuid.UUID]int)
	for _, t := range r.db.tasks {
		if t.Active() {
			counts[*t.AssignedTo]++
		}
	}
	return counts, nil
}

type UserRepository struct{ db *DB }

var _ repository.UserRepositoryInterface = (*UserRepository)(nil)

func (r *UserRepository) Create(_ context.Context, user *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repository.ErrDuplicateUser
		}
	}
	r.db.users = append(r.db.users, *user)
	return nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Email == email }), nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Username == username }), nil
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.ID == id }), nil
}

// List returns users in registration order.
func (r *UserRepository) List(_ context.Context) ([]model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]model.User, len(r.db.users))
	copy(out, r.db.users)
	return out, nil
}

func (r *UserRepository) find(match func(model.User) bool) *model.User {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if match(u) {
			found := u
			return &found
		}
	}
	return nil
}

type ActionLogRepository struct{ db *DB }

func (r *ActionLogRepository) Create(_ context.Context, entry *model.ActionLog) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored := *entry
	stored.User, stored.Assignee = nil, nil
	r.db.logs = append(r.db.logs, stored)
	return nil
}

// Recent returns the newest entries first.
func (r *ActionLogRepository) Recent(_ context.Context, limit int) ([]model.ActionLog, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]model.ActionLog, 0, limit)
	for i := len(r.db.logs) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.db.logs[i]
		e.User = r.db.userByID(e.UserID)
		if e.AssignedTo != nil {
			e.Assignee = r.db.userByID(*e.AssignedTo)
		}
		out = append(out, e)
	}
	return out, nil
}
