package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskboard/internal/model"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create adds a new task to the database
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	err := r.db.WithContext(ctx).Omit("Assignee").Create(task).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateTitle
	}
	return err
}

// GetByID retrieves a task by its ID with the assignee resolved
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).Preload("Assignee").First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// List retrieves every task, oldest first
func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	result := r.db.WithContext(ctx).Preload("Assignee").Order("created_at, id").Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

// UpdateVersioned writes the mutable fields of task only if the stored row is
// still at expectedVersion.
func (r *TaskRepository) UpdateVersioned(ctx context.Context, task *model.Task, expectedVersion int64) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND version = ?", task.ID, expectedVersion).
		Updates(map[string]any{
			"title":       task.Title,
			"title_key":   task.TitleKey,
			"description": task.Description,
			"priority":    task.Priority,
			"status":      task.Status,
			"assigned_to": task.AssignedTo,
			"version":     task.Version,
			"updated_at":  task.UpdatedAt,
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateTitle
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionMismatch
	}
	return nil
}

// Delete removes a task by its ID
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// TitleTaken reports whether a task other than exclude already uses titleKey
func (r *TaskRepository) TitleTaken(ctx context.Context, titleKey string, exclude uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("title_key = ? AND id <> ?", titleKey, exclude).
		Count(&count).Error
	return count > 0, err
}

// CountActiveByAssignee returns, per user, the number of assigned tasks that are not Done
func (r *TaskRepository) CountActiveByAssignee(ctx context.Context) (map[uuid.UUID]int, error) {
	var rows []struct {
		AssignedTo uuid.UUID
		Count      int
	}
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Select("assigned_to, count(*) AS count").
		Where("assigned_to IS NOT NULL AND status <> ?", model.StatusDone).
		Group("assigned_to").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		counts[row.AssignedTo] = row.Count
	}
	return counts, nil
}
