package repository

import (
	"context"

	"gorm.io/gorm"

	"taskboard/internal/model"
)

type ActionLogRepository struct {
	db *gorm.DB
}

func NewActionLogRepository(db *gorm.DB) *ActionLogRepository {
	return &ActionLogRepository{db: db}
}

// Create appends an audit entry
func (r *ActionLogRepository) Create(ctx context.Context, entry *model.ActionLog) error {
	return r.db.WithContext(ctx).Omit("User", "Assignee").Create(entry).Error
}

// Recent returns the newest entries first with users resolved
func (r *ActionLogRepository) Recent(ctx context.Context, limit int) ([]model.ActionLog, error) {
	var logs []model.ActionLog
	result := r.db.WithContext(ctx).
		Preload("User").
		Preload("Assignee").
		Order("created_at DESC").
		Limit(limit).
		Find(&logs)
	if result.Error != nil {
		return nil, result.Error
	}
	return logs, nil
}
