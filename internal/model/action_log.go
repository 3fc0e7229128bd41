package model

import (
	"time"

	"github.com/google/uuid"
)

// Action classifies an audit entry.
type Action string

const (
	ActionCreate       Action = "CREATE"
	ActionUpdate       Action = "UPDATE"
	ActionDelete       Action = "DELETE"
	ActionAssign       Action = "ASSIGN"
	ActionStatusChange Action = "STATUS_CHANGE"
)

// ActionLog is an append-only audit entry. TaskID is intentionally not a
// foreign key: entries outlive the task they describe.
type ActionLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Action     Action     `gorm:"type:text;not null"`
	Message    string     `gorm:"not null"`
	TaskID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	TaskTitle  string     `gorm:"not null"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null"`
	AssignedTo *uuid.UUID `gorm:"type:uuid"`
	CreatedAt  time.Time  `gorm:"index"`

	User     *User `gorm:"foreignKey:UserID"`
	Assignee *User `gorm:"foreignKey:AssignedTo"`
}
