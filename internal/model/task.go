package model

import (
	"time"

	"github.com/google/uuid"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Status string

const (
	StatusTodo       Status = "Todo"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Task is a single board record. Version advances by one on every committed
// mutation and is the token clients echo back as their baseline.
type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Title       string     `gorm:"not null"`
	TitleKey    string     `gorm:"not null;uniqueIndex"`
	Description string
	Priority    Priority   `gorm:"type:text;not null"`
	Status      Status     `gorm:"type:text;not null"`
	AssignedTo  *uuid.UUID `gorm:"type:uuid;index"`
	CreatedBy   uuid.UUID  `gorm:"type:uuid;not null"`
	Version     int64      `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Assignee *User `gorm:"foreignKey:AssignedTo"`
}

// Active reports whether the task counts towards its assignee's load.
func (t *Task) Active() bool {
	return t.AssignedTo != nil && t.Status != StatusDone
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	c := t
	if t.AssignedTo != nil {
		id := *t.AssignedTo
		c.AssignedTo = &id
	}
	if t.Assignee != nil {
		u := *t.Assignee
		c.Assignee = &u
	}
	return c
}
