// Package dto holds the fully resolved JSON shapes returned to callers and
// published to observers.
package dto

import (
	"time"

	"taskboard/internal/model"
)

type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

type TaskResponse struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Priority    string       `json:"priority"`
	Status      string       `json:"status"`
	AssignedTo  *UserSummary `json:"assignedTo"`
	CreatedBy   string       `json:"createdBy"`
	Version     int64        `json:"version"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type LogResponse struct {
	ID         string       `json:"id"`
	Action     string       `json:"action"`
	Message    string       `json:"message"`
	TaskID     string       `json:"taskId"`
	TaskTitle  string       `json:"taskTitle"`
	User       *UserSummary `json:"user"`
	AssignedTo *UserSummary `json:"assignedTo,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
}

func User(u *model.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID.String(), Username: u.Username, Email: u.Email}
}

func Task(t model.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		CreatedBy:   t.CreatedBy.String(),
		Version:     t.Version,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.AssignedTo != nil {
		resp.AssignedTo = User(t.Assignee)
		if resp.AssignedTo == nil {
			resp.AssignedTo = &UserSummary{ID: t.AssignedTo.String()}
		}
	}
	return resp
}

func Tasks(ts []model.Task) []TaskResponse {
	out := make([]TaskResponse, len(ts))
	for i, t := range ts {
		out[i] = Task(t)
	}
	return out
}

func Log(l model.ActionLog) LogResponse {
	resp := LogResponse{
		ID:        l.ID.String(),
		Action:    string(l.Action),
		Message:   l.Message,
		TaskID:    l.TaskID.String(),
		TaskTitle: l.TaskTitle,
		User:      User(l.User),
		CreatedAt: l.CreatedAt,
	}
	if l.AssignedTo != nil {
		resp.AssignedTo = User(l.Assignee)
		if resp.AssignedTo == nil {
			resp.AssignedTo = &UserSummary{ID: l.AssignedTo.String()}
		}
	}
	return resp
}

func Logs(ls []model.ActionLog) []LogResponse {
	out := make([]LogResponse, len(ls))
	for i, l := range ls {
		out[i] = Log(l)
	}
	return out
}
