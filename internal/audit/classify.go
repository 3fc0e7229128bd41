package audit

import (
	"fmt"

	"taskboard/internal/model"
)

type MutationKind int

const (
	MutationCreate MutationKind = iota
	MutationUpdate
	MutationDelete
	MutationAssign
)

// Mutation is a committed change as seen by the audit trail. Before is nil
// for creates, After is nil for deletes.
type Mutation struct {
	Kind   MutationKind
	Before *model.Task
	After  *model.Task
	Force  bool
}

func (m Mutation) task() *model.Task {
	if m.After != nil {
		return m.After
	}
	return m.Before
}

// Classify derives the action and message for a committed mutation.
// Create, Delete and Assign always log their own action. An update logs
// STATUS_CHANGE when the status moved, UPDATE when any other tracked field
// moved, and otherwise UPDATE marked as having no significant change.
// actorName is only used for forced overwrites.
func Classify(m Mutation, actorName string) (model.Action, string) {
	title := m.task().Title

	switch m.Kind {
	case MutationCreate:
		return model.ActionCreate, fmt.Sprintf("Task %q created.", title)
	case MutationDelete:
		return model.ActionDelete, fmt.Sprintf("Task %q deleted.", title)
	case MutationAssign:
		return model.ActionAssign, fmt.Sprintf("Task %q smart-assigned to %s.", title, assigneeName(m.After))
	}

	if m.Before.Status != m.After.Status {
		return model.ActionStatusChange, fmt.Sprintf("Task %q status changed from %s to %s.", title, m.Before.Status, m.After.Status)
	}
	if otherFieldsChanged(m.Before, m.After) {
		if m.Force {
			return model.ActionUpdate, fmt.Sprintf("Task %q force-overwritten by %s.", title, actorName)
		}
		return model.ActionUpdate, fmt.Sprintf("Task %q updated.", title)
	}
	return model.ActionUpdate, fmt.Sprintf("Task %q updated (no significant field changed).", title)
}

func otherFieldsChanged(before, after *model.Task) bool {
	return before.Title != after.Title ||
		before.Description != after.Description ||
		before.Priority != after.Priority ||
		!sameAssignee(before, after)
}

func sameAssignee(a, b *model.Task) bool {
	if a.AssignedTo == nil || b.AssignedTo == nil {
		return a.AssignedTo == nil && b.AssignedTo == nil
	}
	return *a.AssignedTo == *b.AssignedTo
}

func assigneeName(t *model.Task) string {
	if t == nil || t.Assignee == nil {
		return "unknown user"
	}
	return t.Assignee.Username
}
