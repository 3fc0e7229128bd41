package audit

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"taskboard/internal/model"
)

func baseTask() *model.Task {
	return &model.Task{
		ID:          uuid.New(),
		Title:       "Fix login",
		Description: "500 on submit",
		Priority:    model.PriorityMedium,
		Status:      model.StatusTodo,
		Version:     1,
	}
}

func changed(before *model.Task, edit func(*model.Task)) *model.Task {
	after := before.Clone()
	edit(&after)
	after.Version++
	return &after
}

func TestClassify_Create(t *testing.T) {
	action, msg := Classify(Mutation{Kind: MutationCreate, After: baseTask()}, "alice")

	assert.Equal(t, model.ActionCreate, action)
	assert.Equal(t, `Task "Fix login" created.`, msg)
}

func TestClassify_Delete(t *testing.T) {
	action, msg := Classify(Mutation{Kind: MutationDelete, Before: baseTask()}, "alice")

	assert.Equal(t, model.ActionDelete, action)
	assert.Equal(t, `Task "Fix login" deleted.`, msg)
}

func TestClassify_Assign(t *testing.T) {
	before := baseTask()
	bob := model.User{ID: uuid.New(), Username: "bob"}
	after := changed(before, func(task *model.Task) {
		task.AssignedTo = &bob.ID
		task.Assignee = &bob
	})

	action, msg := Classify(Mutation{Kind: MutationAssign, Before: before, After: after}, "alice")

	assert.Equal(t, model.ActionAssign, action)
	assert.Equal(t, `Task "Fix login" smart-assigned to bob.`, msg)
}

func TestClassify_StatusChangeWinsOverOtherFields(t *testing.T) {
	before := baseTask()
	after := changed(before, func(task *model.Task) {
		task.Status = model.StatusDone
		task.Description = "fixed"
	})

	action, msg := Classify(Mutation{Kind: MutationUpdate, Before: before, After: after, Force: true}, "alice")

	assert.Equal(t, model.ActionStatusChange, action)
	assert.Equal(t, `Task "Fix login" status changed from Todo to Done.`, msg)
}

func TestClassify_TrackedFieldChange(t *testing.T) {
	other := uuid.New()
	cases := map[string]func(*model.Task){
		"title":       func(task *model.Task) { task.Title = "Fix signup" },
		"description": func(task *model.Task) { task.Description = "only on Safari" },
		"priority":    func(task *model.Task) { task.Priority = model.PriorityHigh },
		"assignee":    func(task *model.Task) { task.AssignedTo = &other },
	}

	for name, edit := range cases {
		t.Run(name, func(t *testing.T) {
			before := baseTask()
			after := changed(before, edit)

			action, msg := Classify(Mutation{Kind: MutationUpdate, Before: before, After: after}, "alice")

			assert.Equal(t, model.ActionUpdate, action)
			assert.Equal(t, `Task "`+after.Title+`" updated.`, msg)
		})
	}
}

func TestClassify_ForcedOverwriteNamesActor(t *testing.T) {
	before := baseTask()
	after := changed(before, func(task *model.Task) { task.Priority = model.PriorityLow })

	action, msg := Classify(Mutation{Kind: MutationUpdate, Before: before, After: after, Force: true}, "alice")

	assert.Equal(t, model.ActionUpdate, action)
	assert.Equal(t, `Task "Fix login" force-overwritten by alice.`, msg)
}

func TestClassify_NoSignificantChange(t *testing.T) {
	before := baseTask()
	after := changed(before, func(*model.Task) {})

	action, msg := Classify(Mutation{Kind: MutationUpdate, Before: before, After: after}, "alice")

	assert.Equal(t, model.ActionUpdate, action)
	assert.Equal(t, `Task "Fix login" updated (no significant field changed).`, msg)
}

func TestClassify_UnassignIsAChange(t *testing.T) {
	id := uuid.New()
	before := baseTask()
	before.AssignedTo = &id
	after := changed(before, func(task *model.Task) { task.AssignedTo = nil })

	action, msg := Classify(Mutation{Kind: MutationUpdate, Before: before, After: after}, "alice")

	assert.Equal(t, model.ActionUpdate, action)
	assert.Equal(t, `Task "Fix login" updated.`, msg)
}
