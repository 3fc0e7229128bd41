package audit_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/audit"
	"taskboard/internal/broadcast"
	"taskboard/internal/dto"
	"taskboard/internal/logger"
	"taskboard/internal/model"
	"taskboard/internal/repository/memory"
)

type captured struct{ events []broadcast.Event }

func (c *captured) Publish(_ context.Context, ev broadcast.Event) {
	c.events = append(c.events, ev)
}

type failingLogs struct{}

func (failingLogs) Create(context.Context, *model.ActionLog) error {
	return errors.New("connection refused")
}

func seedUser(t *testing.T, db *memory.DB, name string) model.User {
	t.Helper()
	u := model.User{ID: uuid.New(), Username: name, Email: name + "@example.com"}
	require.NoError(t, db.Users().Create(context.Background(), &u))
	return u
}

func TestRecorder_PersistsAndPublishes(t *testing.T) {
	// Arrange
	db := memory.New()
	alice := seedUser(t, db, "alice")
	events := &captured{}
	rec := audit.NewRecorder(db.ActionLogs(), db.Users(), events)
	task := &model.Task{ID: uuid.New(), Title: "Write docs", Status: model.StatusTodo, Version: 1}

	// Act
	rec.Record(context.Background(), audit.Mutation{Kind: audit.MutationCreate, After: task}, alice.ID)

	// Assert
	logs, err := db.ActionLogs().Recent(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ActionCreate, logs[0].Action)
	assert.Equal(t, task.ID, logs[0].TaskID)
	assert.Equal(t, "Write docs", logs[0].TaskTitle)
	assert.Equal(t, "alice", logs[0].User.Username)

	require.Len(t, events.events, 1)
	assert.Equal(t, broadcast.LogCreated, events.events[0].Kind)
	payload, ok := events.events[0].Payload.(dto.LogResponse)
	require.True(t, ok)
	assert.Equal(t, "alice", payload.User.Username)
	assert.Equal(t, `Task "Write docs" created.`, payload.Message)
}

func TestRecorder_AssignKeepsAssignee(t *testing.T) {
	// Arrange
	db := memory.New()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	rec := audit.NewRecorder(db.ActionLogs(), db.Users(), broadcast.Discard{})
	before := &model.Task{ID: uuid.New(), Title: "Deploy", Status: model.StatusTodo, Version: 1}
	after := before.Clone()
	after.AssignedTo = &bob.ID
	after.Assignee = &bob
	after.Version = 2

	// Act
	rec.Record(context.Background(), audit.Mutation{Kind: audit.MutationAssign, Before: before, After: &after}, alice.ID)

	// Assert
	logs, err := db.ActionLogs().Recent(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ActionAssign, logs[0].Action)
	require.NotNil(t, logs[0].Assignee)
	assert.Equal(t, "bob", logs[0].Assignee.Username)
	assert.Equal(t, `Task "Deploy" smart-assigned to bob.`, logs[0].Message)
}

func TestRecorder_FailureIsSwallowed(t *testing.T) {
	// Arrange
	db := memory.New()
	alice := seedUser(t, db, "alice")
	events := &captured{}
	rec := audit.NewRecorder(failingLogs{}, db.Users(), events)
	task := &model.Task{ID: uuid.New(), Title: "Write docs"}

	// Act
	assert.NotPanics(t, func() {
		rec.Record(context.Background(), audit.Mutation{Kind: audit.MutationDelete, Before: task}, alice.ID)
	})

	// Assert: ничего не опубликовано, если запись не сохранилась
	assert.Empty(t, events.events)
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestRecorder_FailureLogCarriesRequestID(t *testing.T) {
	// Arrange
	buf := captureLogs(t)
	db := memory.New()
	alice := seedUser(t, db, "alice")
	rec := audit.NewRecorder(failingLogs{}, db.Users(), &captured{})
	task := &model.Task{ID: uuid.New(), Title: "Write docs"}
	ctx := logger.ContextWithRequestID(context.Background(), "req-42")

	// Act
	rec.Record(ctx, audit.Mutation{Kind: audit.MutationDelete, Before: task}, alice.ID)

	// Assert: ошибка аудита привязана к запросу
	out := buf.String()
	assert.Contains(t, out, "audit: failed to record entry")
	assert.Contains(t, out, `"request_id":"req-42"`)
	assert.Contains(t, out, task.ID.String())
}
