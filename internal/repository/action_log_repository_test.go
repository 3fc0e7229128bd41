package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestActionLogRepository_Create(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	logRepo := repository.NewActionLogRepository(gormDB)

	entry := &model.ActionLog{
		ID:        uuid.New(),
		Action:    model.ActionCreate,
		Message:   `Task "Design Spec" created.`,
		TaskID:    uuid.New(),
		TaskTitle: "Design Spec",
		UserID:    uuid.New(),
		CreatedAt: time.Now(),
		// Связанные пользователи не должны записываться
		User: &model.User{ID: uuid.New(), Username: "alice"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "action_logs"`).
		WithArgs(entry.ID, entry.Action, entry.Message, entry.TaskID, entry.TaskTitle, entry.UserID, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	// Act
	err := logRepo.Create(context.Background(), entry)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActionLogRepository_Recent_Error(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	logRepo := repository.NewActionLogRepository(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "action_logs" ORDER BY created_at DESC LIMIT`).
		WillReturnError(errors.New("connection reset"))

	// Act
	logs, err := logRepo.Recent(context.Background(), 20)

	// Assert
	assert.Error(t, err)
	assert.Nil(t, logs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
