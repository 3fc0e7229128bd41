package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskboard/internal/auth"
	"taskboard/internal/handler"
	"taskboard/internal/model"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// Мок репозитория пользователей
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.User), args.Error(1)
}

const testSecret = "test-secret"

func setupTest() (*gin.Engine, *MockUserRepository) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	mockRepo := new(MockUserRepository)
	userHandler := handler.NewUserHandler(mockRepo, auth.NewIssuer(testSecret, time.Hour))

	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)
	r.GET("/users", userHandler.List)
	return r, mockRepo
}

func postJSON(router http.Handler, path string, body any) *httptest.ResponseRecorder {
	jsonBody, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestRegister_Success(t *testing.T) {
	// Arrange
	router, mockRepo := setupTest()

	// Мокаем методы репозитория
	mockRepo.On("FindByUsername", mock.Anything, "tester").Return(nil, nil)
	mockRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, nil)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)

	reqBody := handler.RegisterRequest{
		Username: "tester",
		Email:    "Test@Example.com",
		Password: "password123",
	}

	// Act
	resp := postJSON(router, "/register", reqBody)

	// Assert
	assert.Equal(t, http.StatusCreated, resp.Code)

	var response handler.AuthResponse
	err := json.Unmarshal(resp.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.NotEmpty(t, response.Token)
	assert.Equal(t, "tester", response.User.Username)
	assert.Equal(t, "test@example.com", response.User.Email)

	// Токен должен принадлежать созданному пользователю
	subject, err := auth.NewIssuer(testSecret, time.Hour).ParseToken(response.Token)
	assert.NoError(t, err)
	assert.Equal(t, response.User.ID, subject)

	mockRepo.AssertExpectations(t)
}

func TestRegister_UsernameTaken(t *testing.T) {
	// Arrange
	router, mockRepo := setupTest()
	mockRepo.On("FindByUsername", mock.Anything, "tester").Return(&model.User{ID: uuid.New(), Username: "tester"}, nil)

	// Act
	resp := postJSON(router, "/register", handler.RegisterRequest{
		Username: "tester",
		Email:    "new@example.com",
		Password: "password123",
	})

	// Assert
	assert.Equal(t, http.StatusConflict, resp.Code)
	var response map[string]string
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, "Username already exists", response["error"])
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_UserAlreadyExists(t *testing.T) {
	// Arrange
	router, mockRepo := setupTest()

	// Мокаем методы репозитория - email уже занят
	existingUser := &model.User{
		ID:             uuid.New(),
		Email:          "existing@example.com",
		HashedPassword: "hashed_password",
		Username:       "existing",
	}
	mockRepo.On("FindByUsername", mock.Anything, "tester").Return(nil, nil)
	mockRepo.On("FindByEmail", mock.Anything, "existing@example.com").Return(existingUser, nil)

	// Act
	resp := postJSON(router, "/register", handler.RegisterRequest{
		Username: "tester",
		Email:    "existing@example.com",
		Password: "password123",
	})

	// Assert
	assert.Equal(t, http.StatusConflict, resp.Code)

	var response map[string]string
	err := json.Unmarshal(resp.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "User with this email already exists", response["error"])

	mockRepo.AssertExpectations(t)
}

func TestRegister_RaceOnCreate(t *testing.T) {
	// Arrange
	router, mockRepo := setupTest()
	mockRepo.On("FindByUsername", mock.Anything, "tester").Return(nil, nil)
	mockRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, nil)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(repository.ErrDuplicateUser)

	// Act
	resp := postJSON(router, "/register", handler.RegisterRequest{
		Username: "tester",
		Email:    "test@example.com",
		Password: "password123",
	})

	// Assert
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestRegister_InvalidInput(t *testing.T) {
	// Arrange
	router, _ := setupTest()

	// Act
	resp := postJSON(router, "/register", map[string]string{"username": "x", "email": "not-an-email"})

	// Assert
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestLogin_Success(t *testing.T) {
	// Arrange
	router, mockRepo := setupTest()

	// Создаем хешированный пароль для тестового пользователя
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	testUser := &model.User{
		ID:             uuid.New(),
		Email:          "test@example.com",
		HashedPassword: string(hashedPassword),
		Username:       "tester",
	}
	mockRepo.On("FindByUsername", mock.Anything, "tester").Return(testUser, nil)

	// Act
	resp := postJSON(router, "/login", handler.LoginRequest{Username: "tester", Password: "password123"})

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)

	var response handler.AuthResponse
	err := json.Unmarshal(resp.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.NotEmpty(t, response.Token)
	assert.Equal(t, testUser.Username, response.User.Username)
	assert.Equal(t, testUser.Email, response.User.Email)
	assert.Equal(t, testUser.ID.String(), response.User.ID)

	mockRepo.AssertExpectations(t)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	// Arrange
	router, mockRepo := setupTest()

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.DefaultCost)
	testUser := &model.User{
		ID:             uuid.New(),
		Email:          "test@example.com",
		HashedPassword: string(hashedPassword),
		Username:       "tester",
	}
	mockRepo.On("FindByUsername", mock.Anything, "tester").Return(testUser, nil)

	// Act: неверный пароль
	resp := postJSON(router, "/login", handler.LoginRequest{Username: "tester", Password: "wrong_password"})

	// Assert
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	var response map[string]string
	err := json.Unmarshal(resp.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "Invalid credentials", response["error"])

	mockRepo.AssertExpectations(t)
}

func TestLogin_UserNotFound(t *testing.T) {
	// Arrange
	router, mockRepo := setupTest()

	// Мокаем метод репозитория - пользователь не найден
	mockRepo.On("FindByUsername", mock.Anything, "ghost").Return(nil, nil)

	// Act
	resp := postJSON(router, "/login", handler.LoginRequest{Username: "ghost", Password: "password123"})

	// Assert
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	var response map[string]string
	err := json.Unmarshal(resp.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "Invalid credentials", response["error"])

	mockRepo.AssertExpectations(t)
}

func TestListUsers(t *testing.T) {
	// Arrange
	router, mockRepo := setupTest()
	users := []model.User{
		{ID: uuid.New(), Username: "alice", Email: "alice@example.com", HashedPassword: "secret-hash"},
		{ID: uuid.New(), Username: "bob", Email: "bob@example.com", HashedPassword: "secret-hash"},
	}
	mockRepo.On("List", mock.Anything).Return(users, nil)

	// Act
	req, _ := http.NewRequest("GET", "/users", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.NotContains(t, resp.Body.String(), "secret-hash")

	var response []map[string]string
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Len(t, response, 2)
	assert.Equal(t, "alice", response[0]["username"])
}
