package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskboard/internal/apperr"
	"taskboard/internal/dto"
	"taskboard/internal/model"
	"taskboard/internal/service"
)

type TaskHandler struct {
	tasks *service.TaskService
}

func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// AssigneeRequest указывает исполнителя по ID или по имени пользователя
type AssigneeRequest struct {
	ID       string `json:"id,omitempty" binding:"omitempty,uuid"`
	Username string `json:"username,omitempty"`
}

// AssigneeField отличает отсутствующее поле от явного null
type AssigneeField struct {
	Set   bool
	Value *AssigneeRequest
}

func (a *AssigneeField) UnmarshalJSON(data []byte) error {
	a.Set = true
	if string(data) == "null" {
		a.Value = nil
		return nil
	}
	var req AssigneeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	a.Value = &req
	return nil
}

func (a AssigneeField) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Value)
}

// IsZero сообщает, что поле не было передано; такое поле не попадает в JSON
func (a AssigneeField) IsZero() bool {
	return !a.Set
}

// CreateTaskRequest представляет запрос на создание задачи
type CreateTaskRequest struct {
	Title       string           `json:"title" binding:"required"`
	Description string           `json:"description"`
	Priority    string           `json:"priority" binding:"omitempty,priority"`
	Status      string           `json:"status" binding:"omitempty,task_status"`
	AssignedTo  *AssigneeRequest `json:"assignedTo"`
}

// UpdateTaskRequest представляет частичное обновление задачи
type UpdateTaskRequest struct {
	Title           *string       `json:"title,omitempty"`
	Description     *string       `json:"description,omitempty"`
	Priority        *string       `json:"priority,omitempty" binding:"omitempty,priority"`
	Status          *string       `json:"status,omitempty" binding:"omitempty,task_status"`
	AssignedTo      AssigneeField `json:"assignedTo,omitzero"`
	BaselineVersion *int64        `json:"baselineVersion,omitempty"`
	Force           bool          `json:"force,omitempty"`
}

// ConflictResponse возвращается при 409
type ConflictResponse struct {
	Error              string            `json:"error"`
	YourSubmission     UpdateTaskRequest `json:"yourSubmission"`
	CurrentServerState dto.TaskResponse  `json:"currentServerState"`
}

// Create создает новую задачу
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	assignee, err := toAssigneeRef(req.AssignedTo)
	if err != nil {
		respondError(c, err)
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), userID, service.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    model.Priority(req.Priority),
		Status:      model.Status(req.Status),
		Assignee:    assignee,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.Task(task))
}

// GetAll возвращает снимок всех задач
func (h *TaskHandler) GetAll(c *gin.Context) {
	tasks, err := h.tasks.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Tasks(tasks))
}

// GetByID получает задачу по ID
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Task(task))
}

// Update применяет изменения; при устаревшей версии отвечает 409
func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	in := service.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Baseline:    req.BaselineVersion,
		Force:       req.Force,
	}
	if req.Priority != nil {
		p := model.Priority(*req.Priority)
		in.Priority = &p
	}
	if req.Status != nil {
		s := model.Status(*req.Status)
		in.Status = &s
	}
	if req.AssignedTo.Set {
		if req.AssignedTo.Value == nil {
			in.Assignee = service.NoAssignee()
		} else {
			ref, err := toAssigneeRef(req.AssignedTo.Value)
			if err != nil {
				respondError(c, err)
				return
			}
			in.Assignee = ref
		}
	}

	task, err := h.tasks.Update(c.Request.Context(), userID, id, in)
	if err != nil {
		var conflict *apperr.ConflictError
		if errors.As(err, &conflict) {
			// Отдаем обе версии, чтобы клиент мог перезаписать или объединить
			c.JSON(http.StatusConflict, ConflictResponse{
				Error:              "Conflict detected",
				YourSubmission:     req,
				CurrentServerState: dto.Task(conflict.Current),
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Task(task))
}

// Delete удаляет задачу без проверки версии
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// SmartAssign назначает задачу наименее загруженному пользователю
func (h *TaskHandler) SmartAssign(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	task, err := h.tasks.SmartAssign(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Task(task))
}

func toAssigneeRef(req *AssigneeRequest) (*service.AssigneeRef, error) {
	switch {
	case req == nil:
		return nil, nil
	case req.ID != "" && req.Username != "":
		return nil, apperr.Validation("assignedTo must have either id or username")
	case req.ID != "":
		id, err := uuid.Parse(req.ID)
		if err != nil {
			return nil, apperr.Validation("invalid assignee id")
		}
		return service.AssigneeID(id), nil
	case req.Username != "":
		return service.AssigneeUsername(req.Username), nil
	default:
		return nil, apperr.Validation("assignedTo must have either id or username")
	}
}
