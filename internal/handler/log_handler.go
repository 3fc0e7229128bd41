package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/dto"
	"taskboard/internal/service"
)

type LogHandler struct {
	tasks *service.TaskService
}

func NewLogHandler(tasks *service.TaskService) *LogHandler {
	return &LogHandler{tasks: tasks}
}

// Recent возвращает последние записи журнала, новые первыми
func (h *LogHandler) Recent(c *gin.Context) {
	logs, err := h.tasks.RecentLogs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Logs(logs))
}
