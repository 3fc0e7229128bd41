package handler

import (
	"io"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"taskboard/internal/broadcast"
)

const heartbeatInterval = 25 * time.Second

type EventHandler struct {
	hub    *broadcast.Hub
	buffer int
}

func NewEventHandler(hub *broadcast.Hub, buffer int) *EventHandler {
	return &EventHandler{hub: hub, buffer: buffer}
}

// Stream отдает события в формате SSE. Если клиент не успевает читать,
// хаб отключает его: клиент получает событие resync и должен заново
// загрузить снимок задач.
func (h *EventHandler) Stream(c *gin.Context) {
	sub := h.hub.Subscribe(h.buffer)
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	// Сразу сообщаем клиенту, что подписка активна
	c.Render(-1, sse.Event{Event: "ready", Data: gin.H{"buffer": h.buffer}})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				c.Render(-1, sse.Event{Event: "resync", Data: gin.H{"reason": "subscriber too slow"}})
				return false
			}
			c.Render(-1, sse.Event{Event: string(ev.Kind), Id: ev.TaskID.String(), Data: ev})
			return true
		case <-heartbeat.C:
			c.Render(-1, sse.Event{Event: "ping", Data: time.Now().Unix()})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
