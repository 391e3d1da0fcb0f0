package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mediadl/internal/app"
	"github.com/yourusername/mediadl/internal/domain"
)

const eventBuffer = 256

// EventWebSocketHandler streams download events to WebSocket clients
type EventWebSocketHandler struct {
	bus    *app.EventBus
	logger *zap.Logger
}

// NewEventWebSocketHandler creates a new event streaming handler
func NewEventWebSocketHandler(bus *app.EventBus, logger *zap.Logger) *EventWebSocketHandler {
	return &EventWebSocketHandler{bus: bus, logger: logger}
}

// HandleWebSocket handles GET /api/v1/events. ?url= limits the stream to one URL.
// A client that cannot keep up loses events rather than stalling the queue.
func (h *EventWebSocketHandler) HandleWebSocket(c *gin.Context) {
	filter := c.Query("url")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	events, unsubscribe := h.bus.SubscribeChan(eventBuffer)
	defer unsubscribe()

	h.logger.Info("Event stream client connected",
		zap.String("url", filter),
		zap.String("remote_addr", c.Request.RemoteAddr))

	var keep func(domain.Event) bool
	if filter != "" {
		keep = func(e domain.Event) bool { return e.URL == filter }
	}
	if err := pump(conn, events, keep); err != nil {
		h.logger.Debug("Event stream write failed", zap.Error(err))
	}
	h.logger.Info("Event stream client disconnected", zap.String("remote_addr", c.Request.RemoteAddr))
}
