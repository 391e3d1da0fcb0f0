package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mediadl/pkg/logger"
)

const defaultBacklog = 50

// LogWebSocketHandler streams a log category as it is written
type LogWebSocketHandler struct {
	logReader *logger.LogReader
	logger    *zap.Logger
}

// NewLogWebSocketHandler creates a new log streaming handler
func NewLogWebSocketHandler(logReader *logger.LogReader, log *zap.Logger) *LogWebSocketHandler {
	return &LogWebSocketHandler{
		logReader: logReader,
		logger:    log,
	}
}

// HandleWebSocket handles GET /api/v1/logs/stream?category=&url=&backlog=.
// The stream starts with the last backlog entries of today's file. With url,
// only entries logged for that download are sent.
func (h *LogWebSocketHandler) HandleWebSocket(c *gin.Context) {
	category := logger.LogCategory(c.DefaultQuery("category", string(logger.CategoryDownload)))
	if !category.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
		return
	}
	backlog, err := strconv.Atoi(c.DefaultQuery("backlog", strconv.Itoa(defaultBacklog)))
	if err != nil || backlog < 0 || backlog > maxLogLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid backlog"})
		return
	}
	keep := forDownload(c.Query("url"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Info("Log stream client connected",
		zap.String("category", string(category)),
		zap.String("remote_addr", c.Request.RemoteAddr))

	if backlog > 0 {
		entries, err := h.logReader.ReadLogs(category, time.Now(), backlog)
		if err != nil {
			h.logger.Warn("Failed to read log backlog", zap.Error(err))
		}
		for _, entry := range entries {
			if keep != nil && !keep(entry) {
				continue
			}
			if err := writeJSON(conn, entry); err != nil {
				return
			}
		}
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	entries := make(chan logger.LogEntry, 100)
	go func() {
		defer close(entries)
		if err := h.logReader.TailLogs(ctx, category, entries); err != nil && ctx.Err() == nil {
			h.logger.Error("Log tailing error", zap.Error(err))
		}
	}()

	if err := pump(conn, entries, keep); err != nil {
		h.logger.Debug("Log stream write failed", zap.Error(err))
	}
}

// forDownload matches entries whose url field equals u. An empty u matches all.
func forDownload(u string) func(logger.LogEntry) bool {
	if u == "" {
		return nil
	}
	return func(e logger.LogEntry) bool {
		v, _ := e.Fields["url"].(string)
		return v == u
	}
}
