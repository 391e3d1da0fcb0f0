package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/mediadl/internal/app"
	"github.com/yourusername/mediadl/internal/domain"
	"github.com/yourusername/mediadl/internal/infrastructure"
)

// Version is reported by the health endpoint
var Version = "dev"

// HealthHandler reports whether the queue accepts work
type HealthHandler struct {
	queueMgr *app.QueueManager
	cache    *infrastructure.ContentCache
	started  time.Time
}

// NewHealthHandler creates a new health handler. cache may be nil.
func NewHealthHandler(queueMgr *app.QueueManager, cache *infrastructure.ContentCache) *HealthHandler {
	return &HealthHandler{
		queueMgr: queueMgr,
		cache:    cache,
		started:  time.Now(),
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status  string                     `json:"status"`
	Version string                     `json:"version"`
	Uptime  string                     `json:"uptime"`
	Queue   QueueHealth                `json:"queue"`
	Cache   *infrastructure.CacheStats `json:"cache,omitempty"`
}

type QueueHealth struct {
	Running bool                 `json:"running"`
	Active  int64                `json:"active"`
	Stats   domain.DownloadStats `json:"stats"`
}

// Health handles GET /health. It answers 200 even when stopped so the CLI can
// tell a draining server from a dead one.
func (h *HealthHandler) Health(c *gin.Context) {
	stats := h.queueMgr.Stats()
	response := HealthResponse{
		Status:  "ok",
		Version: Version,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
		Queue: QueueHealth{
			Running: h.queueMgr.IsRunning(),
			Active:  stats.Pending + stats.Downloading,
			Stats:   stats,
		},
	}
	if !response.Queue.Running {
		response.Status = "stopping"
	}
	if h.cache != nil {
		cacheStats := h.cache.Stats()
		response.Cache = &cacheStats
	}

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.queueMgr.IsRunning() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": domain.ErrManagerStopped.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
