package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mediadl/internal/app"
	"github.com/yourusername/mediadl/internal/domain"
)

// DownloadHandler handles download-related HTTP requests
type DownloadHandler struct {
	queueMgr *app.QueueManager
	logger   *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(queueMgr *app.QueueManager, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{
		queueMgr: queueMgr,
		logger:   logger,
	}
}

// AddDownloadRequest represents a request to add a download
type AddDownloadRequest struct {
	URL     string `json:"url" binding:"required"`
	Kind    string `json:"kind,omitempty"`
	DestDir string `json:"dest_dir,omitempty"`
}

// AddDownload handles POST /api/v1/downloads
func (h *DownloadHandler) AddDownload(c *gin.Context) {
	var req AddDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind := domain.KindVideo
	if req.Kind != "" {
		parsed, err := domain.ParseMediaKind(req.Kind)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		kind = parsed
	}

	download, err := h.queueMgr.Submit(req.URL, req.DestDir, kind)
	if err != nil {
		h.respondError(c, "Failed to add download", err)
		return
	}

	c.JSON(http.StatusCreated, download)
}

// GetDownload handles GET /api/v1/downloads/:id
func (h *DownloadHandler) GetDownload(c *gin.Context) {
	download, err := h.queueMgr.GetByID(c.Param("id"))
	if err != nil {
		h.respondError(c, "Failed to get download", err)
		return
	}

	c.JSON(http.StatusOK, download)
}

// ListDownloads handles GET /api/v1/downloads. ?url= narrows the result to that
// URL's request and ?status= filters by state.
func (h *DownloadHandler) ListDownloads(c *gin.Context) {
	if url := c.Query("url"); url != "" {
		download, err := h.queueMgr.Get(url)
		if err != nil {
			h.respondError(c, "Failed to get download", err)
			return
		}
		c.JSON(http.StatusOK, []*domain.DownloadRequest{download})
		return
	}

	status := domain.DownloadStatus(c.Query("status"))
	if status != "" && !domain.ValidateStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	downloads := h.queueMgr.List()
	if status != "" {
		filtered := downloads[:0]
		for _, d := range downloads {
			if d.Status == status {
				filtered = append(filtered, d)
			}
		}
		downloads = filtered
	}

	c.JSON(http.StatusOK, downloads)
}

// GetStats handles GET /api/v1/downloads/stats
func (h *DownloadHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.queueMgr.Stats())
}

// CancelDownload handles POST /api/v1/downloads/:id/cancel
func (h *DownloadHandler) CancelDownload(c *gin.Context) {
	download, err := h.queueMgr.GetByID(c.Param("id"))
	if err != nil {
		h.respondError(c, "Failed to cancel download", err)
		return
	}

	if !h.queueMgr.Cancel(download.URL) {
		c.JSON(http.StatusConflict, gin.H{"error": "download already finished"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "cancelling download"})
}

// DeleteDownload handles DELETE /api/v1/downloads/:id
func (h *DownloadHandler) DeleteDownload(c *gin.Context) {
	download, err := h.queueMgr.GetByID(c.Param("id"))
	if err != nil {
		h.respondError(c, "Failed to delete download", err)
		return
	}

	if err := h.queueMgr.Remove(download.URL); err != nil {
		h.respondError(c, "Failed to delete download", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "download removed"})
}

// respondError maps domain errors onto HTTP status codes
func (h *DownloadHandler) respondError(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrDuplicateRequest), errors.Is(err, domain.ErrNotTerminal):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrManagerStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
