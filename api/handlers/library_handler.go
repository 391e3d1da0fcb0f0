package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/mediadl/internal/domain"
	"github.com/yourusername/mediadl/internal/infrastructure"
)

// LibraryHandler lists and deletes downloaded media
type LibraryHandler struct {
	library *infrastructure.Library
}

// NewLibraryHandler creates a new library handler
func NewLibraryHandler(library *infrastructure.Library) *LibraryHandler {
	return &LibraryHandler{library: library}
}

// ListMedia handles GET /api/v1/library/:kind?sort=alpha|date|random
func (h *LibraryHandler) ListMedia(c *gin.Context) {
	kind, err := domain.ParseMediaKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := infrastructure.ParseSortOrder(c.Query("sort"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	files, err := h.library.List(kind, order)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"kind":  kind,
		"dir":   h.library.Dir(kind),
		"count": len(files),
		"files": files,
	})
}

// DeleteMedia handles DELETE /api/v1/library/:kind/:name
func (h *LibraryHandler) DeleteMedia(c *gin.Context) {
	kind, err := domain.ParseMediaKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.library.Delete(kind, c.Param("name")); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, domain.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "file deleted"})
}
