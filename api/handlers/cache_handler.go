package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/mediadl/internal/infrastructure"
)

// CacheHandler exposes content cache maintenance
type CacheHandler struct {
	cache *infrastructure.ContentCache
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(cache *infrastructure.ContentCache) *CacheHandler {
	return &CacheHandler{cache: cache}
}

// GetStats handles GET /api/v1/cache
func (h *CacheHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.Stats())
}

// Evict handles POST /api/v1/cache/evict
func (h *CacheHandler) Evict(c *gin.Context) {
	removed := h.cache.Evict()
	c.JSON(http.StatusOK, gin.H{"removed": removed, "stats": h.cache.Stats()})
}

// Clear handles DELETE /api/v1/cache
func (h *CacheHandler) Clear(c *gin.Context) {
	if !h.cache.Clear() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear cache"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cache cleared"})
}
