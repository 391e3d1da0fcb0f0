package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/mediadl/api/handlers"
	"github.com/yourusername/mediadl/api/middleware"
	"github.com/yourusername/mediadl/internal/app"
	"github.com/yourusername/mediadl/internal/domain"
	"github.com/yourusername/mediadl/internal/infrastructure"
	"github.com/yourusername/mediadl/pkg/logger"
)

// Dependencies collects what the router serves. History, Cache and LogReader
// may be nil; their routes are then not registered.
type Dependencies struct {
	QueueManager *app.QueueManager
	History      domain.HistoryRepository
	Cache        *infrastructure.ContentCache
	Library      *infrastructure.Library
	LogReader    *logger.LogReader
	Logger       *logger.LoggerAdapter
}

// SetupRouter sets up the HTTP router
func SetupRouter(deps Dependencies) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Logger(deps.Logger))
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.CORS())

	healthHandler := handlers.NewHealthHandler(deps.QueueManager, deps.Cache)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	log := deps.Logger.General()

	v1 := router.Group("/api/v1")
	{
		downloadHandler := handlers.NewDownloadHandler(deps.QueueManager, log)
		downloads := v1.Group("/downloads")
		{
			downloads.POST("", downloadHandler.AddDownload)
			downloads.GET("", downloadHandler.ListDownloads)
			downloads.GET("/stats", downloadHandler.GetStats)
			downloads.GET("/:id", downloadHandler.GetDownload)
			downloads.POST("/:id/cancel", downloadHandler.CancelDownload)
			downloads.DELETE("/:id", downloadHandler.DeleteDownload)
		}

		eventHandler := handlers.NewEventWebSocketHandler(deps.QueueManager.Events(), log)
		v1.GET("/events", eventHandler.HandleWebSocket)

		if deps.History != nil {
			historyHandler := handlers.NewHistoryHandler(deps.History, log)
			history := v1.Group("/history")
			{
				history.GET("", historyHandler.ListHistory)
				history.GET("/stats", historyHandler.GetStats)
				history.GET("/:id", historyHandler.GetRecord)
				history.DELETE("/:id", historyHandler.DeleteRecord)
			}
		}

		if deps.Cache != nil {
			cacheHandler := handlers.NewCacheHandler(deps.Cache)
			cache := v1.Group("/cache")
			{
				cache.GET("", cacheHandler.GetStats)
				cache.POST("/evict", cacheHandler.Evict)
				cache.DELETE("", cacheHandler.Clear)
			}
		}

		if deps.Library != nil {
			libraryHandler := handlers.NewLibraryHandler(deps.Library)
			library := v1.Group("/library")
			{
				library.GET("/:kind", libraryHandler.ListMedia)
				library.DELETE("/:kind/:name", libraryHandler.DeleteMedia)
			}
		}

		if deps.LogReader != nil {
			logHandler := handlers.NewLogHandler(deps.LogReader)
			logWSHandler := handlers.NewLogWebSocketHandler(deps.LogReader, log)
			logs := v1.Group("/logs")
			{
				logs.GET("/categories", logHandler.GetCategories)
				logs.GET("/stream", logWSHandler.HandleWebSocket)
				logs.GET("/:category", logHandler.GetLogs)
				logs.GET("/:category/search", logHandler.SearchLogs)
				logs.GET("/:category/export", logHandler.ExportLogs)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
