package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.AnkiProber, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/healthcheck", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// AnkiConnect status and browse endpoints
	if cfg.AnkiClient != nil {
		ankiController := NewAnkiController(cfg.AnkiClient)
		router.GET("/api/anki/status", ankiController.GetStatus)
		router.GET("/api/anki/decks", ankiController.ListDecks)
		router.GET("/api/anki/models", ankiController.ListModels)
		router.GET("/api/anki/models/:name/fields", ankiController.GetModelFields)
	}

	// Export trigger and session history endpoints
	if cfg.ExportService != nil {
		var enqueuer TaskEnqueuer
		if cfg.TaskClient != nil {
			enqueuer = cfg.TaskClient
		}
		exportController := NewExportController(cfg.ExportService, enqueuer, cfg.SessionStore)
		router.POST("/api/export", exportController.RunExport)
		if cfg.SessionStore != nil {
			router.GET("/api/export/status", exportController.GetStatus)
			router.GET("/api/export/sessions", exportController.ListSessions)
			router.GET("/api/export/sessions/:id", exportController.GetSession)
		}
	}

	// Settings endpoints
	if cfg.SettingsStore != nil {
		ankiSettings := NewAnkiSettingsController(cfg.SettingsStore)
		router.GET("/api/settings/anki", ankiSettings.GetSettings)
		router.PUT("/api/settings/anki", ankiSettings.UpdateSettings)
		router.DELETE("/api/settings/anki", ankiSettings.ResetSettings)

		syncSettings := NewSyncSettingsController(cfg.SettingsStore, cfg.SyncScheduler)
		router.GET("/api/settings/sync", syncSettings.GetSettings)
		router.PUT("/api/settings/sync", syncSettings.UpdateSettings)
		router.POST("/api/sync/run", syncSettings.RunNow)
	}

	// Task management endpoints
	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient)
		router.GET("/api/tasks/types", tasksController.ListTaskTypes)
		router.GET("/api/tasks/:id", tasksController.GetTaskStatus)
	}

	return router
}
