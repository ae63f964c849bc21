package http

import (
	"github.com/orhnk/Mahfouz/internal/database"
	"github.com/orhnk/Mahfouz/internal/settingsstore"
	"github.com/orhnk/Mahfouz/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database      *database.Database
	SettingsStore *settingsstore.SettingsStore

	// AnkiConnect access
	AnkiClient AnkiBrowser
	AnkiProber ConnectionProber

	// Export pipeline
	ExportService ExportRunner
	SessionStore  SessionStore

	// Background sync
	SyncScheduler SyncScheduler

	// Task queue client (optional; exports run synchronously without it)
	TaskClient *tasks.Client

	// Application info
	Version string
}
