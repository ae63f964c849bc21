package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/orhnk/Mahfouz/internal/anki"
	"github.com/orhnk/Mahfouz/internal/database/sessions"
	"github.com/orhnk/Mahfouz/internal/export"
	"github.com/orhnk/Mahfouz/internal/http"
	"github.com/orhnk/Mahfouz/internal/scheduler"
	"github.com/orhnk/Mahfouz/internal/services"
	"github.com/orhnk/Mahfouz/internal/tasks"
)

// =============================================================================
// AnkiConnect Access
// =============================================================================

var _ services.Remote = (*anki.Client)(nil)
var _ export.RemoteCollection = (*anki.Client)(nil)
var _ export.SchemaClient = (*anki.Client)(nil)
var _ http.AnkiBrowser = (*anki.Client)(nil)
var _ http.ConnectionProber = (*anki.Client)(nil)

// =============================================================================
// Persistence
// =============================================================================

var _ services.SessionRecorder = (*sessions.Repository)(nil)
var _ http.SessionStore = (*sessions.Repository)(nil)

// =============================================================================
// Orchestration
// =============================================================================

var _ http.ExportRunner = (*services.ExportService)(nil)
var _ http.TaskEnqueuer = (*tasks.Client)(nil)
var _ http.SyncScheduler = (*scheduler.AnkiSyncScheduler)(nil)
