// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## AnkiConnect Access
//
//   - services.Remote: the full AnkiConnect surface the export service needs
//     (internal/services/interfaces.go)
//   - export.RemoteCollection: note submission plus schema reads used by the
//     export engine (internal/export/engine.go)
//   - export.SchemaClient: note-type schema management used by the
//     reconciler (internal/export/reconciler.go)
//   - export.Submitter: the batch submission slice used by the pipeline
//     (internal/export/pipeline.go)
//   - http.AnkiBrowser: read-only queries backing the browse endpoints
//     (internal/http/anki.go)
//   - http.ConnectionProber: reachability probe for health checks
//     (internal/http/health.go)
//
// All of these are satisfied by *anki.Client; controllers and services take
// the narrow slice they need so tests can fake the remote cheaply.
//
// ## Persistence
//
//   - services.SessionRecorder: export session bookkeeping
//     (internal/services/interfaces.go)
//   - http.SessionStore: session history reads (internal/http/export.go)
//
// Both are satisfied by *sessions.Repository.
//
// ## Orchestration
//
//   - http.ExportRunner: triggers a full export run (internal/http/export.go)
//   - http.TaskEnqueuer: background task submission (internal/http/export.go)
//   - http.SyncScheduler: scheduled sync control (internal/http/settings_sync.go)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full set.
package interfaces
