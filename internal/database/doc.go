// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── settings/        # Application settings
//	└── sessions/        # Export session history
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	// Initialize database connection
//	db, err := database.NewDatabase("./app.db")
//
//	// Create domain-specific repositories
//	settingsRepo := settings.NewRepository(db.DB)
//	sessionsRepo := sessions.NewRepository(db.DB)
//
// The main Database struct only owns the connection and migrations; all
// reads and writes go through the repositories.
package database
