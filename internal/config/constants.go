package config

// Default paths and endpoints
const (
	// DefaultDatabasePath is the default path for the application database
	DefaultDatabasePath = "./mahfouz.db"

	// DefaultAnkiConnectURL is where the AnkiConnect add-on listens locally
	DefaultAnkiConnectURL = "http://127.0.0.1:8765"
)
