package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Anki
		AnkiSync
		Global
		Database
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}
	Anki struct {
		URL        string
		ParentDeck string
		NoteType   string
	}
	AnkiSync struct {
		Enabled    bool
		Schedule   string // Cron format: "0 */6 * * *" = every 6 hours
		SidecarDir string // Directory scanned for KOReader sidecar files
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// AnkiConnect defaults
	v.SetDefault("anki_connect_url", DefaultAnkiConnectURL)
	v.SetDefault("anki_parent_deck", "")
	v.SetDefault("anki_note_type", "")

	// Scheduled export defaults
	v.SetDefault("anki_sync_enabled", false)
	v.SetDefault("anki_sync_schedule", "0 */6 * * *") // Every 6 hours
	v.SetDefault("anki_sync_sidecar_dir", "")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Anki: Anki{
			URL:        v.GetString("ANKI_CONNECT_URL"),
			ParentDeck: v.GetString("ANKI_PARENT_DECK"),
			NoteType:   v.GetString("ANKI_NOTE_TYPE"),
		},
		AnkiSync: AnkiSync{
			Enabled:    v.GetBool("ANKI_SYNC_ENABLED"),
			Schedule:   v.GetString("ANKI_SYNC_SCHEDULE"),
			SidecarDir: v.GetString("ANKI_SYNC_SIDECAR_DIR"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
	}
}
