package settingsstore

import (
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/orhnk/Mahfouz/internal/entities"
)

// AnkiSyncConfig represents the effective configuration for scheduled exports
type AnkiSyncConfig struct {
	Enabled    bool   `json:"enabled"`
	Schedule   string `json:"schedule"`
	SidecarDir string `json:"sidecar_dir"`
}

// AnkiSyncStatus represents the last scheduled export run
type AnkiSyncStatus struct {
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	Status     string     `json:"status,omitempty"`  // "success", "failed", "running", ""
	Message    string     `json:"message,omitempty"` // Error message or stats summary
}

// GetAnkiSyncEnabled returns whether scheduled export is enabled
// (database > env > default)
func (s *SettingsStore) GetAnkiSyncEnabled() bool {
	v, _ := s.resolve(entities.SettingKeyAnkiSyncEnabled, "ANKI_SYNC_ENABLED", "false")
	return parseBool(v)
}

func (s *SettingsStore) SetAnkiSyncEnabled(enabled bool) error {
	return s.db.SetSetting(entities.SettingKeyAnkiSyncEnabled, strconv.FormatBool(enabled))
}

// GetAnkiSyncSchedule returns the cron schedule (database > env > default)
func (s *SettingsStore) GetAnkiSyncSchedule() string {
	// Default: every 6 hours
	v, _ := s.resolve(entities.SettingKeyAnkiSyncSchedule, "ANKI_SYNC_SCHEDULE", "0 */6 * * *")
	return v
}

func (s *SettingsStore) SetAnkiSyncSchedule(schedule string) error {
	return s.db.SetSetting(entities.SettingKeyAnkiSyncSchedule, schedule)
}

// GetAnkiSyncSidecarDir returns the watched sidecar directory
// (database > env > "")
func (s *SettingsStore) GetAnkiSyncSidecarDir() string {
	v, _ := s.resolve(entities.SettingKeyAnkiSyncSidecarDir, "ANKI_SYNC_SIDECAR_DIR", "")
	return v
}

func (s *SettingsStore) SetAnkiSyncSidecarDir(dir string) error {
	return s.db.SetSetting(entities.SettingKeyAnkiSyncSidecarDir, dir)
}

// GetAnkiSyncConfig returns the effective configuration
func (s *SettingsStore) GetAnkiSyncConfig() AnkiSyncConfig {
	return AnkiSyncConfig{
		Enabled:    s.GetAnkiSyncEnabled(),
		Schedule:   s.GetAnkiSyncSchedule(),
		SidecarDir: s.GetAnkiSyncSidecarDir(),
	}
}

// GetAnkiSyncStatus returns the last scheduled run status
func (s *SettingsStore) GetAnkiSyncStatus() AnkiSyncStatus {
	status := AnkiSyncStatus{}

	if setting, err := s.db.GetSetting(entities.SettingKeyAnkiSyncLastAt); err == nil && setting.Value != "" {
		if ts, err := time.Parse(time.RFC3339, setting.Value); err == nil {
			status.LastSyncAt = &ts
		}
	}
	if setting, err := s.db.GetSetting(entities.SettingKeyAnkiSyncLastStatus); err == nil {
		status.Status = setting.Value
	}
	if setting, err := s.db.GetSetting(entities.SettingKeyAnkiSyncLastMessage); err == nil {
		status.Message = setting.Value
	}

	return status
}

// SetAnkiSyncStatus updates the scheduled run status
func (s *SettingsStore) SetAnkiSyncStatus(status, message string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	if err := s.db.SetSetting(entities.SettingKeyAnkiSyncLastAt, now); err != nil {
		return err
	}
	if err := s.db.SetSetting(entities.SettingKeyAnkiSyncLastStatus, status); err != nil {
		return err
	}
	return s.db.SetSetting(entities.SettingKeyAnkiSyncLastMessage, message)
}

// ValidateCronSchedule validates a cron schedule string
func ValidateCronSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(schedule)
	return err
}

// GetCronDescription returns a human-readable description of a cron schedule
func GetCronDescription(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "*/30 * * * *":
		return "Every 30 minutes"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	case "0 0 * * 0":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// GetNextRunTime calculates when the next scheduled export will run
func GetNextRunTime(schedule string) (*time.Time, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(time.Now())
	return &next, nil
}
