package settingsstore

import (
	"os"

	"github.com/orhnk/Mahfouz/internal/database/settings"
)

// Priority: override > database > environment > default. Overrides are
// in-memory only and exist for CLI flags; they are never persisted.
type SettingsStore struct {
	db        *settings.Repository
	overrides map[string]string
}

func New(db *settings.Repository) *SettingsStore {
	return &SettingsStore{db: db}
}

// Override pins a setting to a value for the lifetime of this store without
// persisting it. Used by CLI subcommands whose flags beat stored settings.
func (s *SettingsStore) Override(settingKey, value string) {
	if s.overrides == nil {
		s.overrides = make(map[string]string)
	}
	s.overrides[settingKey] = value
}

// resolve returns the effective value for a setting together with its source
// ("override", "database", "environment" or "default").
func (s *SettingsStore) resolve(settingKey, envKey, fallback string) (string, string) {
	if v, ok := s.overrides[settingKey]; ok {
		return v, "override"
	}
	setting, err := s.db.GetSetting(settingKey)
	if err == nil && setting.Value != "" {
		return setting.Value, "database"
	}
	if envVal := os.Getenv(envKey); envVal != "" {
		return envVal, "environment"
	}
	return fallback, "default"
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}
