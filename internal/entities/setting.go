package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Anki export settings
	SettingKeyAnkiURL             = "anki_url"
	SettingKeyAnkiParentDeck      = "anki_parent_deck"
	SettingKeyAnkiNoteType        = "anki_note_type"
	SettingKeyAnkiAllowDuplicates = "anki_allow_duplicates"
	SettingKeyAnkiPerBookDecks    = "anki_per_book_decks"
	SettingKeyAnkiAddTags         = "anki_add_tags"
	SettingKeyAnkiFrontContent    = "anki_front_content"
	SettingKeyAnkiFieldMappings   = "anki_field_mappings" // JSON object, logical key -> field name
	SettingKeyAnkiShowRefPages    = "anki_show_ref_pages"

	// Metadata include toggles. A disabled toggle blanks that metadata on
	// every record before materialization.
	SettingKeyAnkiIncludePage     = "anki_include_page"
	SettingKeyAnkiIncludeChapter  = "anki_include_chapter"
	SettingKeyAnkiIncludeDate     = "anki_include_date"
	SettingKeyAnkiIncludeBookInfo = "anki_include_book_info"

	// Scheduled sync settings
	SettingKeyAnkiSyncEnabled     = "anki_sync_enabled"
	SettingKeyAnkiSyncSchedule    = "anki_sync_schedule"
	SettingKeyAnkiSyncSidecarDir  = "anki_sync_sidecar_dir"
	SettingKeyAnkiSyncLastAt      = "anki_sync_last_at"
	SettingKeyAnkiSyncLastStatus  = "anki_sync_last_status"
	SettingKeyAnkiSyncLastMessage = "anki_sync_last_message"
)
