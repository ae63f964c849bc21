package settingsstore

import (
	"encoding/json"
	"strconv"

	"github.com/orhnk/Mahfouz/internal/anki"
	"github.com/orhnk/Mahfouz/internal/entities"
	"github.com/orhnk/Mahfouz/internal/export"
)

// DefaultParentDeck is the deck every export lands under unless configured
// otherwise.
const DefaultParentDeck = "Mahfouz"

// AnkiExportConfig represents the effective export configuration
type AnkiExportConfig struct {
	URL             string                      `json:"url"`
	ParentDeck      string                      `json:"parent_deck"`
	NoteType        string                      `json:"note_type"`
	AllowDuplicates bool                        `json:"allow_duplicates"`
	PerBookDecks    bool                        `json:"per_book_decks"`
	AddTags         bool                        `json:"add_tags"`
	FrontContent    entities.FrontContentPolicy `json:"front_content"`
	FieldMapping    entities.FieldMapping       `json:"field_mapping"`
	ShowRefPages    bool                        `json:"show_ref_pages"`

	IncludePage     bool `json:"include_page"`
	IncludeChapter  bool `json:"include_chapter"`
	IncludeDate     bool `json:"include_date"`
	IncludeBookInfo bool `json:"include_book_info"`
}

// ApplyIncludes blanks the metadata a disabled include toggle covers. Runs
// before materialization, so an excluded key contributes nothing even when
// its mapping shares a field with other keys. Content (text and comment) is
// never toggled off.
func (c AnkiExportConfig) ApplyIncludes(h entities.CanonicalHighlight) entities.CanonicalHighlight {
	if !c.IncludePage {
		h.Page = ""
	}
	if !c.IncludeChapter {
		h.Chapter = ""
	}
	if !c.IncludeDate {
		h.Date = ""
	}
	if !c.IncludeBookInfo {
		h.BookTitle = ""
		h.Author = ""
	}
	return h
}

// AnkiExportConfigInfo includes source information for each field
type AnkiExportConfigInfo struct {
	AnkiExportConfig

	URLSource          string `json:"url_source"` // "database", "environment", "default"
	ParentDeckSource   string `json:"parent_deck_source"`
	NoteTypeSource     string `json:"note_type_source"`
	FrontContentSource string `json:"front_content_source"`
}

// GetAnkiURL returns the AnkiConnect endpoint (database > env > default)
func (s *SettingsStore) GetAnkiURL() string {
	v, _ := s.resolve(entities.SettingKeyAnkiURL, "ANKI_CONNECT_URL", anki.DefaultURL)
	return v
}

func (s *SettingsStore) SetAnkiURL(url string) error {
	return s.db.SetSetting(entities.SettingKeyAnkiURL, url)
}

// GetAnkiParentDeck returns the parent deck name (database > env > default)
func (s *SettingsStore) GetAnkiParentDeck() string {
	v, _ := s.resolve(entities.SettingKeyAnkiParentDeck, "ANKI_PARENT_DECK", DefaultParentDeck)
	return v
}

func (s *SettingsStore) SetAnkiParentDeck(deck string) error {
	return s.db.SetSetting(entities.SettingKeyAnkiParentDeck, deck)
}

// GetAnkiNoteType returns the target note type (database > env > default)
func (s *SettingsStore) GetAnkiNoteType() string {
	v, _ := s.resolve(entities.SettingKeyAnkiNoteType, "ANKI_NOTE_TYPE", export.DefaultNoteTypeName)
	return v
}

func (s *SettingsStore) SetAnkiNoteType(noteType string) error {
	return s.db.SetSetting(entities.SettingKeyAnkiNoteType, noteType)
}

func (s *SettingsStore) GetAnkiAllowDuplicates() bool {
	v, _ := s.resolve(entities.SettingKeyAnkiAllowDuplicates, "ANKI_ALLOW_DUPLICATES", "false")
	return parseBool(v)
}

func (s *SettingsStore) SetAnkiAllowDuplicates(allow bool) error {
	return s.db.SetSetting(entities.SettingKeyAnkiAllowDuplicates, strconv.FormatBool(allow))
}

// GetAnkiPerBookDecks returns whether each book gets its own subdeck.
// Enabled by default; a flat single-deck export is the opt-in.
func (s *SettingsStore) GetAnkiPerBookDecks() bool {
	v, _ := s.resolve(entities.SettingKeyAnkiPerBookDecks, "ANKI_PER_BOOK_DECKS", "true")
	return parseBool(v)
}

func (s *SettingsStore) SetAnkiPerBookDecks(enabled bool) error {
	return s.db.SetSetting(entities.SettingKeyAnkiPerBookDecks, strconv.FormatBool(enabled))
}

func (s *SettingsStore) GetAnkiAddTags() bool {
	v, _ := s.resolve(entities.SettingKeyAnkiAddTags, "ANKI_ADD_TAGS", "true")
	return parseBool(v)
}

func (s *SettingsStore) SetAnkiAddTags(enabled bool) error {
	return s.db.SetSetting(entities.SettingKeyAnkiAddTags, strconv.FormatBool(enabled))
}

// GetAnkiFrontContent returns which record side fills the card front.
// Unrecognized stored values fall back to the highlight side.
func (s *SettingsStore) GetAnkiFrontContent() entities.FrontContentPolicy {
	v, _ := s.resolve(entities.SettingKeyAnkiFrontContent, "ANKI_FRONT_CONTENT", string(entities.FrontContentHighlight))
	if v == string(entities.FrontContentComment) {
		return entities.FrontContentComment
	}
	return entities.FrontContentHighlight
}

func (s *SettingsStore) SetAnkiFrontContent(policy entities.FrontContentPolicy) error {
	return s.db.SetSetting(entities.SettingKeyAnkiFrontContent, string(policy))
}

func (s *SettingsStore) GetAnkiIncludePage() bool {
	v, _ := s.resolve(entities.SettingKeyAnkiIncludePage, "ANKI_INCLUDE_PAGE", "true")
	return parseBool(v)
}

func (s *SettingsStore) SetAnkiIncludePage(enabled bool) error {
	return s.db.SetSetting(entities.SettingKeyAnkiIncludePage, strconv.FormatBool(enabled))
}

func (s *SettingsStore) GetAnkiIncludeChapter() bool {
	v, _ := s.resolve(entities.SettingKeyAnkiIncludeChapter, "ANKI_INCLUDE_CHAPTER", "true")
	return parseBool(v)
}

func (s *SettingsStore) SetAnkiIncludeChapter(enabled bool) error {
	return s.db.SetSetting(entities.SettingKeyAnkiIncludeChapter, strconv.FormatBool(enabled))
}

// GetAnkiIncludeDate returns whether the highlight date goes onto cards.
// Off by default; dates rarely add review value.
func (s *SettingsStore) GetAnkiIncludeDate() bool {
	v, _ := s.resolve(entities.SettingKeyAnkiIncludeDate, "ANKI_INCLUDE_DATE", "false")
	return parseBool(v)
}

func (s *SettingsStore) SetAnkiIncludeDate(enabled bool) error {
	return s.db.SetSetting(entities.SettingKeyAnkiIncludeDate, strconv.FormatBool(enabled))
}

// GetAnkiIncludeBookInfo covers both the book title and the author.
func (s *SettingsStore) GetAnkiIncludeBookInfo() bool {
	v, _ := s.resolve(entities.SettingKeyAnkiIncludeBookInfo, "ANKI_INCLUDE_BOOK_INFO", "true")
	return parseBool(v)
}

func (s *SettingsStore) SetAnkiIncludeBookInfo(enabled bool) error {
	return s.db.SetSetting(entities.SettingKeyAnkiIncludeBookInfo, strconv.FormatBool(enabled))
}

func (s *SettingsStore) GetAnkiShowRefPages() bool {
	v, _ := s.resolve(entities.SettingKeyAnkiShowRefPages, "ANKI_SHOW_REF_PAGES", "false")
	return parseBool(v)
}

func (s *SettingsStore) SetAnkiShowRefPages(enabled bool) error {
	return s.db.SetSetting(entities.SettingKeyAnkiShowRefPages, strconv.FormatBool(enabled))
}

// GetAnkiFieldMapping returns the declared field mapping. The stored form is
// a JSON object of logical key to field name; keys outside the logical set
// are dropped on read. Absent or malformed storage yields the default
// mapping.
func (s *SettingsStore) GetAnkiFieldMapping() entities.FieldMapping {
	raw, source := s.resolve(entities.SettingKeyAnkiFieldMappings, "ANKI_FIELD_MAPPINGS", "")
	if source == "default" || raw == "" {
		return entities.DefaultFieldMapping.Clone()
	}

	var decoded map[string]string
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return entities.DefaultFieldMapping.Clone()
	}

	mapping := make(entities.FieldMapping, len(decoded))
	for _, key := range entities.LogicalFieldKeys {
		if field, ok := decoded[string(key)]; ok {
			mapping[key] = field
		}
	}
	return mapping
}

func (s *SettingsStore) SetAnkiFieldMapping(mapping entities.FieldMapping) error {
	encoded, err := json.Marshal(mapping)
	if err != nil {
		return err
	}
	return s.db.SetSetting(entities.SettingKeyAnkiFieldMappings, string(encoded))
}

// GetAnkiExportConfig returns the effective configuration
func (s *SettingsStore) GetAnkiExportConfig() AnkiExportConfig {
	return AnkiExportConfig{
		URL:             s.GetAnkiURL(),
		ParentDeck:      s.GetAnkiParentDeck(),
		NoteType:        s.GetAnkiNoteType(),
		AllowDuplicates: s.GetAnkiAllowDuplicates(),
		PerBookDecks:    s.GetAnkiPerBookDecks(),
		AddTags:         s.GetAnkiAddTags(),
		FrontContent:    s.GetAnkiFrontContent(),
		FieldMapping:    s.GetAnkiFieldMapping(),
		ShowRefPages:    s.GetAnkiShowRefPages(),
		IncludePage:     s.GetAnkiIncludePage(),
		IncludeChapter:  s.GetAnkiIncludeChapter(),
		IncludeDate:     s.GetAnkiIncludeDate(),
		IncludeBookInfo: s.GetAnkiIncludeBookInfo(),
	}
}

// GetAnkiExportConfigInfo returns the configuration with source information
func (s *SettingsStore) GetAnkiExportConfigInfo() AnkiExportConfigInfo {
	_, urlSource := s.resolve(entities.SettingKeyAnkiURL, "ANKI_CONNECT_URL", anki.DefaultURL)
	_, deckSource := s.resolve(entities.SettingKeyAnkiParentDeck, "ANKI_PARENT_DECK", DefaultParentDeck)
	_, noteTypeSource := s.resolve(entities.SettingKeyAnkiNoteType, "ANKI_NOTE_TYPE", export.DefaultNoteTypeName)
	_, frontSource := s.resolve(entities.SettingKeyAnkiFrontContent, "ANKI_FRONT_CONTENT", string(entities.FrontContentHighlight))

	return AnkiExportConfigInfo{
		AnkiExportConfig:   s.GetAnkiExportConfig(),
		URLSource:          urlSource,
		ParentDeckSource:   deckSource,
		NoteTypeSource:     noteTypeSource,
		FrontContentSource: frontSource,
	}
}

// ClearAnkiExportSettings clears all database overrides, reverting to
// env/default.
func (s *SettingsStore) ClearAnkiExportSettings() error {
	return s.db.DeleteSettings(
		entities.SettingKeyAnkiURL,
		entities.SettingKeyAnkiParentDeck,
		entities.SettingKeyAnkiNoteType,
		entities.SettingKeyAnkiAllowDuplicates,
		entities.SettingKeyAnkiPerBookDecks,
		entities.SettingKeyAnkiAddTags,
		entities.SettingKeyAnkiFrontContent,
		entities.SettingKeyAnkiFieldMappings,
		entities.SettingKeyAnkiShowRefPages,
		entities.SettingKeyAnkiIncludePage,
		entities.SettingKeyAnkiIncludeChapter,
		entities.SettingKeyAnkiIncludeDate,
		entities.SettingKeyAnkiIncludeBookInfo,
	)
}
