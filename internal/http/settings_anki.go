package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orhnk/Mahfouz/internal/entities"
	"github.com/orhnk/Mahfouz/internal/settingsstore"
)

// AnkiSettingsController handles Anki export settings endpoints.
type AnkiSettingsController struct {
	settingsStore *settingsstore.SettingsStore
}

func NewAnkiSettingsController(store *settingsstore.SettingsStore) *AnkiSettingsController {
	return &AnkiSettingsController{settingsStore: store}
}

// GetSettings handles GET /api/settings/anki.
func (sc *AnkiSettingsController) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, sc.settingsStore.GetAnkiExportConfigInfo())
}

// UpdateAnkiSettingsRequest is the request body for PUT /api/settings/anki.
// Absent fields keep their current values.
type UpdateAnkiSettingsRequest struct {
	URL             *string           `json:"url"`
	ParentDeck      *string           `json:"parent_deck"`
	NoteType        *string           `json:"note_type"`
	AllowDuplicates *bool             `json:"allow_duplicates"`
	PerBookDecks    *bool             `json:"per_book_decks"`
	AddTags         *bool             `json:"add_tags"`
	FrontContent    *string           `json:"front_content"`
	FieldMapping    map[string]string `json:"field_mapping"`
	ShowRefPages    *bool             `json:"show_ref_pages"`
	IncludePage     *bool             `json:"include_page"`
	IncludeChapter  *bool             `json:"include_chapter"`
	IncludeDate     *bool             `json:"include_date"`
	IncludeBookInfo *bool             `json:"include_book_info"`
}

// UpdateSettings handles PUT /api/settings/anki.
func (sc *AnkiSettingsController) UpdateSettings(c *gin.Context) {
	var req UpdateAnkiSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if req.FrontContent != nil {
		policy := entities.FrontContentPolicy(*req.FrontContent)
		if policy != entities.FrontContentHighlight && policy != entities.FrontContentComment {
			respondBadRequest(c, "front_content must be \"highlight\" or \"comment\"")
			return
		}
	}

	var mapping entities.FieldMapping
	if req.FieldMapping != nil {
		mapping = make(entities.FieldMapping, len(req.FieldMapping))
		for rawKey, field := range req.FieldMapping {
			key := entities.LogicalFieldKey(rawKey)
			if !isLogicalFieldKey(key) {
				respondBadRequest(c, "unknown field mapping key: "+rawKey)
				return
			}
			mapping[key] = field
		}
	}

	setters := []func() error{}
	if req.URL != nil {
		setters = append(setters, func() error { return sc.settingsStore.SetAnkiURL(*req.URL) })
	}
	if req.ParentDeck != nil {
		setters = append(setters, func() error { return sc.settingsStore.SetAnkiParentDeck(*req.ParentDeck) })
	}
	if req.NoteType != nil {
		setters = append(setters, func() error { return sc.settingsStore.SetAnkiNoteType(*req.NoteType) })
	}
	if req.AllowDuplicates != nil {
		setters = append(setters, func() error { return sc.settingsStore.SetAnkiAllowDuplicates(*req.AllowDuplicates) })
	}
	if req.PerBookDecks != nil {
		setters = append(setters, func() error { return sc.settingsStore.SetAnkiPerBookDecks(*req.PerBookDecks) })
	}
	if req.AddTags != nil {
		setters = append(setters, func() error { return sc.settingsStore.SetAnkiAddTags(*req.AddTags) })
	}
	if req.FrontContent != nil {
		setters = append(setters, func() error {
			return sc.settingsStore.SetAnkiFrontContent(entities.FrontContentPolicy(*req.FrontContent))
		})
	}
	if mapping != nil {
		setters = append(setters, func() error { return sc.settingsStore.SetAnkiFieldMapping(mapping) })
	}
	if req.ShowRefPages != nil {
		setters = append(setters, func() error { return sc.settingsStore.SetAnkiShowRefPages(*req.ShowRefPages) })
	}
	if req.IncludePage != nil {
		setters = append(setters, func() error { return sc.settingsStore.SetAnkiIncludePage(*req.IncludePage) })
	}
	if req.IncludeChapter != nil {
		setters = append(setters, func() error { return sc.settingsStore.SetAnkiIncludeChapter(*req.IncludeChapter) })
	}
	if req.IncludeDate != nil {
		setters = append(setters, func() error { return sc.settingsStore.SetAnkiIncludeDate(*req.IncludeDate) })
	}
	if req.IncludeBookInfo != nil {
		setters = append(setters, func() error { return sc.settingsStore.SetAnkiIncludeBookInfo(*req.IncludeBookInfo) })
	}

	for _, set := range setters {
		if err := set(); err != nil {
			respondInternalError(c, err, "save anki settings")
			return
		}
	}

	c.JSON(http.StatusOK, sc.settingsStore.GetAnkiExportConfigInfo())
}

// ResetSettings handles DELETE /api/settings/anki. Stored overrides are
// removed so environment variables and defaults apply again.
func (sc *AnkiSettingsController) ResetSettings(c *gin.Context) {
	if err := sc.settingsStore.ClearAnkiExportSettings(); err != nil {
		respondInternalError(c, err, "reset anki settings")
		return
	}
	respondSuccess(c, "anki export settings reset to defaults")
}

func isLogicalFieldKey(key entities.LogicalFieldKey) bool {
	for _, known := range entities.LogicalFieldKeys {
		if key == known {
			return true
		}
	}
	return false
}
