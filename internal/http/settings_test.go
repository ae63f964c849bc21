package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orhnk/Mahfouz/internal/database"
	"github.com/orhnk/Mahfouz/internal/database/settings"
	"github.com/orhnk/Mahfouz/internal/settingsstore"
)

func setupSettingsTest(t *testing.T) *settingsstore.SettingsStore {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// Neutralize environment so only stored values and defaults apply.
	for _, key := range []string{
		"ANKI_CONNECT_URL", "ANKI_PARENT_DECK", "ANKI_NOTE_TYPE",
		"ANKI_ALLOW_DUPLICATES", "ANKI_PER_BOOK_DECKS", "ANKI_ADD_TAGS",
		"ANKI_FRONT_CONTENT", "ANKI_FIELD_MAPPINGS", "ANKI_SHOW_REF_PAGES",
		"ANKI_INCLUDE_PAGE", "ANKI_INCLUDE_CHAPTER", "ANKI_INCLUDE_DATE",
		"ANKI_INCLUDE_BOOK_INFO",
		"ANKI_SYNC_ENABLED", "ANKI_SYNC_SCHEDULE", "ANKI_SYNC_SIDECAR_DIR",
	} {
		t.Setenv(key, "")
	}

	dbPath := "./test_http_settings_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})

	return settingsstore.New(settings.NewRepository(db.DB))
}

func newSettingsTestRouter(store *settingsstore.SettingsStore, sched SyncScheduler) *gin.Engine {
	router := gin.New()
	ankiSettings := NewAnkiSettingsController(store)
	router.GET("/api/settings/anki", ankiSettings.GetSettings)
	router.PUT("/api/settings/anki", ankiSettings.UpdateSettings)
	router.DELETE("/api/settings/anki", ankiSettings.ResetSettings)

	syncSettings := NewSyncSettingsController(store, sched)
	router.GET("/api/settings/sync", syncSettings.GetSettings)
	router.PUT("/api/settings/sync", syncSettings.UpdateSettings)
	router.POST("/api/sync/run", syncSettings.RunNow)
	return router
}

func TestAnkiSettingsController(t *testing.T) {
	t.Run("returns defaults with their sources", func(t *testing.T) {
		store := setupSettingsTest(t)
		router := newSettingsTestRouter(store, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/settings/anki", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response settingsstore.AnkiExportConfigInfo
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, settingsstore.DefaultParentDeck, response.ParentDeck)
		assert.Equal(t, "default", response.ParentDeckSource)
		assert.True(t, response.PerBookDecks)
	})

	t.Run("partial update only touches provided fields", func(t *testing.T) {
		store := setupSettingsTest(t)
		router := newSettingsTestRouter(store, nil)

		body := []byte(`{"parent_deck": "Reading", "allow_duplicates": true}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/settings/anki", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Reading", store.GetAnkiParentDeck())
		assert.True(t, store.GetAnkiAllowDuplicates())
		assert.True(t, store.GetAnkiPerBookDecks())
	})

	t.Run("updates include toggles", func(t *testing.T) {
		store := setupSettingsTest(t)
		router := newSettingsTestRouter(store, nil)

		body := []byte(`{"include_date": true, "include_chapter": false}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/settings/anki", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response settingsstore.AnkiExportConfigInfo
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response.IncludeDate)
		assert.False(t, response.IncludeChapter)
		assert.True(t, response.IncludePage)
		assert.True(t, store.GetAnkiIncludeDate())
		assert.False(t, store.GetAnkiIncludeChapter())
	})

	t.Run("rejects an unknown front content policy", func(t *testing.T) {
		store := setupSettingsTest(t)
		router := newSettingsTestRouter(store, nil)

		body := []byte(`{"front_content": "sideways"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/settings/anki", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects an unknown field mapping key", func(t *testing.T) {
		store := setupSettingsTest(t)
		router := newSettingsTestRouter(store, nil)

		body := []byte(`{"field_mapping": {"highlight": "Front", "isbn": "Extra"}}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/settings/anki", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("reset clears stored overrides", func(t *testing.T) {
		store := setupSettingsTest(t)
		router := newSettingsTestRouter(store, nil)

		require.NoError(t, store.SetAnkiParentDeck("Reading"))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/settings/anki", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, settingsstore.DefaultParentDeck, store.GetAnkiParentDeck())
	})
}

type fakeScheduler struct {
	rescheduled bool
	ranNow      bool
	syncing     bool
}

func (s *fakeScheduler) Reschedule() error { s.rescheduled = true; return nil }
func (s *fakeScheduler) RunNow() error     { s.ranNow = true; return nil }
func (s *fakeScheduler) IsRunning() bool   { return true }
func (s *fakeScheduler) IsSyncing() bool   { return s.syncing }
func (s *fakeScheduler) GetNextRunTime() *time.Time {
	next := time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC)
	return &next
}

func TestSyncSettingsController(t *testing.T) {
	t.Run("update saves settings and reschedules", func(t *testing.T) {
		store := setupSettingsTest(t)
		sched := &fakeScheduler{}
		router := newSettingsTestRouter(store, sched)

		dir := t.TempDir()
		body, _ := json.Marshal(UpdateSyncSettingsRequest{
			Enabled:    boolPtr(true),
			Schedule:   "0 * * * *",
			SidecarDir: dir,
		})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/settings/sync", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, sched.rescheduled)
		assert.True(t, store.GetAnkiSyncEnabled())
		assert.Equal(t, "0 * * * *", store.GetAnkiSyncSchedule())
		assert.Equal(t, dir, store.GetAnkiSyncSidecarDir())
	})

	t.Run("rejects an invalid cron schedule", func(t *testing.T) {
		store := setupSettingsTest(t)
		router := newSettingsTestRouter(store, &fakeScheduler{})

		body := []byte(`{"schedule": "every now and then"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/settings/sync", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects a missing sidecar directory", func(t *testing.T) {
		store := setupSettingsTest(t)
		router := newSettingsTestRouter(store, &fakeScheduler{})

		body := []byte(`{"sidecar_dir": "/nonexistent/sidecars"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/settings/sync", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("run now starts a sync", func(t *testing.T) {
		store := setupSettingsTest(t)
		sched := &fakeScheduler{}
		router := newSettingsTestRouter(store, sched)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/sync/run", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.True(t, sched.ranNow)
	})

	t.Run("run now conflicts while a sync is in progress", func(t *testing.T) {
		store := setupSettingsTest(t)
		router := newSettingsTestRouter(store, &fakeScheduler{syncing: true})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/sync/run", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func boolPtr(b bool) *bool { return &b }
