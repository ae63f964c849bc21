package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// AnkiBrowser exposes the read-only AnkiConnect queries the API needs
// for status and collection browsing.
type AnkiBrowser interface {
	URL() string
	Version(ctx context.Context) (int, error)
	TestConnection(ctx context.Context) (bool, string)
	DeckNames(ctx context.Context, forceRefresh bool) ([]string, error)
	ModelNames(ctx context.Context, forceRefresh bool) ([]string, error)
	ModelFieldNames(ctx context.Context, model string) ([]string, error)
}

// AnkiController handles AnkiConnect status and browse endpoints.
type AnkiController struct {
	anki AnkiBrowser
}

func NewAnkiController(anki AnkiBrowser) *AnkiController {
	return &AnkiController{anki: anki}
}

// AnkiStatusResponse is the response for GET /api/anki/status.
type AnkiStatusResponse struct {
	URL       string `json:"url"`
	Connected bool   `json:"connected"`
	Version   int    `json:"version,omitempty"`
	Message   string `json:"message,omitempty"`
}

// GetStatus handles GET /api/anki/status.
func (ac *AnkiController) GetStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp := AnkiStatusResponse{URL: ac.anki.URL()}

	version, err := ac.anki.Version(ctx)
	if err != nil {
		resp.Connected = false
		resp.Message = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}

	resp.Connected = true
	resp.Version = version
	c.JSON(http.StatusOK, resp)
}

// ListDecks handles GET /api/anki/decks.
func (ac *AnkiController) ListDecks(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	forceRefresh := c.Query("refresh") == "true"
	decks, err := ac.anki.DeckNames(ctx, forceRefresh)
	if err != nil {
		respondInternalError(c, err, "list anki decks")
		return
	}

	c.JSON(http.StatusOK, gin.H{"decks": decks})
}

// ListModels handles GET /api/anki/models.
func (ac *AnkiController) ListModels(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	forceRefresh := c.Query("refresh") == "true"
	models, err := ac.anki.ModelNames(ctx, forceRefresh)
	if err != nil {
		respondInternalError(c, err, "list anki note types")
		return
	}

	c.JSON(http.StatusOK, gin.H{"models": models})
}

// GetModelFields handles GET /api/anki/models/:name/fields.
func (ac *AnkiController) GetModelFields(c *gin.Context) {
	model := c.Param("name")
	if model == "" {
		respondBadRequest(c, "note type name is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	fields, err := ac.anki.ModelFieldNames(ctx, model)
	if err != nil {
		respondInternalError(c, err, "fetch note type fields")
		return
	}

	c.JSON(http.StatusOK, gin.H{"model": model, "fields": fields})
}
