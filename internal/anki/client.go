package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultURL is the address the AnkiConnect add-on listens on locally.
	DefaultURL = "http://127.0.0.1:8765"

	apiVersion     = 6
	defaultTimeout = 10 * time.Second
)

// Client interfaces with a local AnkiConnect endpoint.
//
// Deck and note-type name lists are cached between calls as a pure
// performance optimization; every mutating call invalidates them. The caches
// are owned by the client instance, never process-wide, so separate export
// sessions do not leak names across runs.
type Client struct {
	url        string
	httpClient *http.Client

	mu           sync.Mutex
	cachedDecks  []string
	cachedModels []string
}

// NewClient creates a new AnkiConnect client. An empty url selects the
// default local endpoint.
func NewClient(url string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// URL returns the endpoint this client talks to.
func (c *Client) URL() string {
	return c.url
}

type request struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// invoke sends one AnkiConnect action and returns the raw result payload.
func (c *Client) invoke(ctx context.Context, action string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(request{Action: action, Version: apiVersion, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from AnkiConnect", resp.StatusCode)
	}

	var decoded response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("invalid response from AnkiConnect: %w", err)
	}
	if decoded.Error != nil && *decoded.Error != "" {
		return nil, &APIError{Action: action, Message: *decoded.Error}
	}

	return decoded.Result, nil
}

func (c *Client) invokeInto(ctx context.Context, action string, params any, out any) error {
	raw, err := c.invoke(ctx, action, params)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", action, err)
	}
	return nil
}

// Version returns the AnkiConnect API version of the running endpoint.
func (c *Client) Version(ctx context.Context) (int, error) {
	var version int
	if err := c.invokeInto(ctx, "version", nil, &version); err != nil {
		return 0, err
	}
	return version, nil
}

// TestConnection probes the endpoint and returns a human-readable status.
func (c *Client) TestConnection(ctx context.Context) (bool, string) {
	version, err := c.Version(ctx)
	if err != nil {
		return false, err.Error()
	}
	return true, fmt.Sprintf("Connected to AnkiConnect (version %d)", version)
}

// RequestPermission asks the running Anki instance to allow API access.
func (c *Client) RequestPermission(ctx context.Context) (bool, error) {
	var result struct {
		Permission string `json:"permission"`
	}
	if err := c.invokeInto(ctx, "requestPermission", nil, &result); err != nil {
		return false, err
	}
	return result.Permission == "granted", nil
}

// DeckNames returns all deck names, from cache unless forceRefresh is set.
func (c *Client) DeckNames(ctx context.Context, forceRefresh bool) ([]string, error) {
	c.mu.Lock()
	if !forceRefresh && c.cachedDecks != nil {
		decks := c.cachedDecks
		c.mu.Unlock()
		return decks, nil
	}
	c.mu.Unlock()

	var decks []string
	if err := c.invokeInto(ctx, "deckNames", nil, &decks); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cachedDecks = decks
	c.mu.Unlock()
	return decks, nil
}

// DeckNamesAndIDs returns every deck name with its collection ID. Not cached;
// IDs can change when the user reorganizes the collection.
func (c *Client) DeckNamesAndIDs(ctx context.Context) (map[string]int64, error) {
	var decks map[string]int64
	if err := c.invokeInto(ctx, "deckNamesAndIds", nil, &decks); err != nil {
		return nil, err
	}
	return decks, nil
}

// DeckExists reports whether a deck with the given name exists.
func (c *Client) DeckExists(ctx context.Context, name string) (bool, error) {
	decks, err := c.DeckNames(ctx, false)
	if err != nil {
		return false, err
	}
	for _, d := range decks {
		if d == name {
			return true, nil
		}
	}
	return false, nil
}

// CreateDeck creates a deck, using "::" for nesting. Parent decks are created
// automatically by Anki.
func (c *Client) CreateDeck(ctx context.Context, name string) (int64, error) {
	var id int64
	err := c.invokeInto(ctx, "createDeck", map[string]any{"deck": name}, &id)
	if err != nil {
		return 0, err
	}
	c.invalidateDecks()
	return id, nil
}

// DeleteDecks removes decks and optionally the cards inside them.
func (c *Client) DeleteDecks(ctx context.Context, names []string, cardsToo bool) error {
	_, err := c.invoke(ctx, "deleteDecks", map[string]any{"decks": names, "cardsToo": cardsToo})
	if err != nil {
		return err
	}
	c.invalidateDecks()
	return nil
}

// CreateDeckHierarchy creates a per-book subdeck under a parent deck and
// returns the full deck path.
func (c *Client) CreateDeckHierarchy(ctx context.Context, parent, bookTitle string) (string, error) {
	safe := SanitizeDeckName(bookTitle)
	full := safe
	if parent != "" {
		full = parent + "::" + safe
	}
	if _, err := c.CreateDeck(ctx, full); err != nil {
		return "", err
	}
	return full, nil
}

// ModelNames returns all note-type names, from cache unless forceRefresh is set.
func (c *Client) ModelNames(ctx context.Context, forceRefresh bool) ([]string, error) {
	c.mu.Lock()
	if !forceRefresh && c.cachedModels != nil {
		models := c.cachedModels
		c.mu.Unlock()
		return models, nil
	}
	c.mu.Unlock()

	var models []string
	if err := c.invokeInto(ctx, "modelNames", nil, &models); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cachedModels = models
	c.mu.Unlock()
	return models, nil
}

// ModelFieldNames returns the ordered field list of a note type.
func (c *Client) ModelFieldNames(ctx context.Context, model string) ([]string, error) {
	var fields []string
	err := c.invokeInto(ctx, "modelFieldNames", map[string]any{"modelName": model}, &fields)
	if err != nil {
		return nil, err
	}
	return fields, nil
}

// CardTemplate defines one card's presentation for a note type.
type CardTemplate struct {
	Name  string `json:"Name"`
	Front string `json:"Front"`
	Back  string `json:"Back"`
}

// CreateModel creates a note type with the given fields, styling and card
// templates in one call.
func (c *Client) CreateModel(ctx context.Context, name string, fields []string, css string, templates []CardTemplate) error {
	_, err := c.invoke(ctx, "createModel", map[string]any{
		"modelName":     name,
		"inOrderFields": fields,
		"css":           css,
		"isCloze":       false,
		"cardTemplates": templates,
	})
	if err != nil {
		return err
	}
	c.invalidateModels()
	return nil
}

// AddModelField appends a field to an existing note type.
func (c *Client) AddModelField(ctx context.Context, model, field string, index int) error {
	_, err := c.invoke(ctx, "modelFieldAdd", map[string]any{
		"modelName": model,
		"fieldName": field,
		"index":     index,
	})
	return err
}

// UpdateModelStyling overwrites a note type's CSS.
func (c *Client) UpdateModelStyling(ctx context.Context, model, css string) error {
	_, err := c.invoke(ctx, "updateModelStyling", map[string]any{
		"model": map[string]any{"name": model, "css": css},
	})
	return err
}

// UpdateModelTemplates overwrites a note type's card templates.
func (c *Client) UpdateModelTemplates(ctx context.Context, model string, templates []CardTemplate) error {
	byName := make(map[string]map[string]string, len(templates))
	for _, t := range templates {
		byName[t.Name] = map[string]string{"Front": t.Front, "Back": t.Back}
	}
	_, err := c.invoke(ctx, "updateModelTemplates", map[string]any{
		"model": map[string]any{"name": model, "templates": byName},
	})
	return err
}

// NoteOptions controls duplicate handling when adding a note.
type NoteOptions struct {
	AllowDuplicate bool   `json:"allowDuplicate"`
	DuplicateScope string `json:"duplicateScope"`
}

// Note is one addNotes payload entry.
type Note struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Options   NoteOptions       `json:"options"`
	Tags      []string          `json:"tags,omitempty"`
}

// AddNotes submits a batch of notes. The result carries one slot per input
// note, aligned 1:1 with input order; a nil slot means that note was rejected.
func (c *Client) AddNotes(ctx context.Context, notes []Note) ([]*int64, error) {
	var ids []*int64
	err := c.invokeInto(ctx, "addNotes", map[string]any{"notes": notes}, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// CanAddNotes checks per-note eligibility (duplicate detection), aligned 1:1
// with input order.
func (c *Client) CanAddNotes(ctx context.Context, notes []Note) ([]bool, error) {
	var eligible []bool
	err := c.invokeInto(ctx, "canAddNotes", map[string]any{"notes": notes}, &eligible)
	if err != nil {
		return nil, err
	}
	return eligible, nil
}

// FindNotes returns note IDs matching an Anki search query.
func (c *Client) FindNotes(ctx context.Context, query string) ([]int64, error) {
	var ids []int64
	err := c.invokeInto(ctx, "findNotes", map[string]any{"query": query}, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// DeleteNotes removes notes by ID.
func (c *Client) DeleteNotes(ctx context.Context, ids []int64) error {
	_, err := c.invoke(ctx, "deleteNotes", map[string]any{"notes": ids})
	return err
}

// Sync triggers a sync with AnkiWeb.
func (c *Client) Sync(ctx context.Context) error {
	_, err := c.invoke(ctx, "sync", nil)
	return err
}

// InvalidateCaches drops the cached deck and note-type name lists. Safe to
// call at any time; the caches are never correctness-bearing.
func (c *Client) InvalidateCaches() {
	c.mu.Lock()
	c.cachedDecks = nil
	c.cachedModels = nil
	c.mu.Unlock()
}

func (c *Client) invalidateDecks() {
	c.mu.Lock()
	c.cachedDecks = nil
	c.mu.Unlock()
}

func (c *Client) invalidateModels() {
	c.mu.Lock()
	c.cachedModels = nil
	c.mu.Unlock()
}

// SanitizeDeckName replaces characters Anki does not accept in deck names.
func SanitizeDeckName(name string) string {
	replacer := strings.NewReplacer(
		":", "_",
		"\"", "_",
		"*", "_",
		"/", "_",
		"\\", "_",
		"<", "_",
		">", "_",
		"|", "_",
		"?", "_",
	)
	return strings.TrimSpace(replacer.Replace(name))
}
