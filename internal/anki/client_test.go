package anki

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer serves canned results per action and records every call.
func newTestServer(t *testing.T, results map[string]any) (*httptest.Server, *[]request) {
	t.Helper()
	var calls []request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, apiVersion, req.Version)
		calls = append(calls, req)

		result, ok := results[req.Action]
		if !ok {
			t.Fatalf("unexpected action %q", req.Action)
		}
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"result": result,
			"error":  nil,
		}))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestClient_Version(t *testing.T) {
	srv, _ := newTestServer(t, map[string]any{"version": 6})
	client := NewClient(srv.URL)

	version, err := client.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, version)
}

func TestClient_APIErrorInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"result": nil,
			"error":  "deck was not found: Missing",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.DeckNames(context.Background(), true)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "deckNames", apiErr.Action)
	assert.Contains(t, apiErr.Message, "deck was not found")
}

func TestClient_UnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Version(context.Background())
	require.ErrorIs(t, err, ErrUnreachable)

	ok, msg := client.TestConnection(context.Background())
	assert.False(t, ok)
	assert.NotEmpty(t, msg)
}

func TestClient_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Version(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnreachable)
}

func TestClient_DeckNamesCached(t *testing.T) {
	srv, calls := newTestServer(t, map[string]any{
		"deckNames": []string{"Default", "Books"},
	})
	client := NewClient(srv.URL)
	ctx := context.Background()

	first, err := client.DeckNames(ctx, false)
	require.NoError(t, err)
	second, err := client.DeckNames(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, *calls, 1, "second read must come from the cache")

	_, err = client.DeckNames(ctx, true)
	require.NoError(t, err)
	assert.Len(t, *calls, 2, "forceRefresh bypasses the cache")
}

func TestClient_CreateDeckInvalidatesCache(t *testing.T) {
	srv, calls := newTestServer(t, map[string]any{
		"deckNames":  []string{"Default"},
		"createDeck": 1700000000001,
	})
	client := NewClient(srv.URL)
	ctx := context.Background()

	_, err := client.DeckNames(ctx, false)
	require.NoError(t, err)

	id, err := client.CreateDeck(ctx, "Books::Palace Walk")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000001), id)

	_, err = client.DeckNames(ctx, false)
	require.NoError(t, err)

	actions := make([]string, 0, len(*calls))
	for _, c := range *calls {
		actions = append(actions, c.Action)
	}
	assert.Equal(t, []string{"deckNames", "createDeck", "deckNames"}, actions)
}

func TestClient_DeckExists(t *testing.T) {
	srv, _ := newTestServer(t, map[string]any{
		"deckNames": []string{"Default", "Books"},
	})
	client := NewClient(srv.URL)
	ctx := context.Background()

	ok, err := client.DeckExists(ctx, "Books")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.DeckExists(ctx, "Missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_CreateDeckHierarchy(t *testing.T) {
	srv, calls := newTestServer(t, map[string]any{"createDeck": 42})
	client := NewClient(srv.URL)

	full, err := client.CreateDeckHierarchy(context.Background(), "Books", `What: "Why?"`)
	require.NoError(t, err)
	assert.Equal(t, `Books::What_ _Why__`, full)

	require.Len(t, *calls, 1)
	params := (*calls)[0].Params.(map[string]any)
	assert.Equal(t, full, params["deck"])
}

func TestClient_AddNotes(t *testing.T) {
	srv, calls := newTestServer(t, map[string]any{
		"addNotes": []any{1496198395707, nil},
	})
	client := NewClient(srv.URL)

	notes := []Note{
		{DeckName: "Books", ModelName: "Basic", Fields: map[string]string{"Front": "a"}},
		{DeckName: "Books", ModelName: "Basic", Fields: map[string]string{"Front": "b"}},
	}
	ids, err := client.AddNotes(context.Background(), notes)
	require.NoError(t, err)

	require.Len(t, ids, 2)
	require.NotNil(t, ids[0])
	assert.Equal(t, int64(1496198395707), *ids[0])
	assert.Nil(t, ids[1])

	params := (*calls)[0].Params.(map[string]any)
	sent := params["notes"].([]any)
	require.Len(t, sent, 2)
	first := sent[0].(map[string]any)
	assert.Equal(t, "Books", first["deckName"])
	assert.Equal(t, "Basic", first["modelName"])
}

func TestClient_CanAddNotes(t *testing.T) {
	srv, _ := newTestServer(t, map[string]any{
		"canAddNotes": []bool{true, false},
	})
	client := NewClient(srv.URL)

	eligible, err := client.CanAddNotes(context.Background(), []Note{{}, {}})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, eligible)
}

func TestClient_CreateModelInvalidatesModelCache(t *testing.T) {
	srv, calls := newTestServer(t, map[string]any{
		"modelNames":  []string{"Basic"},
		"createModel": map[string]any{"id": 1},
	})
	client := NewClient(srv.URL)
	ctx := context.Background()

	_, err := client.ModelNames(ctx, false)
	require.NoError(t, err)

	err = client.CreateModel(ctx, "Custom", []string{"Front", "Back"}, "", []CardTemplate{
		{Name: "Card 1", Front: "{{Front}}", Back: "{{Back}}"},
	})
	require.NoError(t, err)

	_, err = client.ModelNames(ctx, false)
	require.NoError(t, err)

	actions := make([]string, 0, len(*calls))
	for _, c := range *calls {
		actions = append(actions, c.Action)
	}
	assert.Equal(t, []string{"modelNames", "createModel", "modelNames"}, actions)

	params := (*calls)[1].Params.(map[string]any)
	assert.Equal(t, false, params["isCloze"])
	assert.Equal(t, []any{"Front", "Back"}, params["inOrderFields"])
}

func TestClient_RequestPermission(t *testing.T) {
	srv, _ := newTestServer(t, map[string]any{
		"requestPermission": map[string]any{"permission": "granted"},
	})
	client := NewClient(srv.URL)

	granted, err := client.RequestPermission(context.Background())
	require.NoError(t, err)
	assert.True(t, granted)
}

func TestNewClient_DefaultURL(t *testing.T) {
	assert.Equal(t, DefaultURL, NewClient("").URL())
}

func TestSanitizeDeckName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Palace Walk", "Palace Walk"},
		{"C: The Book", "C_ The Book"},
		{`a"b*c/d\e<f>g|h?i`, "a_b_c_d_e_f_g_h_i"},
		{"  padded  ", "padded"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeDeckName(tc.in))
	}
}
