package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BarnabaBobbili/StoryHaven/internal/config"
	"github.com/BarnabaBobbili/StoryHaven/internal/database"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Port:            8080,
		LogLevel:        "error",
		SessionSecret:   "test-secret",
		SessionTTLHours: 1,
		SpeechRate:      1,
		SpeechPitch:     1,
		SpeechVolume:    1,
		Theme:           "default",
	}
	srv := &Server{
		cfg:      cfg,
		db:       database.New(cfg.DefaultSettings(), zerolog.Nop()),
		sessions: newSessionStore([]byte(cfg.SessionSecret), time.Hour),
	}
	return srv.RegisterRoutes()
}

func doRaw(t *testing.T, h http.Handler, method, path, token string, body []byte) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec.Code, out
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	return doRaw(t, h, method, path, token, raw)
}

func newSession(t *testing.T, h http.Handler) string {
	t.Helper()
	code, body := doJSON(t, h, http.MethodPost, "/api/v1/session", "", nil)
	require.Equal(t, http.StatusCreated, code)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func sessionState(t *testing.T, h http.Handler, token string) map[string]any {
	t.Helper()
	code, body := doJSON(t, h, http.MethodGet, "/api/v1/state", token, nil)
	require.Equal(t, http.StatusOK, code)
	state, _ := body["state"].(map[string]any)
	require.NotNil(t, state)
	return state
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t)
	code, body := doJSON(t, h, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "It's healthy", body["message"])
}

func TestMutationRequiresSession(t *testing.T) {
	h := newTestHandler(t)
	code, _ := doJSON(t, h, http.MethodPost, "/api/v1/create-story", "", map[string]any{"title": "Nope"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = doJSON(t, h, http.MethodPost, "/api/v1/create-story", "garbage-token", map[string]any{"title": "Nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestEditorFlow(t *testing.T) {
	h := newTestHandler(t)
	token := newSession(t, h)

	// The story-bound screens refuse until a story is selected.
	code, _ := doJSON(t, h, http.MethodPost, "/api/v1/navigate", token, map[string]any{"screen": "editor"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := doJSON(t, h, http.MethodPost, "/api/v1/create-story", token, map[string]any{"title": "The Brave Snail"})
	require.Equal(t, http.StatusCreated, code)
	story, _ := body["story"].(map[string]any)
	require.NotNil(t, story)
	storyID, _ := story["id"].(string)
	require.NotEmpty(t, storyID)

	// Story creation lands in the editor automatically.
	state := sessionState(t, h, token)
	assert.Equal(t, "editor", state["screen"])
	assert.Equal(t, storyID, state["story_id"])

	code, body = doJSON(t, h, http.MethodPost, "/api/v1/add-page", token, map[string]any{"text": "hello brave world"})
	require.Equal(t, http.StatusCreated, code)
	pageID, _ := body["page_id"].(string)
	require.NotEmpty(t, pageID)

	// The new page is open for editing.
	state = sessionState(t, h, token)
	assert.Equal(t, pageID, state["page_id"])

	// Deleting the open page clears the open-page reference.
	code, _ = doJSON(t, h, http.MethodPost, "/api/v1/delete-page", token, map[string]any{"page_id": pageID})
	require.Equal(t, http.StatusOK, code)
	state = sessionState(t, h, token)
	assert.NotContains(t, state, "page_id")
	assert.Equal(t, "editor", state["screen"])

	// Any screen is reachable from any other.
	code, _ = doJSON(t, h, http.MethodPost, "/api/v1/navigate", token, map[string]any{"screen": "games"})
	assert.Equal(t, http.StatusOK, code)
	code, _ = doJSON(t, h, http.MethodPost, "/api/v1/navigate", token, map[string]any{"screen": "preview"})
	assert.Equal(t, http.StatusOK, code)
	code, _ = doJSON(t, h, http.MethodPost, "/api/v1/navigate", token, map[string]any{"screen": "time-machine"})
	assert.Equal(t, http.StatusBadRequest, code)

	// Deleting the selected story exits to home.
	code, _ = doJSON(t, h, http.MethodPost, "/api/v1/delete-story", token, map[string]any{"id": storyID})
	require.Equal(t, http.StatusOK, code)
	state = sessionState(t, h, token)
	assert.Equal(t, "home", state["screen"])
	assert.NotContains(t, state, "story_id")
}

func TestRewardSurfacedOnCompletion(t *testing.T) {
	h := newTestHandler(t)
	token := newSession(t, h)

	code, _ := doJSON(t, h, http.MethodPost, "/api/v1/create-story", token, map[string]any{"title": "Milestones"})
	require.Equal(t, http.StatusCreated, code)

	for i := 0; i < 4; i++ {
		code, body := doJSON(t, h, http.MethodPost, "/api/v1/add-page", token, map[string]any{"text": "words"})
		require.Equal(t, http.StatusCreated, code)
		assert.NotContains(t, body, "reward")
	}

	code, body := doJSON(t, h, http.MethodPost, "/api/v1/add-page", token, map[string]any{"text": "words"})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "certificate", body["reward"])
}

func TestDictationTargetsOpenPage(t *testing.T) {
	h := newTestHandler(t)
	token := newSession(t, h)

	code, _ := doJSON(t, h, http.MethodPost, "/api/v1/create-story", token, map[string]any{"title": "Spoken"})
	require.Equal(t, http.StatusCreated, code)
	code, body := doJSON(t, h, http.MethodPost, "/api/v1/add-page", token, map[string]any{"text": "it began"})
	require.Equal(t, http.StatusCreated, code)
	pageID, _ := body["page_id"].(string)

	code, body = doJSON(t, h, http.MethodPost, "/api/v1/dictation", token, map[string]any{"transcript": "with a roar"})
	require.Equal(t, http.StatusOK, code)
	story, _ := body["story"].(map[string]any)
	require.NotNil(t, story)
	assert.EqualValues(t, 5, story["word_count"])

	code, _ = doJSON(t, h, http.MethodPost, "/api/v1/delete-page", token, map[string]any{"page_id": pageID})
	require.Equal(t, http.StatusOK, code)

	// With no page open there is nowhere to append the transcript.
	code, _ = doJSON(t, h, http.MethodPost, "/api/v1/dictation", token, map[string]any{"transcript": "lost words"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSettingsRoundTrip(t *testing.T) {
	h := newTestHandler(t)
	token := newSession(t, h)

	code, body := doJSON(t, h, http.MethodGet, "/api/v1/settings", "", nil)
	require.Equal(t, http.StatusOK, code)
	settings, _ := body["settings"].(map[string]any)
	require.NotNil(t, settings)
	assert.EqualValues(t, 1, settings["speech_rate"])

	code, _ = doJSON(t, h, http.MethodPut, "/api/v1/settings", token, map[string]any{
		"speech_rate": 1.5, "speech_pitch": 1, "speech_volume": 0.8, "theme": "space", "sound_effects": true,
	})
	require.Equal(t, http.StatusOK, code)

	code, body = doJSON(t, h, http.MethodGet, "/api/v1/settings", "", nil)
	require.Equal(t, http.StatusOK, code)
	settings, _ = body["settings"].(map[string]any)
	assert.EqualValues(t, 1.5, settings["speech_rate"])
	assert.Equal(t, "space", settings["theme"])

	code, _ = doJSON(t, h, http.MethodPut, "/api/v1/settings", token, map[string]any{
		"speech_rate": 9, "speech_pitch": 1, "speech_volume": 0.8,
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestImportEndpointRejectsGarbage(t *testing.T) {
	h := newTestHandler(t)
	token := newSession(t, h)

	code, _ := doRaw(t, h, http.MethodPost, "/api/v1/import", token, []byte("definitely not a backup"))
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := doJSON(t, h, http.MethodGet, "/api/v1/get-stories", "", nil)
	require.Equal(t, http.StatusOK, code)
	stories, _ := body["stories"].([]any)
	assert.Len(t, stories, 0)
}

func TestExportImportEndpoints(t *testing.T) {
	h := newTestHandler(t)
	token := newSession(t, h)

	code, _ := doJSON(t, h, http.MethodPost, "/api/v1/create-story", token, map[string]any{"title": "Round Trip"})
	require.Equal(t, http.StatusCreated, code)
	code, _ = doJSON(t, h, http.MethodPost, "/api/v1/add-page", token, map[string]any{"text": "exported words"})
	require.Equal(t, http.StatusCreated, code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	code, body := doRaw(t, h, http.MethodPost, "/api/v1/import", token, rec.Body.Bytes())
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])

	code, body = doJSON(t, h, http.MethodGet, "/api/v1/get-stories", "", nil)
	require.Equal(t, http.StatusOK, code)
	stories, _ := body["stories"].([]any)
	assert.Len(t, stories, 2)
}

func TestShareStoryEndpoint(t *testing.T) {
	h := newTestHandler(t)
	token := newSession(t, h)

	code, body := doJSON(t, h, http.MethodPost, "/api/v1/create-story", token, map[string]any{"title": "Clipboard"})
	require.Equal(t, http.StatusCreated, code)
	story, _ := body["story"].(map[string]any)
	storyID, _ := story["id"].(string)

	code, body = doJSON(t, h, http.MethodPost, "/api/v1/share-story", "", map[string]any{"id": storyID})
	require.Equal(t, http.StatusOK, code)
	share, _ := body["share"].(string)
	require.NotEmpty(t, share)

	code, body = doRaw(t, h, http.MethodPost, "/api/v1/import-story", token, []byte(share))
	require.Equal(t, http.StatusCreated, code)
	imported, _ := body["story"].(map[string]any)
	require.NotNil(t, imported)
	assert.Equal(t, storyID, imported["id"])
}
