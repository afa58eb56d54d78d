package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrosense/agrosense/pkg/adapter"
	"github.com/agrosense/agrosense/pkg/advisor"
	"github.com/agrosense/agrosense/pkg/catalog"
)

const testCSV = `crop,ideal_n,ideal_p,ideal_k,ideal_temp,ideal_humidity,ideal_ph,ideal_rainfall
rice,80,40,40,28,75,6.5,200
maize,78,48,20,22,65,6.2,85
`

const fullExtraction = `{"n": 80, "p": 40, "k": 40, "temperature": 28, "humidity": 75, "ph": 6.5, "rainfall": 200}`
const nitrogenOnly = `{"n": 90, "p": null, "k": null, "temperature": null, "humidity": null, "ph": null, "rainfall": null}`

func newTestServer(t *testing.T, transcriptDir string) *Server {
	t.Helper()

	cat, err := catalog.Parse(strings.NewReader(testCSV))
	require.NoError(t, err)

	nlu := adapter.NewMockAdapter().
		RespondWhen("sab kuch bata raha hun", fullExtraction).
		RespondWhen("nitrogen zyada", nitrogenOnly).
		SetDefault(`{"n": null, "p": null, "k": null, "temperature": null, "humidity": null, "ph": null, "rainfall": null}`)
	nlg := adapter.NewMockAdapter().
		RespondWhen("We still need these details", "Baaki values batayein.").
		RespondWhen("Top crop candidates", "Rice is the best fit.")

	adv, err := advisor.New(advisor.Options{
		NLU:     nlu,
		NLG:     nlg,
		Catalog: cat,
	})
	require.NoError(t, err)

	return New(Options{
		Advisor:       adv,
		SessionTTL:    time.Minute,
		TranscriptDir: transcriptDir,
	})
}

func createSession(t *testing.T, handler http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp createSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func postTurn(t *testing.T, handler http.Handler, sessionID, query string) (*httptest.ResponseRecorder, advisor.ConversationState) {
	t.Helper()
	body, err := json.Marshal(turnRequest{Query: query})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	url := fmt.Sprintf("/api/sessions/%s/turns", sessionID)
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, url, bytes.NewReader(body)))

	var state advisor.ConversationState
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	}
	return rec, state
}

func TestHealthz(t *testing.T) {
	handler := newTestServer(t, "").Handler()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTurnFlow(t *testing.T) {
	handler := newTestServer(t, "").Handler()
	sessionID := createSession(t, handler)

	rec, state := postTurn(t, handler, sessionID, "nitrogen zyada hai mere khet me")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, state.NeedsMoreInfo)
	assert.Equal(t, "Baaki values batayein.", state.Answer)

	rec, state = postTurn(t, handler, sessionID, "ab sab kuch bata raha hun")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, state.NeedsMoreInfo)
	assert.Equal(t, "Rice is the best fit.", state.Answer)
	require.NotEmpty(t, state.CandidateResults)
	assert.Equal(t, "rice", state.CandidateResults[0].Name)
}

func TestSessionsAreIsolated(t *testing.T) {
	handler := newTestServer(t, "").Handler()
	first := createSession(t, handler)
	second := createSession(t, handler)

	_, state := postTurn(t, handler, first, "nitrogen zyada hai yahan")
	require.NotNil(t, state.Parameters.N)

	// The second session must not see the first session's nitrogen value.
	_, state = postTurn(t, handler, second, "namaste")
	assert.Nil(t, state.Parameters.N)
	assert.Len(t, state.MissingFields, 6)
}

func TestUnknownSession(t *testing.T) {
	handler := newTestServer(t, "").Handler()
	rec, _ := postTurn(t, handler, "does-not-exist", "hello")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmptyQueryRejected(t *testing.T) {
	handler := newTestServer(t, "").Handler()
	sessionID := createSession(t, handler)

	rec, _ := postTurn(t, handler, sessionID, "   ")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := httptest.NewRecorder()
	handler.ServeHTTP(body, httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/sessions/%s/turns", sessionID), strings.NewReader("not json")))
	assert.Equal(t, http.StatusBadRequest, body.Code)
}

func TestTurnsAreRecorded(t *testing.T) {
	dir := t.TempDir()
	handler := newTestServer(t, dir).Handler()
	sessionID := createSession(t, handler)

	rec, _ := postTurn(t, handler, sessionID, "nitrogen zyada hai")
	require.Equal(t, http.StatusOK, rec.Code)

	entries, err := os.ReadDir(filepath.Join(dir, sessionID))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "turn-001.json", entries[0].Name())
}
