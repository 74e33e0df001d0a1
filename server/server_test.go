package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jsphweid/midistates/logging"
	"github.com/jsphweid/midistates/miditest"
	"github.com/jsphweid/midistates/model"
	"github.com/jsphweid/midistates/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(maxUpload int64) http.Handler {
	return New(reference.Default(), logging.Discard(), maxUpload).Handler()
}

func recording(states ...model.StateID) []byte {
	b := miditest.New(480).Tempo(500000)
	for i, id := range states {
		s, _ := reference.Default().State(id)
		from := uint32(i * 480)
		b.Hold(from, from+480, s.Notes...)
	}
	return b.Bytes()
}

func TestAnalyze(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/analyze?subject=P07&block=pre", bytes.NewReader(recording(9, 1, 3)))
	w := httptest.NewRecorder()
	newTestServer(1<<20).ServeHTTP(w, req)

	resp := w.Result()
	assert := assert.New(t)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(resp.Header.Get(RequestIDHeader))

	var body AnalyzeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal("P07", body.Subject)
	assert.Equal("Pretest", body.Block)
	require.Len(t, body.Rows, 2)
	assert.Equal(91, body.Rows[0].TransitionID)
	assert.Equal("h", body.Rows[0].StateFromFreq)
	assert.Equal(13, body.Rows[1].TransitionID)
	assert.InDelta(0.5, body.Rows[1].TransitionTimeS, 1e-9)
}

func TestAnalyzeNoTransitions(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/analyze?block=B1", bytes.NewReader(recording(1)))
	w := httptest.NewRecorder()
	newTestServer(1<<20).ServeHTTP(w, req)

	assert := assert.New(t)
	assert.Equal(http.StatusOK, w.Code)
	assert.Contains(w.Body.String(), `"rows":[]`)
}

func TestAnalyzeRejectsGarbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader([]byte("hello")))
	w := httptest.NewRecorder()
	newTestServer(1<<20).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestAnalyzeRejectsLargeUpload(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(recording(9, 1, 3)))
	w := httptest.NewRecorder()
	newTestServer(16).ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestAnalyzeMethod(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/analyze", nil)
	w := httptest.NewRecorder()
	newTestServer(1<<20).ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestReference(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/reference", nil)
	w := httptest.NewRecorder()
	newTestServer(1<<20).ServeHTTP(w, req)

	assert := assert.New(t)
	require.Equal(t, http.StatusOK, w.Code)

	var body ReferenceResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Len(body.States, 9)
	assert.Len(body.Sequences[model.BlockTest], 55)
	assert.Equal(91, body.Sequences[model.BlockTest][0])
	assert.Equal("s", body.Frequencies[13])
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w := httptest.NewRecorder()
	newTestServer(1<<20).ServeHTTP(w, req)

	assert := assert.New(t)
	assert.Equal(http.StatusOK, w.Code)
	assert.Equal("abc", w.Header().Get(RequestIDHeader))
	assert.JSONEq(`{"status":"ok"}`, w.Body.String())
}
