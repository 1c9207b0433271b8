package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framemarkapp/framemark-server/internal/search"
	"github.com/framemarkapp/framemark-server/internal/service"
)

func TestCreateSession_Defaults(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupOperator(t)

	resp := ts.api.Post("/api/v1/sessions",
		map[string]any{"name": "Episode 4 review"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[service.SessionView]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, 24, envelope.Data.FPS)
	assert.Equal(t, "00:00:00:00", envelope.Data.Timecode)
	assert.False(t, envelope.Data.Running)
}

func TestCreateSession_ValidationError(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupOperator(t)

	resp := ts.api.Post("/api/v1/sessions",
		map[string]any{"name": "too fast", "fps": 500},
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	var envelope testEnvelope[struct{}]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "VALIDATION", envelope.Code)
}

func TestGetSession_NotFound(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupOperator(t)

	resp := ts.api.Get("/api/v1/sessions/ses-missing", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	var envelope testEnvelope[struct{}]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "NOT_FOUND", envelope.Code)
}

func TestListSessions_ReturnsCreated(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupOperator(t)

	first := ts.createSession(t, token, "first", 24)
	second := ts.createSession(t, token, "second", 30)

	resp := ts.api.Get("/api/v1/sessions", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ListSessionsResponse]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Sessions, 2)
	assert.Equal(t, first, envelope.Data.Sessions[0].ID)
	assert.Equal(t, second, envelope.Data.Sessions[1].ID)
}

func TestDeleteSession_RemovesIt(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupOperator(t)

	id := ts.createSession(t, token, "doomed", 24)

	resp := ts.api.Delete("/api/v1/sessions/"+id, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/sessions/"+id, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestTransport_SeekAndPosition(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupOperator(t)

	id := ts.createSession(t, token, "seek", 24)

	resp := ts.api.Post(fmt.Sprintf("/api/v1/sessions/%s/seek", id),
		map[string]any{"delta_seconds": 5},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[service.TransportView]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &envelope))
	assert.Equal(t, int64(120), envelope.Data.FrameIndex)
	assert.Equal(t, "00:00:05:00", envelope.Data.Timecode)

	// Seeking past zero clamps.
	resp = ts.api.Post(fmt.Sprintf("/api/v1/sessions/%s/seek", id),
		map[string]any{"delta_seconds": -60},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &envelope))
	assert.Equal(t, int64(0), envelope.Data.FrameIndex)

	posResp := ts.api.Get(fmt.Sprintf("/api/v1/sessions/%s/position", id), "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, posResp.Code)
	require.NoError(t, unmarshalBody(posResp.Body.Bytes(), &envelope))
	assert.Equal(t, "00:00:00:00", envelope.Data.Timecode)
	assert.False(t, envelope.Data.Running)
}

func TestTransport_PlayStopReset(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupOperator(t)

	id := ts.createSession(t, token, "transport", 24)

	resp := ts.api.Post(fmt.Sprintf("/api/v1/sessions/%s/play", id), "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[service.TransportView]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Running)

	resp = ts.api.Post(fmt.Sprintf("/api/v1/sessions/%s/stop", id), "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Running)

	// Reset rewinds without touching markers unless asked.
	ts.captureMarker(t, token, id, 48, "keep me")

	resp = ts.api.Post(fmt.Sprintf("/api/v1/sessions/%s/reset", id),
		map[string]any{"start_frame": 0},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &envelope))
	assert.Equal(t, int64(0), envelope.Data.FrameIndex)

	list := ts.api.Get(fmt.Sprintf("/api/v1/sessions/%s/markers", id), "Authorization: Bearer "+token)
	var listEnvelope testEnvelope[ListMarkersResponse]
	require.NoError(t, unmarshalBody(list.Body.Bytes(), &listEnvelope))
	assert.Len(t, listEnvelope.Data.Markers, 1)

	resp = ts.api.Post(fmt.Sprintf("/api/v1/sessions/%s/reset", id),
		map[string]any{"start_frame": 0, "clear_markers": true},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	list = ts.api.Get(fmt.Sprintf("/api/v1/sessions/%s/markers", id), "Authorization: Bearer "+token)
	require.NoError(t, unmarshalBody(list.Body.Bytes(), &listEnvelope))
	assert.Empty(t, listEnvelope.Data.Markers)
}

func TestChangeFramerate_PreservesElapsedSeconds(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupOperator(t)

	id := ts.createSession(t, token, "rate", 24)
	m := ts.captureMarker(t, token, id, 120, "pinned")

	seek := ts.api.Post(fmt.Sprintf("/api/v1/sessions/%s/seek", id),
		map[string]any{"delta_seconds": 5},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, seek.Code)

	resp := ts.api.Post(fmt.Sprintf("/api/v1/sessions/%s/framerate", id),
		map[string]any{"fps": 30},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[service.TransportView]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &envelope))
	assert.Equal(t, 30, envelope.Data.FPS)
	assert.Equal(t, int64(150), envelope.Data.FrameIndex)

	// Marker frames are untouched; the rendered timecode follows the new rate.
	list := ts.api.Get(fmt.Sprintf("/api/v1/sessions/%s/markers", id), "Authorization: Bearer "+token)
	var listEnvelope testEnvelope[ListMarkersResponse]
	require.NoError(t, unmarshalBody(list.Body.Bytes(), &listEnvelope))
	require.Len(t, listEnvelope.Data.Markers, 1)
	assert.Equal(t, m.FrameIndex, listEnvelope.Data.Markers[0].FrameIndex)
	assert.Equal(t, "00:00:04:00", listEnvelope.Data.Markers[0].Timecode)
}

func TestMarkers_IDsSurviveClear(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupOperator(t)

	id := ts.createSession(t, token, "markers", 24)

	first := ts.captureMarker(t, token, id, 0, "start")
	second := ts.captureMarker(t, token, id, 120, "intro")
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)

	clear := ts.api.Delete(fmt.Sprintf("/api/v1/sessions/%s/markers", id), "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, clear.Code)

	var clearEnvelope testEnvelope[service.ClearMarkersResult]
	require.NoError(t, unmarshalBody(clear.Body.Bytes(), &clearEnvelope))
	assert.Equal(t, 2, clearEnvelope.Data.Removed)

	third := ts.captureMarker(t, token, id, 48, "after clear")
	assert.Equal(t, int64(3), third.ID)
}

func TestMarkers_EditAndSortModes(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupOperator(t)

	id := ts.createSession(t, token, "sorting", 24)

	late := ts.captureMarker(t, token, id, 240, "late")
	ts.captureMarker(t, token, id, 24, "early")

	edit := ts.api.Patch(fmt.Sprintf("/api/v1/sessions/%s/markers/%d", id, late.ID),
		map[string]any{"comment": "late titles"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, edit.Code, edit.Body.String())

	var editEnvelope testEnvelope[service.MarkerView]
	require.NoError(t, unmarshalBody(edit.Body.Bytes(), &editEnvelope))
	assert.Equal(t, "late titles", editEnvelope.Data.Comment)

	missing := ts.api.Patch(fmt.Sprintf("/api/v1/sessions/%s/markers/99", id),
		map[string]any{"comment": "nope"},
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, missing.Code)

	byTimecode := ts.api.Get(fmt.Sprintf("/api/v1/sessions/%s/markers?sort=timecode", id), "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, byTimecode.Code)

	var listEnvelope testEnvelope[ListMarkersResponse]
	require.NoError(t, unmarshalBody(byTimecode.Body.Bytes(), &listEnvelope))
	require.Len(t, listEnvelope.Data.Markers, 2)
	assert.Equal(t, "early", listEnvelope.Data.Markers[0].Comment)

	badSort := ts.api.Get(fmt.Sprintf("/api/v1/sessions/%s/markers?sort=alphabetical", id), "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, badSort.Code)
}

func TestSearchMarkers_ScopedToSession(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupOperator(t)

	id := ts.createSession(t, token, "searchable", 24)
	other := ts.createSession(t, token, "other", 24)

	ts.captureMarker(t, token, id, 48, "audio dropout")
	ts.captureMarker(t, token, other, 96, "audio hum")

	resp := ts.api.Get("/api/v1/markers/search?q=audio&session_id="+id, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[search.SearchResult]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Hits, 1)
	assert.Equal(t, "audio dropout", envelope.Data.Hits[0].Comment)

	all := ts.api.Get("/api/v1/markers/search?q=audio", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, all.Code)
	require.NoError(t, unmarshalBody(all.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data.Hits, 2)

	missing := ts.api.Get("/api/v1/markers/search?q=audio&session_id=ses-missing", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}
