package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framemarkapp/framemark-server/internal/engine"
	"github.com/framemarkapp/framemark-server/internal/errors"
	"github.com/framemarkapp/framemark-server/internal/search"
	"github.com/framemarkapp/framemark-server/internal/sse"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSessionService(t *testing.T) *SessionService {
	t.Helper()

	logger := discardLogger()
	registry := engine.NewRegistry(engine.RegistryOptions{Logger: logger})
	t.Cleanup(registry.Shutdown)

	markerIndex, err := search.NewMarkerIndex(logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = markerIndex.Close()
	})

	return NewSessionService(registry, sse.NewManager(logger), markerIndex, logger)
}

func frameRef(v int64) *int64 { return &v }

func TestSessionService_CreateSession(t *testing.T) {
	svc := newTestSessionService(t)
	ctx := context.Background()

	view, err := svc.CreateSession(ctx, CreateSessionRequest{Name: "Episode 4 review", FPS: 30})
	require.NoError(t, err)
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "Episode 4 review", view.Name)
	assert.Equal(t, 30, view.FPS)
	assert.Equal(t, "00:00:00:00", view.Timecode)
	assert.False(t, view.Running)
	assert.Zero(t, view.MarkerCount)

	got, err := svc.GetSession(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.ID, got.ID)
}

func TestSessionService_CreateSessionDefaults(t *testing.T) {
	svc := newTestSessionService(t)

	view, err := svc.CreateSession(context.Background(), CreateSessionRequest{Name: "defaults"})
	require.NoError(t, err)
	assert.Equal(t, 24, view.FPS)
}

func TestSessionService_CreateSessionValidation(t *testing.T) {
	svc := newTestSessionService(t)

	_, err := svc.CreateSession(context.Background(), CreateSessionRequest{Name: ""})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = svc.CreateSession(context.Background(), CreateSessionRequest{Name: "bad fps", FPS: 500})
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestSessionService_SessionNotFound(t *testing.T) {
	svc := newTestSessionService(t)
	ctx := context.Background()

	_, err := svc.GetSession(ctx, "ses-missing")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = svc.Play(ctx, "ses-missing")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = svc.CaptureMarker(ctx, "ses-missing", CaptureMarkerRequest{})
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	err = svc.DeleteSession(ctx, "ses-missing")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestSessionService_MarkerLifecycle(t *testing.T) {
	svc := newTestSessionService(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, CreateSessionRequest{Name: "markers", FPS: 24})
	require.NoError(t, err)

	first, err := svc.CaptureMarker(ctx, sess.ID, CaptureMarkerRequest{
		Comment:    "start",
		FrameIndex: frameRef(0),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "00:00:00:00", first.Timecode)

	second, err := svc.CaptureMarker(ctx, sess.ID, CaptureMarkerRequest{
		Comment:    "intro",
		FrameIndex: frameRef(120),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, "00:00:05:00", second.Timecode)

	edited, err := svc.EditMarkerComment(ctx, sess.ID, second.ID, EditMarkerRequest{Comment: "intro titles"})
	require.NoError(t, err)
	assert.Equal(t, "intro titles", edited.Comment)

	_, err = svc.EditMarkerComment(ctx, sess.ID, 99, EditMarkerRequest{Comment: "nope"})
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	list, err := svc.ListMarkers(ctx, sess.ID, "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].ID)

	cleared, err := svc.ClearMarkers(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, cleared.Removed)

	// Ids are never reused, even across a clear.
	third, err := svc.CaptureMarker(ctx, sess.ID, CaptureMarkerRequest{
		Comment:    "after clear",
		FrameIndex: frameRef(48),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), third.ID)
}

func TestSessionService_ListMarkersSortModes(t *testing.T) {
	svc := newTestSessionService(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, CreateSessionRequest{Name: "sorting", FPS: 24})
	require.NoError(t, err)

	// Captured out of timecode order.
	_, err = svc.CaptureMarker(ctx, sess.ID, CaptureMarkerRequest{Comment: "late", FrameIndex: frameRef(240)})
	require.NoError(t, err)
	_, err = svc.CaptureMarker(ctx, sess.ID, CaptureMarkerRequest{Comment: "early", FrameIndex: frameRef(24)})
	require.NoError(t, err)

	byCreation, err := svc.ListMarkers(ctx, sess.ID, "created")
	require.NoError(t, err)
	assert.Equal(t, "late", byCreation[0].Comment)

	byTimecode, err := svc.ListMarkers(ctx, sess.ID, "timecode")
	require.NoError(t, err)
	assert.Equal(t, "early", byTimecode[0].Comment)

	_, err = svc.ListMarkers(ctx, sess.ID, "alphabetical")
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestSessionService_ResetKeepsMarkersByDefault(t *testing.T) {
	svc := newTestSessionService(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, CreateSessionRequest{Name: "reset", FPS: 24})
	require.NoError(t, err)

	_, err = svc.CaptureMarker(ctx, sess.ID, CaptureMarkerRequest{Comment: "keep me", FrameIndex: frameRef(48)})
	require.NoError(t, err)

	view, err := svc.Reset(ctx, sess.ID, ResetRequest{StartFrame: 0})
	require.NoError(t, err)
	assert.Equal(t, int64(0), view.FrameIndex)
	assert.False(t, view.Running)

	list, err := svc.ListMarkers(ctx, sess.ID, "")
	require.NoError(t, err)
	assert.Len(t, list, 1, "reset leaves the ledger alone")

	// Explicit clear flag empties the ledger in the same call.
	_, err = svc.Reset(ctx, sess.ID, ResetRequest{StartFrame: 0, ClearMarkers: true})
	require.NoError(t, err)

	list, err = svc.ListMarkers(ctx, sess.ID, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSessionService_SeekClampsAtZero(t *testing.T) {
	svc := newTestSessionService(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, CreateSessionRequest{Name: "seek", FPS: 24})
	require.NoError(t, err)

	view, err := svc.Seek(ctx, sess.ID, SeekRequest{DeltaSeconds: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(120), view.FrameIndex)
	assert.Equal(t, "00:00:05:00", view.Timecode)

	view, err = svc.Seek(ctx, sess.ID, SeekRequest{DeltaSeconds: -10})
	require.NoError(t, err)
	assert.Equal(t, int64(0), view.FrameIndex, "seek clamps at zero")
}

func TestSessionService_ChangeFramerate(t *testing.T) {
	svc := newTestSessionService(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, CreateSessionRequest{Name: "rate", FPS: 24})
	require.NoError(t, err)

	m, err := svc.CaptureMarker(ctx, sess.ID, CaptureMarkerRequest{Comment: "pinned", FrameIndex: frameRef(120)})
	require.NoError(t, err)

	_, err = svc.Seek(ctx, sess.ID, SeekRequest{DeltaSeconds: 5})
	require.NoError(t, err)

	view, err := svc.ChangeFramerate(ctx, sess.ID, ChangeFramerateRequest{FPS: 30})
	require.NoError(t, err)
	assert.Equal(t, 30, view.FPS)
	assert.Equal(t, int64(150), view.FrameIndex, "playhead keeps its elapsed seconds")

	// Marker frame indexes are never renormalized; only the rendered
	// timecode changes with the new rate.
	list, err := svc.ListMarkers(ctx, sess.ID, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, m.FrameIndex, list[0].FrameIndex)
	assert.Equal(t, "00:00:04:00", list[0].Timecode)
}

func TestSessionService_SearchMarkers(t *testing.T) {
	svc := newTestSessionService(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, CreateSessionRequest{Name: "searchable", FPS: 24})
	require.NoError(t, err)

	_, err = svc.CaptureMarker(ctx, sess.ID, CaptureMarkerRequest{Comment: "audio dropout", FrameIndex: frameRef(48)})
	require.NoError(t, err)
	_, err = svc.CaptureMarker(ctx, sess.ID, CaptureMarkerRequest{Comment: "color too warm", FrameIndex: frameRef(96)})
	require.NoError(t, err)

	res, err := svc.SearchMarkers(ctx, search.SearchParams{Query: "audio", SessionID: sess.ID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "audio dropout", res.Hits[0].Comment)

	// Cleared markers fall out of the index too.
	_, err = svc.ClearMarkers(ctx, sess.ID)
	require.NoError(t, err)

	res, err = svc.SearchMarkers(ctx, search.SearchParams{Query: "audio", SessionID: sess.ID, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)

	_, err = svc.SearchMarkers(ctx, search.SearchParams{Query: "audio", SessionID: "ses-missing"})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestSessionService_DeleteSessionRemovesIndex(t *testing.T) {
	svc := newTestSessionService(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, CreateSessionRequest{Name: "doomed", FPS: 24})
	require.NoError(t, err)

	_, err = svc.CaptureMarker(ctx, sess.ID, CaptureMarkerRequest{Comment: "gone soon", FrameIndex: frameRef(10)})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSession(ctx, sess.ID))

	_, err = svc.GetSession(ctx, sess.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	res, err := svc.SearchMarkers(ctx, search.SearchParams{Query: "gone"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}
