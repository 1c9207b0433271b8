package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framemarkapp/framemark-server/internal/engine"
	"github.com/framemarkapp/framemark-server/internal/errors"
)

type fakeSummarizer struct {
	calls   int
	gotName string
	gotFPS  int
	gotText string
	result  string
	err     error
}

func (f *fakeSummarizer) Enabled() bool { return true }

func (f *fakeSummarizer) Summarize(ctx context.Context, sessionName string, fps int, markerText string) (string, error) {
	f.calls++
	f.gotName = sessionName
	f.gotFPS = fps
	f.gotText = markerText
	return f.result, f.err
}

func newTestSummaryService(t *testing.T, client *fakeSummarizer) (*SummaryService, *engine.Registry) {
	t.Helper()

	registry := engine.NewRegistry(engine.RegistryOptions{Logger: discardLogger()})
	t.Cleanup(registry.Shutdown)

	exports := NewExportService(registry, discardLogger())
	return NewSummaryService(client, exports, discardLogger()), registry
}

func TestSummaryService_Summarize(t *testing.T) {
	client := &fakeSummarizer{result: "Two notes about the opening."}
	svc, registry := newTestSummaryService(t, client)
	ctx := context.Background()

	eng := registry.Create("Episode 4", 24)
	eng.CaptureMarkerAt(0, "start")
	eng.CaptureMarkerAt(120, "intro")

	view, err := svc.Summarize(ctx, eng.ID())
	require.NoError(t, err)

	assert.Equal(t, "Two notes about the opening.", view.Summary)
	assert.True(t, view.Generated)
	assert.Equal(t, 2, view.MarkerCount)

	assert.Equal(t, 1, client.calls)
	assert.Equal(t, "Episode 4", client.gotName)
	assert.Equal(t, 24, client.gotFPS)
	assert.Equal(t, "[00:00:00:00] start\n[00:00:05:00] intro", client.gotText)
}

func TestSummaryService_FailureTextSubstituted(t *testing.T) {
	client := &fakeSummarizer{err: fmt.Errorf("summary endpoint returned status 503")}
	svc, registry := newTestSummaryService(t, client)
	ctx := context.Background()

	eng := registry.Create("flaky", 24)
	eng.CaptureMarkerAt(0, "note")

	// A collaborator failure is not an API error; its text stands in for
	// the summary and there is no retry.
	view, err := svc.Summarize(ctx, eng.ID())
	require.NoError(t, err)
	assert.Equal(t, "summary endpoint returned status 503", view.Summary)
	assert.False(t, view.Generated)
	assert.Equal(t, 1, client.calls)
}

func TestSummaryService_EmptyLedgerGuard(t *testing.T) {
	client := &fakeSummarizer{result: "should never be called"}
	svc, registry := newTestSummaryService(t, client)
	ctx := context.Background()

	eng := registry.Create("empty", 24)

	_, err := svc.Summarize(ctx, eng.ID())
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Zero(t, client.calls, "guard fires before any network work")
}

func TestSummaryService_SessionNotFound(t *testing.T) {
	svc, _ := newTestSummaryService(t, &fakeSummarizer{})

	_, err := svc.Summarize(context.Background(), "ses-missing")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
