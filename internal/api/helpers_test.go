package api

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/framemarkapp/framemark-server/internal/auth"
	"github.com/framemarkapp/framemark-server/internal/config"
	"github.com/framemarkapp/framemark-server/internal/engine"
	"github.com/framemarkapp/framemark-server/internal/search"
	"github.com/framemarkapp/framemark-server/internal/service"
	"github.com/framemarkapp/framemark-server/internal/sse"
	"github.com/framemarkapp/framemark-server/internal/store"
)

// unmarshalBody decodes a recorded response body.
func unmarshalBody(b []byte, v any) error {
	return json.Unmarshal(b, v)
}

// testEnvelope mirrors the wire envelope for decoding responses in tests.
// Error fields from both envelope forms are flattened into one struct.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// stubSummarizer is a canned summarization collaborator for handler tests.
type stubSummarizer struct {
	result string
	err    error
}

func (s *stubSummarizer) Enabled() bool { return true }

func (s *stubSummarizer) Summarize(_ context.Context, _ string, _ int, _ string) (string, error) {
	return s.result, s.err
}

// testServer wraps the API server for handler testing.
type testServer struct {
	*Server
	api          humatest.TestAPI
	registry     *engine.Registry
	store        *store.Store
	sseManager   *sse.Manager
	tokenService *auth.TokenService
	summarizer   *stubSummarizer
}

// setupTestServer creates a fully wired server over in-memory dependencies.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokenService, err := auth.NewTokenService(strings.Repeat("cd", 32), 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	st := store.New()

	registry := engine.NewRegistry(engine.RegistryOptions{Logger: logger})
	t.Cleanup(registry.Shutdown)

	markerIndex, err := search.NewMarkerIndex(logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = markerIndex.Close()
	})

	sseManager := sse.NewManager(logger)

	summarizer := &stubSummarizer{result: "A concise review summary."}

	sessionService := service.NewSessionService(registry, sseManager, markerIndex, logger)
	exportService := service.NewExportService(registry, logger)

	services := &Services{
		Auth:    service.NewAuthService(st, tokenService, logger),
		Session: sessionService,
		Export:  exportService,
		Summary: service.NewSummaryService(summarizer, exportService, logger),
	}

	cfg := &config.Config{
		Server: config.ServerConfig{
			Name: "Test Server",
			Port: "0",
		},
		Auth: config.AuthConfig{
			AccessTokenDuration:  15 * time.Minute,
			RefreshTokenDuration: 30 * 24 * time.Hour,
		},
	}

	s := NewServer(cfg, services, sseManager, logger)
	t.Cleanup(func() {
		_ = s.Shutdown(context.Background())
	})

	return &testServer{
		Server:       s,
		api:          humatest.Wrap(t, s.api),
		registry:     registry,
		store:        st,
		sseManager:   sseManager,
		tokenService: tokenService,
		summarizer:   summarizer,
	}
}

// setupOperator runs first-run setup and returns a bearer token.
func (ts *testServer) setupOperator(t *testing.T) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/setup", map[string]any{
		"email":        "editor@example.com",
		"password":     "correct horse battery",
		"display_name": "Editor",
	})
	require.Equal(t, http.StatusOK, resp.Code, "setup failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.AccessToken)

	return envelope.Data.AccessToken
}

// createSession creates a session over the API and returns its ID.
func (ts *testServer) createSession(t *testing.T, token, name string, fps int) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/sessions",
		map[string]any{"name": name, "fps": fps},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, "create session failed: %s", resp.Body.String())

	var envelope testEnvelope[service.SessionView]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.ID)

	return envelope.Data.ID
}

// captureMarker pins a marker at an explicit frame over the API.
func (ts *testServer) captureMarker(t *testing.T, token, sessionID string, frame int64, comment string) service.MarkerView {
	t.Helper()

	resp := ts.api.Post(fmt.Sprintf("/api/v1/sessions/%s/markers", sessionID),
		map[string]any{"comment": comment, "frame_index": frame},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, "capture marker failed: %s", resp.Body.String())

	var envelope testEnvelope[service.MarkerView]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &envelope))

	return envelope.Data
}
