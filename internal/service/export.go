package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/framemarkapp/framemark-server/internal/engine"
	"github.com/framemarkapp/framemark-server/internal/errors"
	"github.com/framemarkapp/framemark-server/internal/export"
	"github.com/framemarkapp/framemark-server/internal/marker"
	"github.com/framemarkapp/framemark-server/internal/util"
)

// ExportService renders a session's ledger as downloadable artifacts.
// A session with no markers cannot be exported; the guard lives here so
// no formatting or filename work happens for an empty ledger.
type ExportService struct {
	registry *engine.Registry
	logger   *slog.Logger
}

// NewExportService creates a new export service.
func NewExportService(registry *engine.Registry, logger *slog.Logger) *ExportService {
	return &ExportService{
		registry: registry,
		logger:   logger,
	}
}

// TextExport is a rendered plain-text marker list.
type TextExport struct {
	FileName    string `json:"file_name"`
	Content     string `json:"content"`
	MarkerCount int    `json:"marker_count"`
}

// DocumentExport is a rendered printable HTML document.
type DocumentExport struct {
	FileName    string `json:"file_name"`
	HTML        string `json:"html"`
	MarkerCount int    `json:"marker_count"`
}

// SummaryInput is the marker text handed to the summarization collaborator.
type SummaryInput struct {
	SessionID   string `json:"session_id"`
	SessionName string `json:"session_name"`
	FPS         int    `json:"fps"`
	Text        string `json:"text"`
	MarkerCount int    `json:"marker_count"`
}

// resolveSort normalizes the sort parameter, defaulting to capture order.
func resolveSort(sort string) (marker.SortMode, error) {
	if sort == "" {
		return marker.SortCreated, nil
	}
	mode := marker.SortMode(sort)
	if !mode.Valid() {
		return "", errors.Validationf("unknown sort mode %q", sort)
	}
	return mode, nil
}

// sortLabel is the filename suffix for a sort mode. Capture order is the
// default and gets no suffix.
func sortLabel(mode marker.SortMode) string {
	if mode == marker.SortTimecode {
		return string(marker.SortTimecode)
	}
	return ""
}

// sessionMarkers loads a session's ledger and applies the empty guard.
func (s *ExportService) sessionMarkers(sessionID, sort string) (*engine.Engine, []marker.Marker, marker.SortMode, error) {
	mode, err := resolveSort(sort)
	if err != nil {
		return nil, nil, "", err
	}

	eng, ok := s.registry.Get(sessionID)
	if !ok {
		return nil, nil, "", errors.NotFoundf("session %s not found", sessionID)
	}

	markers := eng.Markers(mode)
	if len(markers) == 0 {
		return nil, nil, "", errors.Validation("session has no markers to export")
	}

	return eng, markers, mode, nil
}

// ExportText renders the ledger as "#NN [HH:MM:SS:FF] comment" lines.
// An empty filename falls back to the default derived from the session's
// frame rate and sort order.
func (s *ExportService) ExportText(ctx context.Context, sessionID, sort, fileName string) (*TextExport, error) {
	eng, markers, mode, err := s.sessionMarkers(sessionID, sort)
	if err != nil {
		return nil, err
	}

	fps := eng.Snapshot().FPS
	if fileName == "" {
		fileName = export.DefaultFileName(fps, sortLabel(mode))
	} else {
		fileName = util.Slug(fileName)
		if fileName == "" {
			return nil, errors.Validation("file name is empty after normalization")
		}
	}

	s.logger.Info("markers exported",
		"session_id", sessionID,
		"format", "text",
		"markers", len(markers),
	)

	return &TextExport{
		FileName:    fileName + ".txt",
		Content:     export.BuildPlainText(markers, fps),
		MarkerCount: len(markers),
	}, nil
}

// ExportDocument renders the ledger as a printable HTML document with
// markup-escaped cells.
func (s *ExportService) ExportDocument(ctx context.Context, sessionID, sort string) (*DocumentExport, error) {
	eng, markers, mode, err := s.sessionMarkers(sessionID, sort)
	if err != nil {
		return nil, err
	}

	fps := eng.Snapshot().FPS
	rows := export.BuildTableRows(markers, fps)

	label := sortLabel(mode)
	if label == "" {
		label = string(marker.SortCreated)
	}

	html := export.BuildDocument(rows, export.DocumentMeta{
		SessionName: eng.Name(),
		FPS:         fps,
		SortLabel:   label,
		MarkerCount: len(markers),
		ExportedAt:  time.Now(),
	})

	s.logger.Info("markers exported",
		"session_id", sessionID,
		"format", "document",
		"markers", len(markers),
	)

	return &DocumentExport{
		FileName:    export.DefaultFileName(fps, sortLabel(mode)) + ".html",
		HTML:        html,
		MarkerCount: len(markers),
	}, nil
}

// BuildSummaryInput renders the "[HH:MM:SS:FF] comment" text sent to the
// summarization collaborator. Exposed on the API as a preview.
func (s *ExportService) BuildSummaryInput(ctx context.Context, sessionID string) (*SummaryInput, error) {
	eng, markers, _, err := s.sessionMarkers(sessionID, string(marker.SortTimecode))
	if err != nil {
		return nil, err
	}

	fps := eng.Snapshot().FPS
	return &SummaryInput{
		SessionID:   sessionID,
		SessionName: eng.Name(),
		FPS:         fps,
		Text:        export.BuildSummaryInput(markers, fps),
		MarkerCount: len(markers),
	}, nil
}
