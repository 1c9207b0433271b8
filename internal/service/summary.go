package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/framemarkapp/framemark-server/internal/summary"
)

// Summarizer is the outbound collaborator that turns marker text into prose.
type Summarizer interface {
	Enabled() bool
	Summarize(ctx context.Context, sessionName string, fps int, markerText string) (string, error)
}

// SummaryService asks the remote collaborator for a prose summary of a
// session's markers. A failed call is not retried; its error text is
// returned in place of the summary so the client always has something
// to display.
type SummaryService struct {
	client  Summarizer
	exports *ExportService
	logger  *slog.Logger
}

// NewSummaryService creates a new summary service.
func NewSummaryService(client Summarizer, exports *ExportService, logger *slog.Logger) *SummaryService {
	return &SummaryService{
		client:  client,
		exports: exports,
		logger:  logger,
	}
}

// SummaryView is the result of a summarize call. Generated distinguishes a
// real summary from substituted failure text.
type SummaryView struct {
	SessionID   string    `json:"session_id"`
	Summary     string    `json:"summary"`
	Generated   bool      `json:"generated"`
	MarkerCount int       `json:"marker_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Summarize builds the marker text for a session and sends it to the
// collaborator. The empty-ledger guard runs before any network work.
func (s *SummaryService) Summarize(ctx context.Context, sessionID string) (*SummaryView, error) {
	input, err := s.exports.BuildSummaryInput(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	view := &SummaryView{
		SessionID:   sessionID,
		MarkerCount: input.MarkerCount,
		CreatedAt:   time.Now(),
	}

	text, err := s.client.Summarize(ctx, input.SessionName, input.FPS, input.Text)
	if err != nil {
		s.logger.Warn("summary generation failed",
			"session_id", sessionID,
			"error", err,
		)
		view.Summary = err.Error()
		view.Generated = false
		return view, nil
	}

	view.Summary = text
	view.Generated = true

	s.logger.Info("summary generated",
		"session_id", sessionID,
		"markers", input.MarkerCount,
	)

	return view, nil
}

// Ensure the real client satisfies the collaborator interface.
var _ Summarizer = (*summary.Client)(nil)
