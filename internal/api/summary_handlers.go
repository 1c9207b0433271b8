package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/framemarkapp/framemark-server/internal/service"
)

func (s *Server) registerSummaryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "summarizeSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/summary",
		Summary:     "Summarize markers",
		Description: "Sends the timecode-ordered marker text to the summarization collaborator. A collaborator failure returns its error text in place of the summary",
		Tags:        []string{"Summary"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSummarize)
}

// SummaryOutput wraps the summary view for Huma.
type SummaryOutput struct {
	Body service.SummaryView
}

func (s *Server) handleSummarize(ctx context.Context, input *SessionIDInput) (*SummaryOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	view, err := s.services.Summary.Summarize(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &SummaryOutput{Body: *view}, nil
}
