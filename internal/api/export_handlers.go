package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/framemarkapp/framemark-server/internal/service"
)

func (s *Server) registerExportRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "exportMarkersText",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions/{id}/export/text",
		Summary:     "Export markers as text",
		Description: "Renders the ledger as numbered timecode lines with a download filename",
		Tags:        []string{"Export"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleExportText)

	huma.Register(s.api, huma.Operation{
		OperationID: "exportMarkersDocument",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions/{id}/export/document",
		Summary:     "Export markers as document",
		Description: "Renders the ledger as a printable HTML document",
		Tags:        []string{"Export"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleExportDocument)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSummaryInput",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions/{id}/export/summary-input",
		Summary:     "Preview summary input",
		Description: "Returns the timecode-ordered marker text that would be sent for summarization",
		Tags:        []string{"Export"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSummaryInput)
}

// === DTOs ===

// ExportTextInput contains parameters for a text export.
type ExportTextInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Session ID"`
	Sort          string `query:"sort" doc:"Sort order: created (default) or timecode"`
	FileName      string `query:"file_name" doc:"Custom download name, slugified. Empty uses the default"`
}

// ExportTextOutput wraps the text export for Huma.
type ExportTextOutput struct {
	Body service.TextExport
}

// ExportDocumentInput contains parameters for a document export.
type ExportDocumentInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Session ID"`
	Sort          string `query:"sort" doc:"Sort order: created (default) or timecode"`
}

// ExportDocumentOutput wraps the document export for Huma.
type ExportDocumentOutput struct {
	Body service.DocumentExport
}

// SummaryInputOutput wraps the summary input preview for Huma.
type SummaryInputOutput struct {
	Body service.SummaryInput
}

// === Handlers ===

func (s *Server) handleExportText(ctx context.Context, input *ExportTextInput) (*ExportTextOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	result, err := s.services.Export.ExportText(ctx, input.ID, input.Sort, input.FileName)
	if err != nil {
		return nil, err
	}

	return &ExportTextOutput{Body: *result}, nil
}

func (s *Server) handleExportDocument(ctx context.Context, input *ExportDocumentInput) (*ExportDocumentOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	result, err := s.services.Export.ExportDocument(ctx, input.ID, input.Sort)
	if err != nil {
		return nil, err
	}

	return &ExportDocumentOutput{Body: *result}, nil
}

func (s *Server) handleSummaryInput(ctx context.Context, input *SessionIDInput) (*SummaryInputOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	result, err := s.services.Export.BuildSummaryInput(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &SummaryInputOutput{Body: *result}, nil
}
