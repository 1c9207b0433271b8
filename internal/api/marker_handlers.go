package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/framemarkapp/framemark-server/internal/service"
)

func (s *Server) registerMarkerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "captureMarker",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/markers",
		Summary:     "Capture marker",
		Description: "Records a marker at the playhead, or at an explicit frame when frame_index is set",
		Tags:        []string{"Markers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCaptureMarker)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMarkers",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions/{id}/markers",
		Summary:     "List markers",
		Description: "Returns the ledger in capture order, or timecode order with sort=timecode",
		Tags:        []string{"Markers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMarkers)

	huma.Register(s.api, huma.Operation{
		OperationID: "editMarker",
		Method:      http.MethodPatch,
		Path:        "/api/v1/sessions/{id}/markers/{markerID}",
		Summary:     "Edit marker",
		Description: "Replaces a marker's comment",
		Tags:        []string{"Markers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleEditMarker)

	huma.Register(s.api, huma.Operation{
		OperationID: "clearMarkers",
		Method:      http.MethodDelete,
		Path:        "/api/v1/sessions/{id}/markers",
		Summary:     "Clear markers",
		Description: "Empties the ledger. Marker ids are never reused",
		Tags:        []string{"Markers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleClearMarkers)
}

// === DTOs ===

// CaptureMarkerRequest is the request body for capturing a marker.
type CaptureMarkerRequest struct {
	Comment    string `json:"comment,omitempty" doc:"Reviewer note"`
	FrameIndex *int64 `json:"frame_index,omitempty" doc:"Explicit frame instead of the playhead"`
}

// CaptureMarkerInput wraps the capture request for Huma.
type CaptureMarkerInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Session ID"`
	Body          CaptureMarkerRequest
}

// MarkerOutput wraps a single marker view for Huma.
type MarkerOutput struct {
	Body service.MarkerView
}

// ListMarkersInput contains parameters for listing markers.
type ListMarkersInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Session ID"`
	Sort          string `query:"sort" doc:"Sort order: created (default) or timecode"`
}

// ListMarkersResponse contains the ledger contents.
type ListMarkersResponse struct {
	Markers []service.MarkerView `json:"markers" doc:"Ledger entries in the requested order"`
}

// ListMarkersOutput wraps the marker list for Huma.
type ListMarkersOutput struct {
	Body ListMarkersResponse
}

// EditMarkerRequest is the request body for editing a marker comment.
type EditMarkerRequest struct {
	Comment string `json:"comment" doc:"Replacement comment"`
}

// EditMarkerInput wraps the edit request for Huma.
type EditMarkerInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Session ID"`
	MarkerID      int64  `path:"markerID" doc:"Marker ID"`
	Body          EditMarkerRequest
}

// ClearMarkersOutput wraps the clear result for Huma.
type ClearMarkersOutput struct {
	Body service.ClearMarkersResult
}

// === Handlers ===

func (s *Server) handleCaptureMarker(ctx context.Context, input *CaptureMarkerInput) (*MarkerOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	view, err := s.services.Session.CaptureMarker(ctx, input.ID, service.CaptureMarkerRequest{
		Comment:    input.Body.Comment,
		FrameIndex: input.Body.FrameIndex,
	})
	if err != nil {
		return nil, err
	}

	return &MarkerOutput{Body: *view}, nil
}

func (s *Server) handleListMarkers(ctx context.Context, input *ListMarkersInput) (*ListMarkersOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	views, err := s.services.Session.ListMarkers(ctx, input.ID, input.Sort)
	if err != nil {
		return nil, err
	}

	return &ListMarkersOutput{Body: ListMarkersResponse{Markers: views}}, nil
}

func (s *Server) handleEditMarker(ctx context.Context, input *EditMarkerInput) (*MarkerOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	view, err := s.services.Session.EditMarkerComment(ctx, input.ID, input.MarkerID, service.EditMarkerRequest{
		Comment: input.Body.Comment,
	})
	if err != nil {
		return nil, err
	}

	return &MarkerOutput{Body: *view}, nil
}

func (s *Server) handleClearMarkers(ctx context.Context, input *SessionIDInput) (*ClearMarkersOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	result, err := s.services.Session.ClearMarkers(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &ClearMarkersOutput{Body: *result}, nil
}
