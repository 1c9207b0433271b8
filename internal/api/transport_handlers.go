package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/framemarkapp/framemark-server/internal/service"
)

func (s *Server) registerTransportRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "play",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/play",
		Summary:     "Start playback",
		Description: "Starts the session transport running",
		Tags:        []string{"Transport"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handlePlay)

	huma.Register(s.api, huma.Operation{
		OperationID: "stop",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/stop",
		Summary:     "Stop playback",
		Description: "Freezes the transport at its current position",
		Tags:        []string{"Transport"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleStop)

	huma.Register(s.api, huma.Operation{
		OperationID: "reset",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/reset",
		Summary:     "Reset transport",
		Description: "Rewinds to a start frame. Leaves the marker ledger alone unless clear_markers is set",
		Tags:        []string{"Transport"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReset)

	huma.Register(s.api, huma.Operation{
		OperationID: "seek",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/seek",
		Summary:     "Seek",
		Description: "Nudges the transport by whole seconds, clamping at zero",
		Tags:        []string{"Transport"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSeek)

	huma.Register(s.api, huma.Operation{
		OperationID: "changeFramerate",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/framerate",
		Summary:     "Change frame rate",
		Description: "Switches the frame rate, preserving the playhead's elapsed seconds. Marker frames are untouched",
		Tags:        []string{"Transport"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleChangeFramerate)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPosition",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions/{id}/position",
		Summary:     "Get position",
		Description: "Returns the current transport position",
		Tags:        []string{"Transport"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handlePosition)
}

// === DTOs ===

// TransportOutput wraps a transport view for Huma.
type TransportOutput struct {
	Body service.TransportView
}

// ResetRequest is the request body for resetting the transport.
type ResetRequest struct {
	StartFrame   int64 `json:"start_frame,omitempty" doc:"Frame to rewind to (default 0)"`
	ClearMarkers bool  `json:"clear_markers,omitempty" doc:"Also empty the marker ledger"`
}

// ResetInput wraps the reset request for Huma.
type ResetInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Session ID"`
	Body          ResetRequest
}

// SeekRequest is the request body for seeking.
type SeekRequest struct {
	DeltaSeconds int `json:"delta_seconds" doc:"Seconds to move, negative rewinds"`
}

// SeekInput wraps the seek request for Huma.
type SeekInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Session ID"`
	Body          SeekRequest
}

// ChangeFramerateRequest is the request body for switching frame rates.
type ChangeFramerateRequest struct {
	FPS int `json:"fps" doc:"New frame rate"`
}

// ChangeFramerateInput wraps the framerate request for Huma.
type ChangeFramerateInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Session ID"`
	Body          ChangeFramerateRequest
}

// === Handlers ===

func (s *Server) handlePlay(ctx context.Context, input *SessionIDInput) (*TransportOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	view, err := s.services.Session.Play(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &TransportOutput{Body: *view}, nil
}

func (s *Server) handleStop(ctx context.Context, input *SessionIDInput) (*TransportOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	view, err := s.services.Session.Stop(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &TransportOutput{Body: *view}, nil
}

func (s *Server) handleReset(ctx context.Context, input *ResetInput) (*TransportOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	view, err := s.services.Session.Reset(ctx, input.ID, service.ResetRequest{
		StartFrame:   input.Body.StartFrame,
		ClearMarkers: input.Body.ClearMarkers,
	})
	if err != nil {
		return nil, err
	}

	return &TransportOutput{Body: *view}, nil
}

func (s *Server) handleSeek(ctx context.Context, input *SeekInput) (*TransportOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	view, err := s.services.Session.Seek(ctx, input.ID, service.SeekRequest{
		DeltaSeconds: input.Body.DeltaSeconds,
	})
	if err != nil {
		return nil, err
	}

	return &TransportOutput{Body: *view}, nil
}

func (s *Server) handleChangeFramerate(ctx context.Context, input *ChangeFramerateInput) (*TransportOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	view, err := s.services.Session.ChangeFramerate(ctx, input.ID, service.ChangeFramerateRequest{
		FPS: input.Body.FPS,
	})
	if err != nil {
		return nil, err
	}

	return &TransportOutput{Body: *view}, nil
}

func (s *Server) handlePosition(ctx context.Context, input *SessionIDInput) (*TransportOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	view, err := s.services.Session.Position(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &TransportOutput{Body: *view}, nil
}
