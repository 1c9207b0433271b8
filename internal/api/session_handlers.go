package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/framemarkapp/framemark-server/internal/search"
	"github.com/framemarkapp/framemark-server/internal/service"
)

func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions",
		Summary:     "Create session",
		Description: "Creates a review session with a stopped transport at frame zero",
		Tags:        []string{"Sessions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSessions",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions",
		Summary:     "List sessions",
		Description: "Returns all live review sessions",
		Tags:        []string{"Sessions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListSessions)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions/{id}",
		Summary:     "Get session",
		Description: "Returns a session by ID",
		Tags:        []string{"Sessions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteSession",
		Method:      http.MethodDelete,
		Path:        "/api/v1/sessions/{id}",
		Summary:     "Delete session",
		Description: "Tears a session down and removes its markers from the search index",
		Tags:        []string{"Sessions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchMarkers",
		Method:      http.MethodGet,
		Path:        "/api/v1/markers/search",
		Summary:     "Search markers",
		Description: "Full-text search over marker comments, optionally scoped to one session",
		Tags:        []string{"Markers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearchMarkers)
}

// === DTOs ===

// CreateSessionRequest is the request body for creating a session.
type CreateSessionRequest struct {
	Name string `json:"name" doc:"Session name"`
	FPS  int    `json:"fps,omitempty" doc:"Frame rate, defaults to 24"`
}

// CreateSessionInput wraps the create session request for Huma.
type CreateSessionInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateSessionRequest
}

// SessionOutput wraps a session view for Huma.
type SessionOutput struct {
	Body service.SessionView
}

// ListSessionsInput contains parameters for listing sessions.
type ListSessionsInput struct {
	Authorization string `header:"Authorization"`
}

// ListSessionsResponse contains all live sessions.
type ListSessionsResponse struct {
	Sessions []service.SessionView `json:"sessions" doc:"Live sessions in creation order"`
}

// ListSessionsOutput wraps the session list for Huma.
type ListSessionsOutput struct {
	Body ListSessionsResponse
}

// SessionIDInput identifies a session by path parameter.
type SessionIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Session ID"`
}

// DeleteSessionResponse confirms a deletion.
type DeleteSessionResponse struct {
	Deleted bool `json:"deleted" doc:"Always true on success"`
}

// DeleteSessionOutput wraps the deletion response for Huma.
type DeleteSessionOutput struct {
	Body DeleteSessionResponse
}

// SearchMarkersInput contains full-text search parameters.
type SearchMarkersInput struct {
	Authorization string `header:"Authorization"`
	Query         string `query:"q" doc:"Search query. Empty matches everything"`
	SessionID     string `query:"session_id" doc:"Limit results to one session"`
	Limit         int    `query:"limit" doc:"Maximum hits to return (default 20)"`
	Offset        int    `query:"offset" doc:"Hits to skip for pagination"`
}

// SearchMarkersOutput wraps the search result for Huma.
type SearchMarkersOutput struct {
	Body search.SearchResult
}

// === Handlers ===

func (s *Server) handleCreateSession(ctx context.Context, input *CreateSessionInput) (*SessionOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	view, err := s.services.Session.CreateSession(ctx, service.CreateSessionRequest{
		Name: input.Body.Name,
		FPS:  input.Body.FPS,
	})
	if err != nil {
		return nil, err
	}

	return &SessionOutput{Body: *view}, nil
}

func (s *Server) handleListSessions(ctx context.Context, input *ListSessionsInput) (*ListSessionsOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	return &ListSessionsOutput{
		Body: ListSessionsResponse{Sessions: s.services.Session.ListSessions(ctx)},
	}, nil
}

func (s *Server) handleGetSession(ctx context.Context, input *SessionIDInput) (*SessionOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	view, err := s.services.Session.GetSession(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &SessionOutput{Body: *view}, nil
}

func (s *Server) handleDeleteSession(ctx context.Context, input *SessionIDInput) (*DeleteSessionOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Session.DeleteSession(ctx, input.ID); err != nil {
		return nil, err
	}

	return &DeleteSessionOutput{Body: DeleteSessionResponse{Deleted: true}}, nil
}

func (s *Server) handleSearchMarkers(ctx context.Context, input *SearchMarkersInput) (*SearchMarkersOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.SessionID = input.SessionID
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	if input.Offset > 0 {
		params.Offset = input.Offset
	}

	result, err := s.services.Session.SearchMarkers(ctx, params)
	if err != nil {
		return nil, err
	}

	return &SearchMarkersOutput{Body: *result}, nil
}
