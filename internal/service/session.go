// Package service orchestrates the domain packages behind the HTTP API:
// sessions and their transports, the marker ledger, exports, summaries,
// and operator authentication.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/framemarkapp/framemark-server/internal/engine"
	"github.com/framemarkapp/framemark-server/internal/errors"
	"github.com/framemarkapp/framemark-server/internal/marker"
	"github.com/framemarkapp/framemark-server/internal/search"
	"github.com/framemarkapp/framemark-server/internal/sse"
	"github.com/framemarkapp/framemark-server/internal/timecode"
	"github.com/framemarkapp/framemark-server/internal/validation"
)

// validate is the shared request validator for the service layer.
var validate = validation.New()

// SessionService manages review sessions: lifecycle, transport control,
// and the marker ledger. Every mutation is mirrored to SSE subscribers
// and the marker search index.
type SessionService struct {
	registry   *engine.Registry
	sseManager *sse.Manager
	search     *search.MarkerIndex
	logger     *slog.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(registry *engine.Registry, sseManager *sse.Manager, markerIndex *search.MarkerIndex, logger *slog.Logger) *SessionService {
	return &SessionService{
		registry:   registry,
		sseManager: sseManager,
		search:     markerIndex,
		logger:     logger,
	}
}

// CreateSessionRequest holds the fields for a new session.
type CreateSessionRequest struct {
	Name string `json:"name" validate:"required,max=120"`
	FPS  int    `json:"fps" validate:"omitempty,gte=1,lte=240"`
}

// ResetRequest rewinds the transport, optionally clearing the ledger.
type ResetRequest struct {
	StartFrame   int64 `json:"start_frame" validate:"gte=0"`
	ClearMarkers bool  `json:"clear_markers"`
}

// SeekRequest nudges the transport by whole seconds, negative to rewind.
type SeekRequest struct {
	DeltaSeconds int `json:"delta_seconds"`
}

// ChangeFramerateRequest switches the session's frame rate.
type ChangeFramerateRequest struct {
	FPS int `json:"fps" validate:"required,gte=1,lte=240"`
}

// CaptureMarkerRequest captures a marker, at the playhead by default or at
// an explicit frame when FrameIndex is set.
type CaptureMarkerRequest struct {
	Comment    string `json:"comment" validate:"max=2000"`
	FrameIndex *int64 `json:"frame_index,omitempty" validate:"omitempty,gte=0"`
}

// EditMarkerRequest replaces a marker's comment.
type EditMarkerRequest struct {
	Comment string `json:"comment" validate:"max=2000"`
}

// SessionView is the API representation of a session.
type SessionView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	FPS         int       `json:"fps"`
	FrameIndex  int64     `json:"frame_index"`
	Timecode    string    `json:"timecode"`
	Running     bool      `json:"running"`
	MarkerCount int       `json:"marker_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// TransportView is the API representation of the transport position.
type TransportView struct {
	SessionID  string `json:"session_id"`
	FrameIndex int64  `json:"frame_index"`
	Timecode   string `json:"timecode"`
	FPS        int    `json:"fps"`
	Running    bool   `json:"running"`
}

// MarkerView is the API representation of a ledger entry.
type MarkerView struct {
	ID         int64  `json:"id"`
	FrameIndex int64  `json:"frame_index"`
	Timecode   string `json:"timecode"`
	Comment    string `json:"comment"`
}

// ClearMarkersResult reports how many markers a clear removed.
type ClearMarkersResult struct {
	SessionID string `json:"session_id"`
	Removed   int    `json:"removed"`
}

func sessionView(eng *engine.Engine) SessionView {
	snap := eng.Snapshot()
	return SessionView{
		ID:          eng.ID(),
		Name:        eng.Name(),
		FPS:         snap.FPS,
		FrameIndex:  snap.FrameIndex,
		Timecode:    snap.Timecode,
		Running:     snap.Running,
		MarkerCount: eng.MarkerCount(),
		CreatedAt:   eng.CreatedAt(),
	}
}

func transportView(sessionID string, snap timecode.Snapshot) TransportView {
	return TransportView{
		SessionID:  sessionID,
		FrameIndex: snap.FrameIndex,
		Timecode:   snap.Timecode,
		FPS:        snap.FPS,
		Running:    snap.Running,
	}
}

func markerView(m marker.Marker, fps int) MarkerView {
	return MarkerView{
		ID:         m.ID,
		FrameIndex: m.FrameIndex,
		Timecode:   timecode.Encode(m.FrameIndex, fps),
		Comment:    m.Comment,
	}
}

// engine looks a session up or fails with a not-found domain error.
func (s *SessionService) engine(sessionID string) (*engine.Engine, error) {
	eng, ok := s.registry.Get(sessionID)
	if !ok {
		return nil, errors.NotFoundf("session %s not found", sessionID)
	}
	return eng, nil
}

// CreateSession starts a new review session with a stopped transport at
// frame zero.
func (s *SessionService) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionView, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	fps := req.FPS
	if fps == 0 {
		fps = timecode.DefaultFPS
	}

	eng := s.registry.Create(req.Name, fps)
	view := sessionView(eng)

	s.sseManager.Emit(sse.NewSessionCreatedEvent(eng.ID(), eng.Name(), fps))

	s.logger.Info("session created",
		"session_id", eng.ID(),
		"name", eng.Name(),
		"fps", fps,
	)

	return &view, nil
}

// ListSessions returns every live session ordered by creation time.
func (s *SessionService) ListSessions(ctx context.Context) []SessionView {
	engines := s.registry.List()
	views := make([]SessionView, 0, len(engines))
	for _, eng := range engines {
		views = append(views, sessionView(eng))
	}
	return views
}

// GetSession returns one session.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*SessionView, error) {
	eng, err := s.engine(sessionID)
	if err != nil {
		return nil, err
	}
	view := sessionView(eng)
	return &view, nil
}

// DeleteSession tears a session down and removes its markers from the
// search index.
func (s *SessionService) DeleteSession(ctx context.Context, sessionID string) error {
	eng, err := s.engine(sessionID)
	if err != nil {
		return err
	}
	name := eng.Name()

	s.registry.Delete(sessionID)

	if _, err := s.search.DeleteSession(sessionID); err != nil {
		s.logger.Warn("failed to deindex session markers",
			"session_id", sessionID,
			"error", err,
		)
	}

	s.sseManager.Emit(sse.NewSessionDeletedEvent(sessionID, name))

	s.logger.Info("session deleted", "session_id", sessionID)
	return nil
}

// Play starts the transport.
func (s *SessionService) Play(ctx context.Context, sessionID string) (*TransportView, error) {
	eng, err := s.engine(sessionID)
	if err != nil {
		return nil, err
	}

	snap := eng.Play()
	s.sseManager.Emit(sse.NewTransportEvent(sse.EventTransportStarted, sessionID, snap.FrameIndex, snap.Timecode, snap.FPS, snap.Running))

	view := transportView(sessionID, snap)
	return &view, nil
}

// Stop freezes the transport at its current position.
func (s *SessionService) Stop(ctx context.Context, sessionID string) (*TransportView, error) {
	eng, err := s.engine(sessionID)
	if err != nil {
		return nil, err
	}

	snap := eng.Stop()
	s.sseManager.Emit(sse.NewTransportEvent(sse.EventTransportStopped, sessionID, snap.FrameIndex, snap.Timecode, snap.FPS, snap.Running))

	view := transportView(sessionID, snap)
	return &view, nil
}

// Reset rewinds the transport to the requested start frame. The ledger is
// untouched unless the request asks for it.
func (s *SessionService) Reset(ctx context.Context, sessionID string, req ResetRequest) (*TransportView, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	eng, err := s.engine(sessionID)
	if err != nil {
		return nil, err
	}

	snap, cleared := eng.Reset(req.StartFrame, req.ClearMarkers)

	if req.ClearMarkers {
		if _, err := s.search.DeleteSession(sessionID); err != nil {
			s.logger.Warn("failed to deindex cleared markers",
				"session_id", sessionID,
				"error", err,
			)
		}
		s.sseManager.Emit(sse.NewMarkersClearedEvent(sessionID, cleared))
	}

	s.sseManager.Emit(sse.NewTransportEvent(sse.EventTransportReset, sessionID, snap.FrameIndex, snap.Timecode, snap.FPS, snap.Running))

	s.logger.Info("transport reset",
		"session_id", sessionID,
		"start_frame", req.StartFrame,
		"markers_cleared", cleared,
	)

	view := transportView(sessionID, snap)
	return &view, nil
}

// Seek nudges the transport by whole seconds. The position clamps at zero
// rather than going negative.
func (s *SessionService) Seek(ctx context.Context, sessionID string, req SeekRequest) (*TransportView, error) {
	eng, err := s.engine(sessionID)
	if err != nil {
		return nil, err
	}

	snap := eng.AdjustBySeconds(req.DeltaSeconds)
	s.sseManager.Emit(sse.NewTransportEvent(sse.EventTransportPosition, sessionID, snap.FrameIndex, snap.Timecode, snap.FPS, snap.Running))

	view := transportView(sessionID, snap)
	return &view, nil
}

// ChangeFramerate switches the session's frame rate, preserving the elapsed
// wall time of the playhead. Marker frame indexes keep their captured values;
// only their rendered timecodes change, so the search index is re-rendered.
func (s *SessionService) ChangeFramerate(ctx context.Context, sessionID string, req ChangeFramerateRequest) (*TransportView, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	eng, err := s.engine(sessionID)
	if err != nil {
		return nil, err
	}

	oldFPS := eng.Snapshot().FPS
	snap := eng.ChangeFPS(req.FPS)

	if oldFPS != snap.FPS {
		s.reindexSession(eng)
		s.sseManager.Emit(sse.NewFramerateChangedEvent(sessionID, oldFPS, snap.FPS, snap.FrameIndex, snap.Timecode))

		s.logger.Info("framerate changed",
			"session_id", sessionID,
			"old_fps", oldFPS,
			"new_fps", snap.FPS,
		)
	}

	view := transportView(sessionID, snap)
	return &view, nil
}

// Position returns the current transport position without mutating anything.
func (s *SessionService) Position(ctx context.Context, sessionID string) (*TransportView, error) {
	eng, err := s.engine(sessionID)
	if err != nil {
		return nil, err
	}
	view := transportView(sessionID, eng.Snapshot())
	return &view, nil
}

// CaptureMarker records a marker on the ledger, at the playhead unless the
// request pins an explicit frame.
func (s *SessionService) CaptureMarker(ctx context.Context, sessionID string, req CaptureMarkerRequest) (*MarkerView, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	eng, err := s.engine(sessionID)
	if err != nil {
		return nil, err
	}

	var m marker.Marker
	if req.FrameIndex != nil {
		m = eng.CaptureMarkerAt(*req.FrameIndex, req.Comment)
	} else {
		m = eng.CaptureMarker(req.Comment)
	}

	fps := eng.Snapshot().FPS
	tc := timecode.Encode(m.FrameIndex, fps)

	s.indexMarker(eng, m, tc)
	s.sseManager.Emit(sse.NewMarkerCapturedEvent(sessionID, m, tc))

	s.logger.Info("marker captured",
		"session_id", sessionID,
		"marker_id", m.ID,
		"timecode", tc,
	)

	view := markerView(m, fps)
	return &view, nil
}

// EditMarkerComment replaces the comment on an existing marker.
func (s *SessionService) EditMarkerComment(ctx context.Context, sessionID string, markerID int64, req EditMarkerRequest) (*MarkerView, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	eng, err := s.engine(sessionID)
	if err != nil {
		return nil, err
	}

	m, ok := eng.EditComment(markerID, req.Comment)
	if !ok {
		return nil, errors.NotFoundf("marker %d not found", markerID)
	}

	fps := eng.Snapshot().FPS
	tc := timecode.Encode(m.FrameIndex, fps)

	s.indexMarker(eng, m, tc)
	s.sseManager.Emit(sse.NewMarkerUpdatedEvent(sessionID, m, tc))

	view := markerView(m, fps)
	return &view, nil
}

// ListMarkers returns the ledger in the requested order. An empty sort
// defaults to capture order.
func (s *SessionService) ListMarkers(ctx context.Context, sessionID, sort string) ([]MarkerView, error) {
	mode := marker.SortMode(sort)
	if sort == "" {
		mode = marker.SortCreated
	}
	if !mode.Valid() {
		return nil, errors.Validationf("unknown sort mode %q", sort)
	}

	eng, err := s.engine(sessionID)
	if err != nil {
		return nil, err
	}

	fps := eng.Snapshot().FPS
	markers := eng.Markers(mode)
	views := make([]MarkerView, 0, len(markers))
	for _, m := range markers {
		views = append(views, markerView(m, fps))
	}
	return views, nil
}

// ClearMarkers empties the ledger. Marker ids are never reused, so the
// next capture continues the old numbering.
func (s *SessionService) ClearMarkers(ctx context.Context, sessionID string) (*ClearMarkersResult, error) {
	eng, err := s.engine(sessionID)
	if err != nil {
		return nil, err
	}

	removed := eng.ClearMarkers()

	if _, err := s.search.DeleteSession(sessionID); err != nil {
		s.logger.Warn("failed to deindex cleared markers",
			"session_id", sessionID,
			"error", err,
		)
	}

	s.sseManager.Emit(sse.NewMarkersClearedEvent(sessionID, removed))

	s.logger.Info("markers cleared",
		"session_id", sessionID,
		"removed", removed,
	)

	return &ClearMarkersResult{SessionID: sessionID, Removed: removed}, nil
}

// SearchMarkers runs a full-text search over marker comments, optionally
// scoped to one session.
func (s *SessionService) SearchMarkers(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	if params.SessionID != "" {
		if _, err := s.engine(params.SessionID); err != nil {
			return nil, err
		}
	}
	return s.search.Search(ctx, params)
}

// ReapIdleSessions removes sessions idle for longer than ttl, deindexes
// their markers, and announces the teardown. Returns how many were removed.
func (s *SessionService) ReapIdleSessions(ctx context.Context, ttl time.Duration) int {
	reaped := s.registry.ReapIdle(ttl)
	for _, id := range reaped {
		if _, err := s.search.DeleteSession(id); err != nil {
			s.logger.Warn("failed to deindex reaped session",
				"session_id", id,
				"error", err,
			)
		}
		s.sseManager.Emit(sse.NewSessionDeletedEvent(id, ""))
	}
	if len(reaped) > 0 {
		s.logger.Info("reaped idle sessions", "count", len(reaped))
	}
	return len(reaped)
}

// SessionCount returns the number of live sessions.
func (s *SessionService) SessionCount() int {
	return s.registry.Len()
}

// SearchDocCount returns the number of indexed marker documents. Used by
// the health check.
func (s *SessionService) SearchDocCount() (uint64, error) {
	return s.search.DocCount()
}

// indexMarker mirrors one marker into the search index, best effort.
func (s *SessionService) indexMarker(eng *engine.Engine, m marker.Marker, tc string) {
	doc := search.NewMarkerDocument(eng.ID(), eng.Name(), m, tc)
	if err := s.search.IndexMarker(doc); err != nil {
		s.logger.Warn("failed to index marker",
			"session_id", eng.ID(),
			"marker_id", m.ID,
			"error", err,
		)
	}
}

// reindexSession re-renders every marker timecode after a framerate change.
func (s *SessionService) reindexSession(eng *engine.Engine) {
	fps := eng.Snapshot().FPS
	markers := eng.Markers(marker.SortCreated)
	docs := make([]search.MarkerDocument, 0, len(markers))
	for _, m := range markers {
		docs = append(docs, search.NewMarkerDocument(eng.ID(), eng.Name(), m, timecode.Encode(m.FrameIndex, fps)))
	}
	if err := s.search.IndexMarkers(docs); err != nil {
		s.logger.Warn("failed to reindex session markers",
			"session_id", eng.ID(),
			"error", err,
		)
	}
}
