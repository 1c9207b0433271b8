// Package sse implements Server-Sent Events for live transport and marker
// updates. Clients on the control surface subscribe once and render every
// position change, capture, and framerate switch as it happens.
package sse

import (
	"time"

	"github.com/framemarkapp/framemark-server/internal/marker"
)

// FrameMark is request/response for everything the operator initiates; SSE
// only flows server to client. Companion apps that need to drive the
// transport themselves still go through the HTTP API.

// EventType represents the type of SSE event.
type EventType string

const (
	// EventSessionCreated represents a new review session.
	EventSessionCreated EventType = "session.created"
	// EventSessionDeleted represents a session being torn down.
	EventSessionDeleted EventType = "session.deleted"

	// EventTransportStarted represents the clock starting to run.
	EventTransportStarted EventType = "transport.started"
	// EventTransportStopped represents the clock freezing.
	EventTransportStopped EventType = "transport.stopped"
	// EventTransportReset represents the clock jumping back to its start frame.
	EventTransportReset EventType = "transport.reset"
	// EventTransportPosition is the throttled position feed while playing.
	EventTransportPosition EventType = "transport.position"

	// EventFramerateChanged represents the session switching frame rate.
	EventFramerateChanged EventType = "framerate.changed"

	// EventMarkerCaptured represents a new marker on the ledger.
	EventMarkerCaptured EventType = "marker.captured"
	// EventMarkerUpdated represents a marker comment edit.
	EventMarkerUpdated EventType = "marker.updated"
	// EventMarkersCleared represents the ledger being emptied.
	EventMarkersCleared EventType = "markers.cleared"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field carries the event payload as a JSON object.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// SessionID scopes delivery when a client subscribed to one session.
	// Empty means "deliver to everyone". Payloads carry their own
	// session_id, so this field stays off the wire.
	SessionID string `json:"-"`
}

// SessionEventData is the payload for session lifecycle events.
type SessionEventData struct {
	SessionID string    `json:"session_id"`
	Name      string    `json:"name"`
	FPS       int       `json:"fps"`
	At        time.Time `json:"at"`
}

// TransportEventData is the payload for transport state events.
type TransportEventData struct {
	SessionID  string    `json:"session_id"`
	FrameIndex int64     `json:"frame_index"`
	Timecode   string    `json:"timecode"`
	FPS        int       `json:"fps"`
	Running    bool      `json:"running"`
	At         time.Time `json:"at"`
}

// FramerateChangedEventData is the payload for framerate change events.
type FramerateChangedEventData struct {
	SessionID  string `json:"session_id"`
	OldFPS     int    `json:"old_fps"`
	NewFPS     int    `json:"new_fps"`
	FrameIndex int64  `json:"frame_index"`
	Timecode   string `json:"timecode"`
}

// MarkerEventData is the payload for marker capture and update events.
type MarkerEventData struct {
	SessionID string        `json:"session_id"`
	Marker    marker.Marker `json:"marker"`
	Timecode  string        `json:"timecode"`
}

// MarkersClearedEventData is the payload for ledger clear events.
type MarkersClearedEventData struct {
	SessionID string    `json:"session_id"`
	Removed   int       `json:"removed"`
	At        time.Time `json:"at"`
}

// HeartbeatEventData is the payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewSessionCreatedEvent creates a session.created event.
func NewSessionCreatedEvent(sessionID, name string, fps int) Event {
	return Event{
		Type: EventSessionCreated,
		Data: SessionEventData{
			SessionID: sessionID,
			Name:      name,
			FPS:       fps,
			At:        time.Now(),
		},
		Timestamp: time.Now(),
	}
}

// NewSessionDeletedEvent creates a session.deleted event.
func NewSessionDeletedEvent(sessionID, name string) Event {
	return Event{
		Type: EventSessionDeleted,
		Data: SessionEventData{
			SessionID: sessionID,
			Name:      name,
			At:        time.Now(),
		},
		Timestamp: time.Now(),
	}
}

// NewTransportEvent creates a transport lifecycle or position event.
func NewTransportEvent(eventType EventType, sessionID string, frameIndex int64, timecode string, fps int, running bool) Event {
	return Event{
		Type: eventType,
		Data: TransportEventData{
			SessionID:  sessionID,
			FrameIndex: frameIndex,
			Timecode:   timecode,
			FPS:        fps,
			Running:    running,
			At:         time.Now(),
		},
		Timestamp: time.Now(),
		SessionID: sessionID,
	}
}

// NewFramerateChangedEvent creates a framerate.changed event.
func NewFramerateChangedEvent(sessionID string, oldFPS, newFPS int, frameIndex int64, timecode string) Event {
	return Event{
		Type: EventFramerateChanged,
		Data: FramerateChangedEventData{
			SessionID:  sessionID,
			OldFPS:     oldFPS,
			NewFPS:     newFPS,
			FrameIndex: frameIndex,
			Timecode:   timecode,
		},
		Timestamp: time.Now(),
		SessionID: sessionID,
	}
}

// NewMarkerCapturedEvent creates a marker.captured event.
func NewMarkerCapturedEvent(sessionID string, m marker.Marker, timecode string) Event {
	return Event{
		Type: EventMarkerCaptured,
		Data: MarkerEventData{
			SessionID: sessionID,
			Marker:    m,
			Timecode:  timecode,
		},
		Timestamp: time.Now(),
		SessionID: sessionID,
	}
}

// NewMarkerUpdatedEvent creates a marker.updated event.
func NewMarkerUpdatedEvent(sessionID string, m marker.Marker, timecode string) Event {
	return Event{
		Type: EventMarkerUpdated,
		Data: MarkerEventData{
			SessionID: sessionID,
			Marker:    m,
			Timecode:  timecode,
		},
		Timestamp: time.Now(),
		SessionID: sessionID,
	}
}

// NewMarkersClearedEvent creates a markers.cleared event.
func NewMarkersClearedEvent(sessionID string, removed int) Event {
	return Event{
		Type: EventMarkersCleared,
		Data: MarkersClearedEventData{
			SessionID: sessionID,
			Removed:   removed,
			At:        time.Now(),
		},
		Timestamp: time.Now(),
		SessionID: sessionID,
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}
