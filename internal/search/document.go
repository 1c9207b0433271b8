// Package search provides full-text search over marker comments using Bleve.
// The index is memory-only and rebuilt from live sessions; it never outlives
// the process.
package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/framemarkapp/framemark-server/internal/marker"
)

// MarkerDocument is the Bleve document for a single marker.
// The comment is the only full-text field; everything else exists for
// filtering and for rendering hits without a round trip to the session.
type MarkerDocument struct {
	ID          string `json:"id"`           // "<session_id>:<marker_id>"
	SessionID   string `json:"session_id"`   // exact-match filter
	SessionName string `json:"session_name"` // for display in cross-session hits
	MarkerID    int64  `json:"marker_id"`
	Comment     string `json:"comment"`
	Timecode    string `json:"timecode"`
	FrameIndex  int64  `json:"frame_index"`
}

// DocID builds the index key for a marker.
func DocID(sessionID string, markerID int64) string {
	return sessionID + ":" + strconv.FormatInt(markerID, 10)
}

// SplitDocID recovers the session and marker ids from an index key.
func SplitDocID(docID string) (sessionID string, markerID int64, err error) {
	i := strings.LastIndex(docID, ":")
	if i < 0 {
		return "", 0, fmt.Errorf("malformed doc id %q", docID)
	}
	markerID, err = strconv.ParseInt(docID[i+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed doc id %q: %w", docID, err)
	}
	return docID[:i], markerID, nil
}

// NewMarkerDocument builds the index document for a marker. The timecode is
// rendered by the caller so the document matches what the session displays.
func NewMarkerDocument(sessionID, sessionName string, m marker.Marker, timecode string) MarkerDocument {
	return MarkerDocument{
		ID:          DocID(sessionID, m.ID),
		SessionID:   sessionID,
		SessionName: sessionName,
		MarkerID:    m.ID,
		Comment:     m.Comment,
		Timecode:    timecode,
		FrameIndex:  m.FrameIndex,
	}
}
