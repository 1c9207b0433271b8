// Package marker holds the ordered annotation ledger for a session.
package marker

import "sort"

// Marker is a frame-stamped annotation. IDs are assigned by the ledger,
// strictly increasing for the ledger's lifetime, and never reused even
// after a clear. The comment is the only mutable field.
type Marker struct {
	ID         int64  `json:"id"`
	FrameIndex int64  `json:"frame_index"`
	Comment    string `json:"comment"`
}

// SortMode selects the ordering returned by Ledger.List.
type SortMode string

const (
	// SortCreated returns markers in insertion order.
	SortCreated SortMode = "created"
	// SortTimecode returns markers sorted ascending by frame index; ties
	// keep insertion order. Export numbering depends on that stability.
	SortTimecode SortMode = "timecode"
)

// Valid reports whether m is a recognized sort mode.
func (m SortMode) Valid() bool {
	return m == SortCreated || m == SortTimecode
}

// Ledger is the ordered marker store for one session. The next-id counter
// survives Clear. Ledger is not safe for concurrent use; callers serialize.
type Ledger struct {
	markers []Marker
	nextID  int64
}

// NewLedger creates an empty ledger. The first captured marker gets id 1.
func NewLedger() *Ledger {
	return &Ledger{nextID: 1}
}

// Capture appends a marker at the given frame with an empty comment and
// returns it. Negative frame indexes clamp to zero.
func (l *Ledger) Capture(frameIndex int64) Marker {
	if frameIndex < 0 {
		frameIndex = 0
	}
	m := Marker{ID: l.nextID, FrameIndex: frameIndex}
	l.nextID++
	l.markers = append(l.markers, m)
	return m
}

// EditComment replaces the comment on the marker with the given id and
// returns the updated marker. The second return is false when no marker
// has that id.
func (l *Ledger) EditComment(id int64, text string) (Marker, bool) {
	for i := range l.markers {
		if l.markers[i].ID == id {
			l.markers[i].Comment = text
			return l.markers[i], true
		}
	}
	return Marker{}, false
}

// Get returns the marker with the given id.
func (l *Ledger) Get(id int64) (Marker, bool) {
	for _, m := range l.markers {
		if m.ID == id {
			return m, true
		}
	}
	return Marker{}, false
}

// List returns a copy of the markers in the requested order. Unrecognized
// modes fall back to insertion order.
func (l *Ledger) List(mode SortMode) []Marker {
	out := make([]Marker, len(l.markers))
	copy(out, l.markers)
	if mode == SortTimecode {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].FrameIndex < out[j].FrameIndex
		})
	}
	return out
}

// Clear removes all markers and returns how many were removed. The id
// counter is left alone so ids are never reused.
func (l *Ledger) Clear() int {
	n := len(l.markers)
	l.markers = nil
	return n
}

// Len returns the number of markers currently held.
func (l *Ledger) Len() int {
	return len(l.markers)
}
