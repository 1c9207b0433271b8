// Package engine bundles a timecode clock and a marker ledger into one
// review-session engine, and keeps the registry of live engines.
package engine

import (
	"sync"
	"time"

	"github.com/framemarkapp/framemark-server/internal/marker"
	"github.com/framemarkapp/framemark-server/internal/timecode"
)

// Engine is the per-session pairing of one clock and one ledger. The HTTP
// surface is concurrent, so every operation serializes through the engine
// mutex; the clock and ledger themselves stay lock-free.
type Engine struct {
	id        string
	name      string
	createdAt time.Time

	mu         sync.Mutex
	clock      *timecode.Clock
	ledger     *marker.Ledger
	scheduler  Scheduler
	wall       timecode.WallClock
	cancelTick func()
	lastActive time.Time

	// onTick receives a snapshot after every tick while playing. Set once
	// at construction; invoked outside the engine mutex.
	onTick func(id string, snap timecode.Snapshot)
}

// Options configures a new engine.
type Options struct {
	ID        string
	Name      string
	FPS       int
	Scheduler Scheduler
	Wall      timecode.WallClock

	// OnTick, when set, is called with the engine id and a fresh snapshot
	// after every tick while the clock is playing.
	OnTick func(id string, snap timecode.Snapshot)
}

// New creates a stopped engine with an empty ledger.
func New(opts Options) *Engine {
	wall := opts.Wall
	if wall == nil {
		wall = timecode.SystemClock()
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = TickerScheduler{}
	}
	now := wall.Now()
	return &Engine{
		id:         opts.ID,
		name:       opts.Name,
		createdAt:  now,
		clock:      timecode.NewClock(opts.FPS, wall),
		ledger:     marker.NewLedger(),
		scheduler:  sched,
		wall:       wall,
		lastActive: now,
		onTick:     opts.OnTick,
	}
}

// ID returns the session id.
func (e *Engine) ID() string { return e.id }

// Name returns the session name.
func (e *Engine) Name() string { return e.name }

// CreatedAt returns when the engine was created.
func (e *Engine) CreatedAt() time.Time { return e.createdAt }

// LastActiveAt returns the time of the most recent operation.
func (e *Engine) LastActiveAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastActive
}

func (e *Engine) touch() {
	e.lastActive = e.wall.Now()
}

// Snapshot returns the current clock state.
func (e *Engine) Snapshot() timecode.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.Snapshot()
}

// MarkerCount returns the number of markers in the ledger.
func (e *Engine) MarkerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Len()
}

// Play starts the clock and schedules the repeating tick. Playing while
// already playing re-baselines without stacking a second tick loop.
func (e *Engine) Play() timecode.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clock.Play()
	e.touch()
	if e.cancelTick == nil {
		e.cancelTick = e.scheduler.ScheduleRepeating(e.handleTick)
	}
	return e.clock.Snapshot()
}

// handleTick advances the clock from the scheduler goroutine. The onTick
// callback runs outside the mutex so a slow consumer can't stall capture.
func (e *Engine) handleTick(now time.Time) {
	e.mu.Lock()
	if !e.clock.Running() {
		e.mu.Unlock()
		return
	}
	e.clock.Tick(now)
	snap := e.clock.Snapshot()
	e.mu.Unlock()

	if e.onTick != nil {
		e.onTick(e.id, snap)
	}
}

// Stop recomputes the position one last time, freezes it, and cancels the
// tick loop.
func (e *Engine) Stop() timecode.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.clock.Running() {
		e.clock.Tick(e.wall.Now())
	}
	e.clock.Stop()
	e.stopTickLocked()
	e.touch()
	return e.clock.Snapshot()
}

// Reset stops the clock at startFrame. When clearMarkers is true the
// ledger is wiped in the same operation; the two remain independently
// callable and the id counter always survives.
func (e *Engine) Reset(startFrame int64, clearMarkers bool) (timecode.Snapshot, int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clock.Reset(startFrame)
	e.stopTickLocked()
	cleared := 0
	if clearMarkers {
		cleared = e.ledger.Clear()
	}
	e.touch()
	return e.clock.Snapshot(), cleared
}

// AdjustBySeconds seeks by a signed number of seconds.
func (e *Engine) AdjustBySeconds(delta int) timecode.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clock.AdjustBySeconds(delta)
	e.touch()
	return e.clock.Snapshot()
}

// ChangeFPS switches the session frame rate, preserving wall-clock
// position. Captured markers keep their raw frame counts.
func (e *Engine) ChangeFPS(fps int) timecode.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clock.ChangeFPS(fps)
	e.touch()
	return e.clock.Snapshot()
}

// CaptureMarker records a marker at the clock's current frame. A non-empty
// comment is applied in the same operation.
func (e *Engine) CaptureMarker(comment string) marker.Marker {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.clock.Running() {
		e.clock.Tick(e.wall.Now())
	}
	m := e.ledger.Capture(e.clock.FrameIndex())
	if comment != "" {
		m, _ = e.ledger.EditComment(m.ID, comment)
	}
	e.touch()
	return m
}

// CaptureMarkerAt records a marker at an explicit frame index.
func (e *Engine) CaptureMarkerAt(frameIndex int64, comment string) marker.Marker {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.ledger.Capture(frameIndex)
	if comment != "" {
		m, _ = e.ledger.EditComment(m.ID, comment)
	}
	e.touch()
	return m
}

// EditComment updates a marker's comment. The second return is false when
// the id is unknown.
func (e *Engine) EditComment(id int64, text string) (marker.Marker, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.ledger.EditComment(id, text)
	if ok {
		e.touch()
	}
	return m, ok
}

// Markers returns the ledger contents in the requested order.
func (e *Engine) Markers(mode marker.SortMode) []marker.Marker {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.List(mode)
}

// ClearMarkers wipes the ledger and returns how many markers were removed.
func (e *Engine) ClearMarkers() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := e.ledger.Clear()
	e.touch()
	return n
}

// Close cancels any running tick loop. The engine stays usable but
// stopped; Registry.Delete calls this before dropping the engine.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clock.Stop()
	e.stopTickLocked()
}

func (e *Engine) stopTickLocked() {
	if e.cancelTick != nil {
		e.cancelTick()
		e.cancelTick = nil
	}
}
