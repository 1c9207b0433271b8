package timecode

import (
	"math"
	"time"
)

// WallClock supplies the current time. It is injected so the frame
// arithmetic can be exercised against a manual time source in tests.
type WallClock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a WallClock backed by time.Now.
func SystemClock() WallClock { return systemClock{} }

// Snapshot is a read-only view of the clock for API responses and events.
type Snapshot struct {
	FPS        int    `json:"fps"`
	FrameIndex int64  `json:"frame_index"`
	Running    bool   `json:"running"`
	Timecode   string `json:"timecode"`
}

// Clock tracks the frame position of one session. While playing, the
// position is recomputed from the wall-clock time elapsed since the last
// baseline rather than accumulated per tick, so delayed or dropped ticks
// cannot introduce drift.
//
// Clock is not safe for concurrent use; callers serialize access.
type Clock struct {
	wall       WallClock
	fps        int
	frameIndex int64
	running    bool
	baseFrame  int64
	baseWall   time.Time
}

// NewClock creates a stopped clock at frame 0. A nil wall clock falls back
// to the system clock; fps below 1 falls back to DefaultFPS.
func NewClock(fps int, wall WallClock) *Clock {
	if fps < 1 {
		fps = DefaultFPS
	}
	if wall == nil {
		wall = SystemClock()
	}
	return &Clock{wall: wall, fps: fps}
}

// FPS returns the current frame rate.
func (c *Clock) FPS() int { return c.fps }

// FrameIndex returns the last computed frame position.
func (c *Clock) FrameIndex() int64 { return c.frameIndex }

// Running reports whether the clock is playing.
func (c *Clock) Running() bool { return c.running }

// Snapshot captures the current state, including the rendered timecode.
func (c *Clock) Snapshot() Snapshot {
	return Snapshot{
		FPS:        c.fps,
		FrameIndex: c.frameIndex,
		Running:    c.running,
		Timecode:   Encode(c.frameIndex, c.fps),
	}
}

// Play baselines the clock at the current position and enters the playing
// state. Playing again while already playing just re-baselines.
func (c *Clock) Play() {
	c.baseFrame = c.frameIndex
	c.baseWall = c.wall.Now()
	c.running = true
}

// Stop freezes the frame position at its last computed value.
func (c *Clock) Stop() {
	c.running = false
}

// Tick recomputes the frame position from elapsed wall-clock time. Ticks
// while stopped are ignored.
func (c *Clock) Tick(now time.Time) {
	if !c.running {
		return
	}
	elapsedMs := now.Sub(c.baseWall).Milliseconds()
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	c.frameIndex = c.baseFrame + elapsedMs*int64(c.fps)/1000
}

// Reset forces the stopped state and moves the position to startFrame.
// The marker ledger is deliberately untouched; clearing it is a separate
// operation the caller combines explicitly when wanted.
func (c *Clock) Reset(startFrame int64) {
	if startFrame < 0 {
		startFrame = 0
	}
	c.running = false
	c.frameIndex = startFrame
}

// AdjustBySeconds nudges the position by a signed number of seconds,
// clamping at frame 0. While playing, the baseline moves with the position
// so subsequent ticks continue from the new frame.
func (c *Clock) AdjustBySeconds(deltaSeconds int) {
	next := c.frameIndex + int64(deltaSeconds)*int64(c.fps)
	if next < 0 {
		next = 0
	}
	c.frameIndex = next
	if c.running {
		c.rebase()
	}
}

// ChangeFPS switches the frame rate while preserving the wall-clock
// position: the current frame converts to seconds under the old rate and
// back to frames under the new one, rounded. Markers keep the raw frame
// counts taken at capture time and are not renormalized; their displayed
// timecodes shift with the session's current rate.
func (c *Clock) ChangeFPS(newFPS int) {
	if newFPS < 1 || newFPS == c.fps {
		return
	}
	seconds := float64(c.frameIndex) / float64(c.fps)
	c.fps = newFPS
	c.frameIndex = int64(math.Round(seconds * float64(newFPS)))
	if c.running {
		c.rebase()
	}
}

func (c *Clock) rebase() {
	c.baseFrame = c.frameIndex
	c.baseWall = c.wall.Now()
}
