package engine

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/framemarkapp/framemark-server/internal/id"
	"github.com/framemarkapp/framemark-server/internal/timecode"
)

// Registry owns every live engine, keyed by session id. Engines never
// outlive the process; persistence across restarts is out of scope.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]*Engine

	scheduler Scheduler
	wall      timecode.WallClock
	onTick    func(id string, snap timecode.Snapshot)
	onRemove  func(id string)
	logger    *slog.Logger
}

// RegistryOptions configures a registry. Scheduler and Wall are shared by
// every engine it creates.
type RegistryOptions struct {
	Scheduler Scheduler
	Wall      timecode.WallClock
	OnTick    func(id string, snap timecode.Snapshot)
	// OnRemove fires after an engine leaves the registry, whether deleted
	// or reaped. Lets tick consumers drop per-session state.
	OnRemove func(id string)
	Logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(opts RegistryOptions) *Registry {
	wall := opts.Wall
	if wall == nil {
		wall = timecode.SystemClock()
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = TickerScheduler{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		engines:   make(map[string]*Engine),
		scheduler: sched,
		wall:      wall,
		onTick:    opts.OnTick,
		onRemove:  opts.OnRemove,
		logger:    logger,
	}
}

// Create builds a new engine and registers it under a fresh session id.
func (r *Registry) Create(name string, fps int) *Engine {
	sessionID := id.MustGenerate("ses")
	eng := New(Options{
		ID:        sessionID,
		Name:      name,
		FPS:       fps,
		Scheduler: r.scheduler,
		Wall:      r.wall,
		OnTick:    r.onTick,
	})

	r.mu.Lock()
	r.engines[sessionID] = eng
	r.mu.Unlock()

	r.logger.Info("session created", "session_id", sessionID, "name", name, "fps", fps)
	return eng
}

// Get returns the engine for the given session id.
func (r *Registry) Get(sessionID string) (*Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	eng, ok := r.engines[sessionID]
	return eng, ok
}

// List returns all engines ordered by creation time.
func (r *Registry) List() []*Engine {
	r.mu.RLock()
	out := make([]*Engine, 0, len(r.engines))
	for _, eng := range r.engines {
		out = append(out, eng)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out
}

// Len returns the number of live engines.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.engines)
}

// Delete closes and removes the engine for the given session id.
func (r *Registry) Delete(sessionID string) bool {
	r.mu.Lock()
	eng, ok := r.engines[sessionID]
	if ok {
		delete(r.engines, sessionID)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	eng.Close()
	r.notifyRemoved(sessionID)
	r.logger.Info("session deleted", "session_id", sessionID)
	return true
}

func (r *Registry) notifyRemoved(sessionID string) {
	if r.onRemove != nil {
		r.onRemove(sessionID)
	}
}

// ReapIdle removes engines whose last activity is older than ttl and
// returns the ids removed. Playing engines count as active.
func (r *Registry) ReapIdle(ttl time.Duration) []string {
	cutoff := r.wall.Now().Add(-ttl)

	r.mu.Lock()
	var idle []*Engine
	for sessionID, eng := range r.engines {
		if eng.Snapshot().Running {
			continue
		}
		if eng.LastActiveAt().Before(cutoff) {
			idle = append(idle, eng)
			delete(r.engines, sessionID)
		}
	}
	r.mu.Unlock()

	removed := make([]string, 0, len(idle))
	for _, eng := range idle {
		eng.Close()
		r.notifyRemoved(eng.ID())
		removed = append(removed, eng.ID())
		r.logger.Info("idle session reaped", "session_id", eng.ID(), "name", eng.Name())
	}
	return removed
}

// Shutdown closes every engine. Used during graceful server shutdown.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	engines := make([]*Engine, 0, len(r.engines))
	for _, eng := range r.engines {
		engines = append(engines, eng)
	}
	r.engines = make(map[string]*Engine)
	r.mu.Unlock()

	for _, eng := range engines {
		eng.Close()
	}
}
