package providers

import (
	"sync"
	"time"

	"github.com/samber/do/v2"

	"github.com/framemarkapp/framemark-server/internal/config"
	"github.com/framemarkapp/framemark-server/internal/engine"
	"github.com/framemarkapp/framemark-server/internal/logger"
	"github.com/framemarkapp/framemark-server/internal/sse"
	"github.com/framemarkapp/framemark-server/internal/timecode"
)

// RegistryHandle wraps the engine registry with shutdown capability.
type RegistryHandle struct {
	*engine.Registry
}

// Shutdown implements do.Shutdownable.
func (h *RegistryHandle) Shutdown() error {
	h.Registry.Shutdown()
	return nil
}

// positionEmitter throttles per-session position events so a 40ms tick
// does not flood SSE clients.
type positionEmitter struct {
	manager  *sse.Manager
	throttle time.Duration

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// forget drops throttle state for a session that no longer exists.
func (e *positionEmitter) forget(id string) {
	e.mu.Lock()
	delete(e.lastSent, id)
	e.mu.Unlock()
}

func (e *positionEmitter) emit(id string, snap timecode.Snapshot) {
	e.mu.Lock()
	last := e.lastSent[id]
	now := time.Now()
	if now.Sub(last) < e.throttle {
		e.mu.Unlock()
		return
	}
	e.lastSent[id] = now
	e.mu.Unlock()

	e.manager.Emit(sse.NewTransportEvent(
		sse.EventTransportPosition,
		id,
		snap.FrameIndex,
		snap.Timecode,
		snap.FPS,
		snap.Running,
	))
}

// ProvideRegistry provides the session engine registry. Each engine ticks on
// the shared scheduler and feeds the throttled SSE position stream.
func ProvideRegistry(i do.Injector) (*RegistryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	emitter := &positionEmitter{
		manager:  sseHandle.Manager,
		throttle: cfg.Engine.PositionThrottle,
		lastSent: make(map[string]time.Time),
	}

	registry := engine.NewRegistry(engine.RegistryOptions{
		Scheduler: engine.TickerScheduler{Interval: cfg.Engine.TickInterval},
		OnTick:    emitter.emit,
		OnRemove:  emitter.forget,
		Logger:    log.Logger,
	})

	log.Info("Engine registry initialized",
		"tick_interval", cfg.Engine.TickInterval,
		"position_throttle", cfg.Engine.PositionThrottle,
	)

	return &RegistryHandle{Registry: registry}, nil
}
