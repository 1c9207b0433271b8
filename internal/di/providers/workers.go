package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/framemarkapp/framemark-server/internal/config"
	"github.com/framemarkapp/framemark-server/internal/logger"
	"github.com/framemarkapp/framemark-server/internal/service"
	"github.com/framemarkapp/framemark-server/internal/store"
)

// cleanupInterval is how often idle sessions and expired refresh tokens are
// swept.
const cleanupInterval = 1 * time.Hour

// SessionCleanupJob periodically reaps idle review sessions and expired
// refresh sessions.
type SessionCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob starts the background cleanup loop.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	cfg := do.MustInvoke[*config.Config](i)
	sessions := do.MustInvoke[*service.SessionService](i)
	st := do.MustInvoke[*store.Store](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	cleanup := func() {
		reaped := sessions.ReapIdleSessions(ctx, cfg.Engine.SessionIdleTTL)
		expired := st.DeleteExpiredSessions(ctx, time.Now())
		if reaped > 0 || expired > 0 {
			log.Info("Cleanup pass complete",
				"idle_sessions_reaped", reaped,
				"refresh_sessions_expired", expired,
			)
		}
	}

	go func() {
		// Sweep once at startup, then hourly.
		cleanup()

		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Session cleanup job started",
		"interval", cleanupInterval,
		"session_idle_ttl", cfg.Engine.SessionIdleTTL,
	)

	return &SessionCleanupJob{cancel: cancel}, nil
}
