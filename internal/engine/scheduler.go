package engine

import (
	"sync"
	"time"
)

// Scheduler drives the repeating tick callback that advances a playing
// clock. It is injected so tests can step time deterministically instead
// of racing a real ticker.
type Scheduler interface {
	// ScheduleRepeating invokes fn periodically with the current time until
	// the returned cancel function is called. Cancel is idempotent.
	ScheduleRepeating(fn func(now time.Time)) (cancel func())
}

// TickerScheduler runs callbacks off a time.Ticker at a fixed interval.
type TickerScheduler struct {
	Interval time.Duration
}

// DefaultTickInterval approximates one render frame at typical rates.
const DefaultTickInterval = 40 * time.Millisecond

// ScheduleRepeating starts a goroutine that calls fn on every ticker fire
// until cancelled.
func (s TickerScheduler) ScheduleRepeating(fn func(now time.Time)) func() {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultTickInterval
	}

	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				fn(now)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
