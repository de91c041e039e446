package background

import (
	"context"
	"log/slog"
	"time"
)

// SessionSweeper is the store surface the sweeper needs.
type SessionSweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// SweepManager periodically deletes expired refresh sessions. Expired
// sessions are already unusable; the sweep only reclaims storage.
type SweepManager struct {
	sessions SessionSweeper
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewSweepManager creates a new sweep manager
func NewSweepManager(sessions SessionSweeper, logger *slog.Logger, interval time.Duration) *SweepManager {
	return &SweepManager{
		sessions: sessions,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep. Blocks until Stop is called or the
// context is cancelled.
func (sm *SweepManager) Start(ctx context.Context) {
	ticker := time.NewTicker(sm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	sm.runSweep(ctx)

	for {
		select {
		case <-ticker.C:
			sm.runSweep(ctx)
		case <-sm.stopCh:
			sm.logger.Info("session sweeper stopped")
			return
		case <-ctx.Done():
			sm.logger.Info("session sweeper context cancelled")
			return
		}
	}
}

func (sm *SweepManager) runSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	deleted, err := sm.sessions.SweepExpired(sweepCtx, time.Now())
	if err != nil {
		sm.logger.Error("failed to sweep expired sessions", slog.Any("error", err))
		return
	}

	if deleted > 0 {
		sm.logger.Info("expired sessions swept", slog.Int64("rows_deleted", deleted))
	}
}

// Stop signals the sweeper to stop
func (sm *SweepManager) Stop() {
	close(sm.stopCh)
}
