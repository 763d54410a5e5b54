package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/hollybot/dashboard/internal/dashboard/store"
)

// HousekeepingService periodically sweeps session records that have not been
// touched within the session lifetime, preventing unbounded growth of the
// store. Staleness is judged on updated_at, never on the Discord token
// expiry: an expired access token is still refreshable and must survive.
type HousekeepingService struct {
	Sessions   store.Sessions
	Logger     *slog.Logger
	Interval   time.Duration
	SessionTTL time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. If interval is 0 or
// negative, defaults to 1 hour.
func NewHousekeepingService(sessions store.Sessions, logger *slog.Logger, interval, sessionTTL time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Sessions:   sessions,
		Logger:     logger,
		Interval:   interval,
		SessionTTL: sessionTTL,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop() to shut it
// down gracefully.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the background worker, blocking until any in-progress
// sweep has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run a sweep immediately on startup
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) sweep() {
	ctx := context.Background()

	cutoff := time.Now().Add(-s.SessionTTL)
	removed, err := s.Sessions.DeleteStale(ctx, cutoff)
	if err != nil {
		s.Logger.Error("failed to sweep stale sessions", "error", err)
		return
	}
	if removed > 0 {
		s.Logger.Info("swept stale sessions", "removed", removed)
	}
}
