package scheduler

import (
	"context"
	"log"
	"time"

	"crmhub-backend/internal/syncstate/repository"
	"crmhub-backend/internal/syncstate/usecase"
)

// SyncSweepScheduler periodically re-syncs platforms whose state has gone
// stale, so users who never hit the sync endpoint still get fresh threads
type SyncSweepScheduler struct {
	syncRepo    repository.SyncStateRepository
	coordinator usecase.SyncCoordinator
	interval    time.Duration
	staleness   time.Duration
	stopChan    chan struct{}
}

// NewSyncSweepScheduler creates a new scheduler
func NewSyncSweepScheduler(
	syncRepo repository.SyncStateRepository,
	coordinator usecase.SyncCoordinator,
	interval time.Duration,
	staleness time.Duration,
) *SyncSweepScheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SyncSweepScheduler{
		syncRepo:    syncRepo,
		coordinator: coordinator,
		interval:    interval,
		staleness:   staleness,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the scheduler loop
func (s *SyncSweepScheduler) Start() {
	log.Printf("[SyncSweep] Starting sync sweep scheduler (interval: %s)", s.interval)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				log.Println("[SyncSweep] Scheduler stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler
func (s *SyncSweepScheduler) Stop() {
	close(s.stopChan)
}

// sweep re-syncs every stale (user, platform). The coordinator's lock makes
// a sweep racing a user-triggered sync harmless.
func (s *SyncSweepScheduler) sweep() {
	stale, err := s.syncRepo.ListStale(s.staleness)
	if err != nil {
		log.Printf("[SyncSweep] Error listing stale states: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	log.Printf("[SyncSweep] Found %d stale platform states", len(stale))
	for _, state := range stale {
		if _, err := s.coordinator.RequestSync(context.Background(), state.UserID, state.Platform, false); err != nil {
			log.Printf("[SyncSweep] Sync %s/%s: %v", state.UserID, state.Platform, err)
		}
	}
}
