package repository

import (
	"time"

	syncdomain "crmhub-backend/internal/syncstate/domain"
)

// SyncStateRepository defines storage operations for per-platform sync state
// and its embedded single-flight lock
type SyncStateRepository interface {
	GetOrCreate(userID, platform string) (*syncdomain.SyncState, error)
	Get(userID, platform string) (*syncdomain.SyncState, error)
	ListByUser(userID string) ([]*syncdomain.SyncState, error)
	// ListStale returns the states whose last sync attempt is older than
	// the window, or that never synced. The background sweep feeds on it.
	ListStale(window time.Duration) ([]*syncdomain.SyncState, error)

	// AcquireLock atomically claims the sync lock for (user, platform).
	// A lock held longer than lease is considered abandoned and stolen.
	// Returns false when another sync holds a live lock.
	AcquireLock(userID, platform string, lease time.Duration) (bool, error)
	ReleaseLock(userID, platform string) error

	// UpdateAfterSync persists the post-sync fields. It runs unconditionally:
	// even when the lease was stolen mid-sync, the slower sync's aggregates
	// still land (message storage itself is idempotent).
	UpdateAfterSync(state *syncdomain.SyncState) error
}
