package usecase

import (
	"context"

	syncdomain "crmhub-backend/internal/syncstate/domain"
)

// SyncResult reports what one sync request did on one platform
type SyncResult struct {
	Platform          string `json:"platform"`
	Status            string `json:"status"`
	ContactsCreated   int    `json:"contacts_created"`
	ContactsAttached  int    `json:"contacts_attached"`
	ContactsFiltered  int    `json:"contacts_filtered"`
	NeedsReview       int    `json:"needs_review"`
	MessagesStored    int    `json:"messages_stored"`
	MessagesDuplicate int    `json:"messages_duplicate"`
	Error             string `json:"error,omitempty"`
}

// SyncCoordinator serializes sync work per (user, platform) and decides when
// cached state is fresh enough to skip the platform entirely
type SyncCoordinator interface {
	// RequestSync runs one sync for the platform. Exactly one sync runs per
	// (user, platform) at a time; a concurrent request is reported as
	// skipped, not queued. force bypasses the staleness check but never the
	// lock.
	RequestSync(ctx context.Context, userID, platformName string, force bool) (*SyncResult, error)

	// SyncAll runs RequestSync for every configured platform. One platform
	// failing does not stop the others.
	SyncAll(ctx context.Context, userID string, force bool) ([]*SyncResult, error)

	GetStatus(userID string) ([]*syncdomain.SyncState, error)
}
