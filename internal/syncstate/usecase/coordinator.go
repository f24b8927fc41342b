package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	contactusecase "crmhub-backend/internal/contact/usecase"
	messageusecase "crmhub-backend/internal/message/usecase"
	"crmhub-backend/internal/platform"
	syncdomain "crmhub-backend/internal/syncstate/domain"
	"crmhub-backend/internal/syncstate/repository"
)

// syncCoordinator implements SyncCoordinator
type syncCoordinator struct {
	registry  *platform.Registry
	syncRepo  repository.SyncStateRepository
	contacts  contactusecase.ContactUsecase
	messages  messageusecase.MessageUsecase
	staleness time.Duration
	lockLease time.Duration
	fetchCap  int
}

// NewSyncCoordinator creates a new instance of syncCoordinator
func NewSyncCoordinator(
	registry *platform.Registry,
	syncRepo repository.SyncStateRepository,
	contacts contactusecase.ContactUsecase,
	messages messageusecase.MessageUsecase,
	staleness time.Duration,
	lockLease time.Duration,
) SyncCoordinator {
	if staleness <= 0 {
		staleness = 30 * time.Minute
	}
	if lockLease <= 0 {
		lockLease = 10 * time.Minute
	}
	return &syncCoordinator{
		registry:  registry,
		syncRepo:  syncRepo,
		contacts:  contacts,
		messages:  messages,
		staleness: staleness,
		lockLease: lockLease,
		fetchCap:  500,
	}
}

func (c *syncCoordinator) RequestSync(ctx context.Context, userID, platformName string, force bool) (*SyncResult, error) {
	adapter := c.registry.Get(platformName)
	if adapter == nil {
		return nil, fmt.Errorf("platform %s not configured", platformName)
	}

	state, err := c.syncRepo.GetOrCreate(userID, platformName)
	if err != nil {
		return nil, err
	}

	// Cache is only trusted on push-capable platforms, where new data
	// arrives as a notification. Poll-only platforms always fetch.
	if !force && adapter.SupportsPush() && state.FreshWithin(c.staleness) {
		return &SyncResult{Platform: platformName, Status: syncdomain.SyncStatusUsedCache}, nil
	}

	acquired, err := c.syncRepo.AcquireLock(userID, platformName, c.lockLease)
	if err != nil {
		return nil, err
	}
	if !acquired {
		log.Printf("[Sync] user=%s platform=%s already syncing, skipped", userID, platformName)
		return &SyncResult{Platform: platformName, Status: syncdomain.SyncStatusSkipped}, nil
	}
	defer func() {
		if err := c.syncRepo.ReleaseLock(userID, platformName); err != nil {
			log.Printf("[Sync] user=%s platform=%s release lock: %v", userID, platformName, err)
		}
	}()

	result := c.runSync(ctx, adapter, userID, state)

	state.LastStatus = result.Status
	state.LastError = result.Error
	// The attempt timestamp advances even on failure so the sweep backs off
	// instead of hammering a broken platform.
	now := time.Now()
	state.LastSyncAt = &now
	if err := c.syncRepo.UpdateAfterSync(state); err != nil {
		log.Printf("[Sync] user=%s platform=%s save state: %v", userID, platformName, err)
	}

	log.Printf("[Sync] user=%s platform=%s status=%s contacts=+%d/+%d messages=+%d dup=%d",
		userID, platformName, result.Status, result.ContactsCreated, result.ContactsAttached,
		result.MessagesStored, result.MessagesDuplicate)
	return result, nil
}

// runSync fetches and ingests under an already-held lock. Partial results
// fetched before a rate limit are committed; the error is recorded so the
// next sweep retries.
func (c *syncCoordinator) runSync(ctx context.Context, adapter platform.Adapter, userID string, state *syncdomain.SyncState) *SyncResult {
	result := &SyncResult{Platform: state.Platform}

	fetched, err := adapter.FetchContacts(ctx, userID)
	if err != nil && !platform.IsRateLimited(err) {
		result.Status = syncdomain.SyncStatusFailed
		result.Error = err.Error()
		if errors.Is(err, platform.ErrAuthExpired) {
			result.Error = platform.ErrAuthExpired.Error()
		}
		return result
	}
	fetchErr := err

	if len(fetched) > 0 {
		batch, berr := c.contacts.UnifyBatch(userID, fetched)
		if berr != nil {
			result.Status = syncdomain.SyncStatusFailed
			result.Error = berr.Error()
			return result
		}
		result.ContactsCreated = batch.Created
		result.ContactsAttached = batch.Attached
		result.ContactsFiltered = len(batch.Filtered)
		result.NeedsReview = len(batch.Review)
		state.TotalContacts += int64(batch.Created)
	}

	opts := platform.FetchOptions{Limit: c.fetchCap}
	if state.HighWatermark != nil {
		opts.Since = *state.HighWatermark
	}
	messages, err := adapter.FetchMessages(ctx, userID, opts)
	if err != nil && !platform.IsRateLimited(err) {
		result.Status = syncdomain.SyncStatusFailed
		result.Error = err.Error()
		return result
	}
	if err != nil {
		fetchErr = err
	}

	if len(messages) > 0 {
		ingest, ierr := c.messages.IngestMessages(userID, messages)
		if ierr != nil {
			result.Status = syncdomain.SyncStatusFailed
			result.Error = ierr.Error()
			return result
		}
		result.MessagesStored = ingest.Stored
		result.MessagesDuplicate = ingest.Duplicates
		state.TotalMessages += int64(ingest.Stored)

		watermark := highWatermark(messages)
		if state.HighWatermark == nil || watermark.After(*state.HighWatermark) {
			state.HighWatermark = &watermark
		}
	}

	if fetchErr != nil {
		// Rate limited mid-fetch: what we got is committed, the sync itself
		// did not complete
		result.Status = syncdomain.SyncStatusFailed
		result.Error = fetchErr.Error()
		return result
	}

	result.Status = syncdomain.SyncStatusCompleted
	return result
}

func (c *syncCoordinator) SyncAll(ctx context.Context, userID string, force bool) ([]*SyncResult, error) {
	platforms := c.registry.Platforms()
	sort.Strings(platforms)

	results := make([]*SyncResult, 0, len(platforms))
	for _, name := range platforms {
		result, err := c.RequestSync(ctx, userID, name, force)
		if err != nil {
			result = &SyncResult{Platform: name, Status: syncdomain.SyncStatusFailed, Error: err.Error()}
		}
		results = append(results, result)
	}
	return results, nil
}

func (c *syncCoordinator) GetStatus(userID string) ([]*syncdomain.SyncState, error) {
	return c.syncRepo.ListByUser(userID)
}

func highWatermark(messages []platform.Message) time.Time {
	var max time.Time
	for _, m := range messages {
		if m.Timestamp.After(max) {
			max = m.Timestamp
		}
	}
	return max
}
