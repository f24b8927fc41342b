package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	syncdomain "crmhub-backend/internal/syncstate/domain"
)

// syncStateRepository implements SyncStateRepository on GORM
type syncStateRepository struct {
	db *gorm.DB
}

// NewSyncStateRepository creates a new instance of syncStateRepository
func NewSyncStateRepository(db *gorm.DB) SyncStateRepository {
	return &syncStateRepository{db: db}
}

func (r *syncStateRepository) GetOrCreate(userID, platform string) (*syncdomain.SyncState, error) {
	state, err := r.Get(userID, platform)
	if err != nil {
		return nil, err
	}
	if state != nil {
		return state, nil
	}

	state = &syncdomain.SyncState{
		ID:        uuid.New().String(),
		UserID:    userID,
		Platform:  platform,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := r.db.Create(state).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Raced another GetOrCreate; the winner's row is ours too
			return r.Get(userID, platform)
		}
		return nil, err
	}
	return state, nil
}

func (r *syncStateRepository) Get(userID, platform string) (*syncdomain.SyncState, error) {
	var state syncdomain.SyncState
	err := r.db.Where("user_id = ? AND platform = ?", userID, platform).First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

func (r *syncStateRepository) ListByUser(userID string) ([]*syncdomain.SyncState, error) {
	var states []*syncdomain.SyncState
	err := r.db.Where("user_id = ?", userID).Order("platform ASC").Find(&states).Error
	return states, err
}

func (r *syncStateRepository) ListStale(window time.Duration) ([]*syncdomain.SyncState, error) {
	var states []*syncdomain.SyncState
	err := r.db.Where("last_sync_at IS NULL OR last_sync_at < ?", time.Now().Add(-window)).
		Order("user_id ASC, platform ASC").
		Find(&states).Error
	return states, err
}

func (r *syncStateRepository) AcquireLock(userID, platform string, lease time.Duration) (bool, error) {
	now := time.Now()
	// Single conditional UPDATE: the row-level atomicity of the database is
	// the mutual exclusion. An expired lease matches the condition and is
	// stolen in the same statement.
	result := r.db.Model(&syncdomain.SyncState{}).
		Where("user_id = ? AND platform = ? AND (syncing = false OR lock_acquired_at IS NULL OR lock_acquired_at < ?)",
			userID, platform, now.Add(-lease)).
		Updates(map[string]interface{}{
			"syncing":          true,
			"lock_acquired_at": now,
			"updated_at":       now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *syncStateRepository) ReleaseLock(userID, platform string) error {
	return r.db.Model(&syncdomain.SyncState{}).
		Where("user_id = ? AND platform = ?", userID, platform).
		Updates(map[string]interface{}{
			"syncing":          false,
			"lock_acquired_at": nil,
			"updated_at":       time.Now(),
		}).Error
}

func (r *syncStateRepository) UpdateAfterSync(state *syncdomain.SyncState) error {
	state.UpdatedAt = time.Now()
	return r.db.Model(&syncdomain.SyncState{}).
		Where("user_id = ? AND platform = ?", state.UserID, state.Platform).
		Updates(map[string]interface{}{
			"last_sync_at":   state.LastSyncAt,
			"high_watermark": state.HighWatermark,
			"last_status":    state.LastStatus,
			"last_error":     state.LastError,
			"total_contacts": state.TotalContacts,
			"total_messages": state.TotalMessages,
			"updated_at":     state.UpdatedAt,
		}).Error
}
