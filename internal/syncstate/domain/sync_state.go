package domain

import "time"

// Outcome of one sync request
const (
	SyncStatusCompleted = "completed"
	SyncStatusSkipped   = "skipped"
	SyncStatusFailed    = "failed"
	SyncStatusUsedCache = "used_cache"
)

// SyncState tracks one user's sync progress on one platform. The row doubles
// as the single-flight lock: Syncing plus LockAcquiredAt form a stealable
// lease, so a crashed sync never wedges the platform.
type SyncState struct {
	ID       string `json:"id" gorm:"primaryKey"`
	UserID   string `json:"user_id" gorm:"uniqueIndex:idx_user_platform;not null"`
	Platform string `json:"platform" gorm:"uniqueIndex:idx_user_platform;not null"`

	Syncing        bool       `json:"syncing" gorm:"default:false"`
	LockAcquiredAt *time.Time `json:"lock_acquired_at"`

	LastSyncAt *time.Time `json:"last_sync_at"`
	// HighWatermark is the newest message timestamp stored so far, used as
	// the Since bound of the next incremental fetch.
	HighWatermark *time.Time `json:"high_watermark"`

	LastStatus    string `json:"last_status"`
	LastError     string `json:"last_error"`
	TotalContacts int64  `json:"total_contacts"`
	TotalMessages int64  `json:"total_messages"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (SyncState) TableName() string {
	return "sync_states"
}

// FreshWithin reports whether the last sync attempt is newer than the
// staleness window
func (s *SyncState) FreshWithin(window time.Duration) bool {
	return s.LastSyncAt != nil && time.Since(*s.LastSyncAt) < window
}
