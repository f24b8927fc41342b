package domain

import "time"

// PlatformIdentity binds a UnifiedContact to one platform's native contact id.
// (platform, native_id) is globally unique: re-observing the pair must resolve
// to the same UnifiedContact, never create a second one.
type PlatformIdentity struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	ContactID string    `json:"contact_id" gorm:"index;not null"`
	Platform  string    `json:"platform" gorm:"uniqueIndex:idx_platform_native;not null"`
	NativeID  string    `json:"native_id" gorm:"uniqueIndex:idx_platform_native;not null"`
	RawName   string    `json:"raw_name"`
	RawEmail  string    `json:"raw_email"`
	RawPhone  string    `json:"raw_phone"`
	RawHandle string    `json:"raw_handle"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PlatformIdentity) TableName() string {
	return "platform_identities"
}

// OwnerIdentity records the user's own identity on a platform (their native
// user id and address). The message pipeline uses it to resolve direction and
// the push listener uses it to map webhook payloads back to a user.
type OwnerIdentity struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"uniqueIndex:idx_owner_platform;not null"`
	Platform     string    `json:"platform" gorm:"uniqueIndex:idx_owner_platform;not null"`
	NativeUserID string    `json:"native_user_id"`
	Email        string    `json:"email" gorm:"index"`
	DisplayName  string    `json:"display_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (OwnerIdentity) TableName() string {
	return "owner_identities"
}
