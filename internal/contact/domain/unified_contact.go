package domain

import "time"

// UnifiedContact is the single logical person record a user sees, merged from
// one or more platform-specific contact records. Owned exclusively by one
// user, never shared.
type UnifiedContact struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index;not null"`
	FullName  string    `json:"full_name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	PhotoURL  *string   `json:"photo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UnifiedContact) TableName() string {
	return "unified_contacts"
}
