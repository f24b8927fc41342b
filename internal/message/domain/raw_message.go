package domain

import "time"

// Message direction relative to the account owner
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// RawMessage is one deduplicated platform message. (user_id, platform,
// native_message_id) is unique: re-ingesting the same platform message is a
// no-op, never a second row.
type RawMessage struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	UserID          string    `json:"user_id" gorm:"uniqueIndex:idx_user_platform_native;not null"`
	Platform        string    `json:"platform" gorm:"uniqueIndex:idx_user_platform_native;not null"`
	NativeMessageID string    `json:"native_message_id" gorm:"uniqueIndex:idx_user_platform_native;not null"`
	ContactID       string    `json:"contact_id" gorm:"index"`
	ThreadKey       string    `json:"thread_key" gorm:"index:idx_user_thread;not null"`
	Direction       string    `json:"direction" gorm:"not null"`
	SenderName      string    `json:"sender_name"`
	Content         string    `json:"content" gorm:"type:text"`
	Channel         string    `json:"channel"`
	Subject         string    `json:"subject"`
	Timestamp       time.Time `json:"timestamp" gorm:"index"`
	Read            bool      `json:"read" gorm:"default:false"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (RawMessage) TableName() string {
	return "raw_messages"
}
