package domain

import "time"

// Thread summary lifecycle status
const (
	ThreadStatusActive        = "active"
	ThreadStatusWaitingOnMe   = "waiting_on_me"
	ThreadStatusWaitingOnThem = "waiting_on_them"
	ThreadStatusResolved      = "resolved"
)

// ThreadSummary stores the AI analysis of one conversation thread. One row
// per (user_id, thread_key); regeneration overwrites in place. MessageCount
// and LastMessageAt record what the summary was computed over, so staleness
// is detectable without reparsing the thread.
type ThreadSummary struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	UserID           string    `json:"user_id" gorm:"uniqueIndex:idx_user_thread_unique;not null"`
	ThreadKey        string    `json:"thread_key" gorm:"uniqueIndex:idx_user_thread_unique;not null"`
	ContactID        string    `json:"contact_id" gorm:"index"`
	Platform         string    `json:"platform"`
	Summary          string    `json:"summary" gorm:"type:text"`
	Topics           []string  `json:"topics" gorm:"serializer:json"`
	ActionItems      []string  `json:"action_items" gorm:"serializer:json"`
	Urgency          string    `json:"urgency"`
	Status           string    `json:"status"`
	UnrespondedCount int       `json:"unresponded_count"`
	MessageCount     int64     `json:"message_count"`
	LastMessageAt    time.Time `json:"last_message_at"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (ThreadSummary) TableName() string {
	return "thread_summaries"
}

// StaleAgainst reports whether the summary no longer reflects the thread
func (s *ThreadSummary) StaleAgainst(messageCount int64, lastMessageAt time.Time) bool {
	return s.MessageCount != messageCount || s.LastMessageAt.Before(lastMessageAt)
}
