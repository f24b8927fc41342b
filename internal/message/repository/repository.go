package repository

import (
	"time"

	messagedomain "crmhub-backend/internal/message/domain"
)

// ThreadStats are the aggregates of one thread's stored messages
type ThreadStats struct {
	ThreadKey     string
	ContactID     string
	Platform      string
	Channel       string
	Subject       string
	MessageCount  int64
	UnreadCount   int64
	LastMessageAt time.Time
}

// MessageRepository defines storage operations for deduplicated raw messages
type MessageRepository interface {
	// CreateMessage returns ErrMessageExists when (user_id, platform,
	// native_message_id) is already stored.
	CreateMessage(message *messagedomain.RawMessage) error
	GetMessage(userID, platform, nativeMessageID string) (*messagedomain.RawMessage, error)

	// ListThreadMessages returns the newest limit messages of a thread in
	// chronological order. limit <= 0 means no cap.
	ListThreadMessages(userID, threadKey string, limit int) ([]*messagedomain.RawMessage, error)

	// ListThreadStats aggregates the user's messages by thread key, most
	// recently active thread first.
	ListThreadStats(userID string) ([]*ThreadStats, error)
	GetThreadStats(userID, threadKey string) (*ThreadStats, error)

	MarkThreadRead(userID, threadKey string) error
	// SetMessageRead updates one message's read flag, the only permitted
	// mutation of a stored message.
	SetMessageRead(userID, messageID string, read bool) error
}

// ThreadSummaryRepository stores cached AI thread analyses
type ThreadSummaryRepository interface {
	GetSummary(userID, threadKey string) (*messagedomain.ThreadSummary, error)
	// GetSummaries returns the stored summaries for the given thread keys,
	// keyed by thread key.
	GetSummaries(userID string, threadKeys []string) (map[string]*messagedomain.ThreadSummary, error)
	// UpsertSummary overwrites the row for (user_id, thread_key) in place.
	UpsertSummary(summary *messagedomain.ThreadSummary) error
	DeleteSummary(userID, threadKey string) error
}
