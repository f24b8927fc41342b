package domain

import "time"

// ConversationThread is a derived view of one thread: the stored messages
// grouped by thread key plus the cached summary, if one exists. It is never
// persisted as its own table.
type ConversationThread struct {
	ThreadKey     string         `json:"thread_key"`
	ContactID     string         `json:"contact_id"`
	Platform      string         `json:"platform"`
	Channel       string         `json:"channel,omitempty"`
	Subject       string         `json:"subject,omitempty"`
	MessageCount  int64          `json:"message_count"`
	UnreadCount   int64          `json:"unread_count"`
	LastMessageAt time.Time      `json:"last_message_at"`
	LastMessage   *RawMessage    `json:"last_message,omitempty"`
	Summary       *ThreadSummary `json:"summary,omitempty"`
}
