package dto

import (
	messagedomain "crmhub-backend/internal/message/domain"
)

// ThreadsResponse wraps the thread list
type ThreadsResponse struct {
	Threads []*messagedomain.ConversationThread `json:"threads"`
	Total   int                                 `json:"total"`
}

// ThreadDetailResponse is one thread with its message window
type ThreadDetailResponse struct {
	Thread   *messagedomain.ConversationThread `json:"thread"`
	Messages []*messagedomain.RawMessage       `json:"messages"`
}

// IngestRequest is a batch of raw platform messages to ingest
type IngestRequest struct {
	Messages []PlatformMessageRequest `json:"messages" binding:"required"`
}

// PlatformMessageRequest is one raw platform message in an API request
type PlatformMessageRequest struct {
	Platform          string `json:"platform" binding:"required"`
	NativeID          string `json:"native_id" binding:"required"`
	SenderID          string `json:"sender_id"`
	SenderName        string `json:"sender_name"`
	SenderEmail       string `json:"sender_email"`
	CounterpartyID    string `json:"counterparty_id"`
	CounterpartyName  string `json:"counterparty_name"`
	CounterpartyEmail string `json:"counterparty_email"`
	Content           string `json:"content"`
	Timestamp         string `json:"timestamp" binding:"required"` // RFC3339
	Read              bool   `json:"read"`
	ThreadID          string `json:"thread_id"`
	Channel           string `json:"channel"`
	Subject           string `json:"subject"`
}
