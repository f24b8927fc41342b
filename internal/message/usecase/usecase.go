package usecase

import (
	messagedomain "crmhub-backend/internal/message/domain"
	"crmhub-backend/internal/platform"
)

// IngestResult reports what one ingest pass did with a message batch
type IngestResult struct {
	Stored          int      `json:"stored"`
	Duplicates      int      `json:"duplicates"`
	Failures        int      `json:"failures"`
	ThreadsAffected []string `json:"threads_affected"`
}

// ContactResolver maps a message's counterparty to a unified contact id.
// The contact feature provides the implementation; keeping it behind an
// interface lets ingest tests run without the unifier.
type ContactResolver interface {
	ResolveMessageContact(userID string, message platform.Message) (string, error)
}

// MessageUsecase defines the business logic for message ingestion and
// thread consolidation
type MessageUsecase interface {
	// IngestMessages deduplicates, attributes, and stores a batch of
	// platform messages, returning the set of thread keys that changed.
	IngestMessages(userID string, messages []platform.Message) (*IngestResult, error)

	// ListThreads returns the user's conversation threads, most recently
	// active first, with cached summaries attached where present. A
	// non-empty contactID restricts the list to that contact's threads.
	ListThreads(userID, contactID string) ([]*messagedomain.ConversationThread, error)

	// GetThread returns one thread and its newest limit messages in
	// chronological order.
	GetThread(userID, threadKey string, limit int) (*messagedomain.ConversationThread, []*messagedomain.RawMessage, error)

	MarkThreadRead(userID, threadKey string) error

	// SetMessageRead flips the read flag of one stored message
	SetMessageRead(userID, messageID string, read bool) error

	// SetSummaryWorker wires the background worker that refreshes thread
	// summaries after ingest
	SetSummaryWorker(worker *SummaryWorkerService)
}
