package usecase

import (
	"context"
	"log"
	"sync"

	contactdomain "crmhub-backend/internal/contact/domain"
	contactrepo "crmhub-backend/internal/contact/repository"
	messagedomain "crmhub-backend/internal/message/domain"
	"crmhub-backend/internal/message/repository"
	"crmhub-backend/pkg/ai"
)

// SummaryJob represents a request to refresh one thread's AI summary
type SummaryJob struct {
	UserID    string
	ThreadKey string
}

// ContactNameGetter is the slice of the contact repository the worker needs
type ContactNameGetter interface {
	GetContactByID(id string) (*contactdomain.UnifiedContact, error)
}

// SummaryWorkerService regenerates thread summaries in the background so
// ingest never blocks on the AI provider
type SummaryWorkerService struct {
	messageRepo repository.MessageRepository
	summaryRepo repository.ThreadSummaryRepository
	contactRepo ContactNameGetter
	ownerRepo   contactrepo.OwnerIdentityRepository
	summarizer  ai.Summarizer
	windowCap   int
	jobQueue    chan SummaryJob
	workerWg    sync.WaitGroup
	workerCount int
	started     bool
	mu          sync.Mutex
}

// NewSummaryWorkerService creates a new summary worker service
func NewSummaryWorkerService(
	messageRepo repository.MessageRepository,
	summaryRepo repository.ThreadSummaryRepository,
	contactRepo ContactNameGetter,
	ownerRepo contactrepo.OwnerIdentityRepository,
	windowCap int,
	workerCount int,
) *SummaryWorkerService {
	if workerCount <= 0 {
		workerCount = 3
	}
	if windowCap <= 0 {
		windowCap = 50
	}

	return &SummaryWorkerService{
		messageRepo: messageRepo,
		summaryRepo: summaryRepo,
		contactRepo: contactRepo,
		ownerRepo:   ownerRepo,
		windowCap:   windowCap,
		jobQueue:    make(chan SummaryJob, 500),
		workerCount: workerCount,
	}
}

// SetSummarizer sets the AI provider used for thread analysis
func (s *SummaryWorkerService) SetSummarizer(summarizer ai.Summarizer) {
	s.summarizer = summarizer
}

// Start starts the summary workers
func (s *SummaryWorkerService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}

	for i := 0; i < s.workerCount; i++ {
		s.workerWg.Add(1)
		go s.worker(i)
	}
	s.started = true
	log.Printf("[SummaryWorker] Started %d workers", s.workerCount)
}

// Stop stops all workers gracefully
func (s *SummaryWorkerService) Stop() {
	close(s.jobQueue)
	s.workerWg.Wait()
	log.Println("[SummaryWorker] All workers stopped")
}

// QueueJob adds a job to the queue (non-blocking)
func (s *SummaryWorkerService) QueueJob(job SummaryJob) bool {
	select {
	case s.jobQueue <- job:
		return true
	default:
		return false // Queue full
	}
}

func (s *SummaryWorkerService) worker(id int) {
	defer s.workerWg.Done()

	for job := range s.jobQueue {
		s.ProcessJob(job)
	}

	log.Printf("[SummaryWorker] Worker %d stopped", id)
}

// ProcessJob regenerates the summary for one thread. A failed analysis leaves
// the previously stored summary untouched.
func (s *SummaryWorkerService) ProcessJob(job SummaryJob) {
	if s.summarizer == nil {
		return
	}

	stats, err := s.messageRepo.GetThreadStats(job.UserID, job.ThreadKey)
	if err != nil {
		log.Printf("[SummaryWorker] Error loading thread %s: %v", job.ThreadKey, err)
		return
	}
	if stats == nil || stats.MessageCount == 0 {
		return
	}

	// Skip when the stored summary still covers the thread as-is
	existing, err := s.summaryRepo.GetSummary(job.UserID, job.ThreadKey)
	if err != nil {
		log.Printf("[SummaryWorker] Error checking cache: %v", err)
		return
	}
	if existing != nil && !existing.StaleAgainst(stats.MessageCount, stats.LastMessageAt) {
		return
	}

	messages, err := s.messageRepo.ListThreadMessages(job.UserID, job.ThreadKey, s.windowCap)
	if err != nil {
		log.Printf("[SummaryWorker] Error loading messages for %s: %v", job.ThreadKey, err)
		return
	}
	if len(messages) == 0 {
		return
	}

	threadMessages := make([]ai.ThreadMessage, len(messages))
	for i, m := range messages {
		threadMessages[i] = ai.ThreadMessage{
			Sender:    m.SenderName,
			Direction: m.Direction,
			Content:   m.Content,
			Timestamp: m.Timestamp,
		}
	}

	contactName := "the contact"
	if contact, err := s.contactRepo.GetContactByID(stats.ContactID); err == nil && contact != nil {
		contactName = contact.FullName
	}
	ownerName := "me"
	if owner, err := s.ownerRepo.Get(job.UserID, stats.Platform); err == nil && owner != nil && owner.DisplayName != "" {
		ownerName = owner.DisplayName
	}

	analysis, err := s.summarizer.AnalyzeThread(context.Background(), threadMessages, ownerName, contactName)
	if err != nil {
		log.Printf("[SummaryWorker] AI error for thread %s: %v", job.ThreadKey, err)
		return
	}

	summary := &messagedomain.ThreadSummary{
		UserID:           job.UserID,
		ThreadKey:        job.ThreadKey,
		ContactID:        stats.ContactID,
		Platform:         stats.Platform,
		Summary:          analysis.Summary,
		Topics:           analysis.Topics,
		ActionItems:      analysis.ActionItems,
		Urgency:          analysis.Urgency,
		Status:           analysis.Status,
		UnrespondedCount: unrespondedCount(messages),
		MessageCount:     stats.MessageCount,
		LastMessageAt:    stats.LastMessageAt,
	}
	if err := s.summaryRepo.UpsertSummary(summary); err != nil {
		log.Printf("[SummaryWorker] Save error for thread %s: %v", job.ThreadKey, err)
		return
	}

	log.Printf("[SummaryWorker] Generated summary for thread %s", job.ThreadKey)
}

// unrespondedCount counts the inbound messages at the tail of the thread,
// after the user's last reply. Computed here rather than trusted from the
// model so the number is exact.
func unrespondedCount(messages []*messagedomain.RawMessage) int {
	count := 0
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Direction != messagedomain.DirectionInbound {
			break
		}
		count++
	}
	return count
}
