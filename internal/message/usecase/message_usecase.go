package usecase

import (
	"errors"
	"fmt"
	"log"
	"sort"

	contactdomain "crmhub-backend/internal/contact/domain"
	contactrepo "crmhub-backend/internal/contact/repository"
	messagedomain "crmhub-backend/internal/message/domain"
	"crmhub-backend/internal/message/repository"
	"crmhub-backend/internal/platform"
	"crmhub-backend/pkg/cache"
	"crmhub-backend/pkg/fuzzy"
)

// messageUsecase implements MessageUsecase
type messageUsecase struct {
	messageRepo repository.MessageRepository
	summaryRepo repository.ThreadSummaryRepository
	ownerRepo   contactrepo.OwnerIdentityRepository
	resolver    ContactResolver
	dedupCache  cache.TTLCache
	worker      *SummaryWorkerService
}

// NewMessageUsecase creates a new instance of messageUsecase
func NewMessageUsecase(
	messageRepo repository.MessageRepository,
	summaryRepo repository.ThreadSummaryRepository,
	ownerRepo contactrepo.OwnerIdentityRepository,
	resolver ContactResolver,
	dedupCache cache.TTLCache,
) MessageUsecase {
	return &messageUsecase{
		messageRepo: messageRepo,
		summaryRepo: summaryRepo,
		ownerRepo:   ownerRepo,
		resolver:    resolver,
		dedupCache:  dedupCache,
	}
}

// SetSummaryWorker wires the background worker that refreshes thread
// summaries after ingest
func (u *messageUsecase) SetSummaryWorker(worker *SummaryWorkerService) {
	u.worker = worker
}

func (u *messageUsecase) IngestMessages(userID string, messages []platform.Message) (*IngestResult, error) {
	result := &IngestResult{}
	if len(messages) == 0 {
		return result, nil
	}

	owners := make(map[string]*contactdomain.OwnerIdentity)
	affected := make(map[string]bool)
	for _, m := range messages {
		owner, ok := owners[m.Platform]
		if !ok {
			var err error
			owner, err = u.ownerRepo.Get(userID, m.Platform)
			if err != nil {
				return nil, err
			}
			owners[m.Platform] = owner
		}

		threadKey, err := u.ingestOne(userID, owner, m)
		if err != nil {
			log.Printf("[Ingest] user=%s %s/%s: %v", userID, m.Platform, m.NativeID, err)
			result.Failures++
			continue
		}
		if threadKey == "" {
			result.Duplicates++
			continue
		}
		result.Stored++
		affected[threadKey] = true
	}

	for threadKey := range affected {
		result.ThreadsAffected = append(result.ThreadsAffected, threadKey)
	}
	sort.Strings(result.ThreadsAffected)

	if u.worker != nil {
		for _, threadKey := range result.ThreadsAffected {
			u.worker.QueueJob(SummaryJob{UserID: userID, ThreadKey: threadKey})
		}
	}

	log.Printf("[Ingest] user=%s stored=%d duplicates=%d failures=%d threads=%d",
		userID, result.Stored, result.Duplicates, result.Failures, len(result.ThreadsAffected))
	return result, nil
}

// ingestOne stores one message. It returns the affected thread key, or ""
// when the message was a duplicate.
func (u *messageUsecase) ingestOne(userID string, owner *contactdomain.OwnerIdentity, m platform.Message) (string, error) {
	// Cheap pre-check before hitting the resolver
	existing, err := u.messageRepo.GetMessage(userID, m.Platform, m.NativeID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", nil
	}

	// Near-duplicate suppression for messages that arrive through two fetch
	// paths with different native ids, e.g. a push delivery racing a poll.
	// Best effort: a cache miss after restart just means one extra row is
	// attempted and caught by the unique index.
	if u.dedupCache != nil && !u.dedupCache.SetIfAbsent(suppressionKey(m)) {
		return "", nil
	}

	contactID, err := u.resolver.ResolveMessageContact(userID, m)
	if err != nil {
		return "", fmt.Errorf("resolve contact: %w", err)
	}

	threadKey := DeriveThreadKey(contactID, m)
	row := &messagedomain.RawMessage{
		UserID:          userID,
		Platform:        m.Platform,
		NativeMessageID: m.NativeID,
		ContactID:       contactID,
		ThreadKey:       threadKey,
		Direction:       direction(owner, m),
		SenderName:      m.SenderName,
		Content:         m.Content,
		Timestamp:       m.Timestamp,
		Read:            m.Read,
	}
	if m.Meta != nil {
		if channel, ok := m.Meta.Channel(); ok {
			row.Channel = channel
		}
		if subject, ok := m.Meta.Subject(); ok {
			row.Subject = subject
		}
	}

	if err := u.messageRepo.CreateMessage(row); err != nil {
		if errors.Is(err, repository.ErrMessageExists) {
			return "", nil
		}
		return "", err
	}
	return threadKey, nil
}

func (u *messageUsecase) ListThreads(userID, contactID string) ([]*messagedomain.ConversationThread, error) {
	stats, err := u.messageRepo.ListThreadStats(userID)
	if err != nil {
		return nil, err
	}
	if contactID != "" {
		filtered := stats[:0]
		for _, s := range stats {
			if s.ContactID == contactID {
				filtered = append(filtered, s)
			}
		}
		stats = filtered
	}
	if len(stats) == 0 {
		return []*messagedomain.ConversationThread{}, nil
	}

	threadKeys := make([]string, len(stats))
	for i, s := range stats {
		threadKeys[i] = s.ThreadKey
	}
	summaries, err := u.summaryRepo.GetSummaries(userID, threadKeys)
	if err != nil {
		return nil, err
	}

	threads := make([]*messagedomain.ConversationThread, 0, len(stats))
	for _, s := range stats {
		threads = append(threads, &messagedomain.ConversationThread{
			ThreadKey:     s.ThreadKey,
			ContactID:     s.ContactID,
			Platform:      s.Platform,
			Channel:       s.Channel,
			Subject:       s.Subject,
			MessageCount:  s.MessageCount,
			UnreadCount:   s.UnreadCount,
			LastMessageAt: s.LastMessageAt,
			Summary:       summaries[s.ThreadKey],
		})
	}
	return threads, nil
}

func (u *messageUsecase) GetThread(userID, threadKey string, limit int) (*messagedomain.ConversationThread, []*messagedomain.RawMessage, error) {
	stats, err := u.messageRepo.GetThreadStats(userID, threadKey)
	if err != nil {
		return nil, nil, err
	}
	if stats == nil {
		return nil, nil, nil
	}

	messages, err := u.messageRepo.ListThreadMessages(userID, threadKey, limit)
	if err != nil {
		return nil, nil, err
	}
	summary, err := u.summaryRepo.GetSummary(userID, threadKey)
	if err != nil {
		return nil, nil, err
	}

	thread := &messagedomain.ConversationThread{
		ThreadKey:     stats.ThreadKey,
		ContactID:     stats.ContactID,
		Platform:      stats.Platform,
		Channel:       stats.Channel,
		Subject:       stats.Subject,
		MessageCount:  stats.MessageCount,
		UnreadCount:   stats.UnreadCount,
		LastMessageAt: stats.LastMessageAt,
		Summary:       summary,
	}
	if len(messages) > 0 {
		thread.LastMessage = messages[len(messages)-1]
	}
	return thread, messages, nil
}

func (u *messageUsecase) MarkThreadRead(userID, threadKey string) error {
	return u.messageRepo.MarkThreadRead(userID, threadKey)
}

func (u *messageUsecase) SetMessageRead(userID, messageID string, read bool) error {
	return u.messageRepo.SetMessageRead(userID, messageID, read)
}

// suppressionKey identifies a message without its native id. Two deliveries
// of the same platform/channel/timestamp are one message.
func suppressionKey(m platform.Message) string {
	channel := ""
	if m.Meta != nil {
		if ch, ok := m.Meta.Channel(); ok {
			channel = ch
		}
	}
	return fmt.Sprintf("%s|%s|%s|%d", m.Platform, channel, fuzzy.NormalizeEmail(m.SenderEmail), m.Timestamp.UnixNano())
}

func direction(owner *contactdomain.OwnerIdentity, m platform.Message) string {
	if owner != nil {
		if owner.NativeUserID != "" && m.SenderID == owner.NativeUserID {
			return messagedomain.DirectionOutbound
		}
		if owner.Email != "" && m.SenderEmail != "" &&
			fuzzy.NormalizeEmail(m.SenderEmail) == fuzzy.NormalizeEmail(owner.Email) {
			return messagedomain.DirectionOutbound
		}
	}
	return messagedomain.DirectionInbound
}
