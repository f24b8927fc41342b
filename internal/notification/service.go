package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	contactrepo "crmhub-backend/internal/contact/repository"
	"crmhub-backend/internal/platform"
	syncusecase "crmhub-backend/internal/syncstate/usecase"
)

// GmailNotification is the payload Gmail publishes on the watch topic
type GmailNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// Service consumes Gmail push notifications from Pub/Sub and turns them into
// sync requests. The coordinator's lock and staleness rules decide whether
// anything is actually fetched.
type Service struct {
	pubsubClient *pubsub.Client
	ownerRepo    contactrepo.OwnerIdentityRepository
	coordinator  syncusecase.SyncCoordinator
	projectID    string
	subName      string

	// Deduplication: track last historyId per user to drop redelivered
	// notifications
	mu            sync.Mutex
	lastHistoryID map[string]uint64
}

func NewService(projectID, subName string, ownerRepo contactrepo.OwnerIdentityRepository, coordinator syncusecase.SyncCoordinator, credentialsFile string) (*Service, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %v", err)
	}

	return &Service{
		pubsubClient:  client,
		ownerRepo:     ownerRepo,
		coordinator:   coordinator,
		projectID:     projectID,
		subName:       subName,
		lastHistoryID: make(map[string]uint64),
	}, nil
}

func (s *Service) Start(ctx context.Context) {
	log.Printf("[PubSub] Starting notification service on subscription: %s", s.subName)

	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Printf("[PubSub] Error checking subscription existence: %v", err)
		return
	}
	if !exists {
		log.Printf("[PubSub] Subscription %s does not exist, push notifications disabled", s.subName)
		return
	}

	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(ctx, msg)
		msg.Ack()
	})
	if err != nil {
		log.Printf("[PubSub] Error receiving messages: %v", err)
	}
}

func (s *Service) handleMessage(ctx context.Context, msg *pubsub.Message) {
	var notification GmailNotification
	if err := json.Unmarshal(msg.Data, &notification); err != nil {
		log.Printf("[PubSub] Failed to unmarshal notification: %v", err)
		return
	}

	// Map the mailbox address back to the owning user
	owner, err := s.ownerRepo.FindUserByEmail(platform.PlatformGmail, notification.EmailAddress)
	if err != nil {
		log.Printf("[PubSub] Error finding owner for %s: %v", notification.EmailAddress, err)
		return
	}
	if owner == nil {
		log.Printf("[PubSub] No owner identity for mailbox %s", notification.EmailAddress)
		return
	}

	if s.alreadySeen(owner.UserID, notification.HistoryID) {
		return
	}

	log.Printf("[PubSub] Mailbox %s changed (historyId %d), requesting sync", notification.EmailAddress, notification.HistoryID)

	syncCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	if _, err := s.coordinator.RequestSync(syncCtx, owner.UserID, platform.PlatformGmail, true); err != nil {
		log.Printf("[PubSub] Sync for user %s failed: %v", owner.UserID, err)
	}
}

func (s *Service) alreadySeen(userID string, historyID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.lastHistoryID[userID]; ok && historyID <= last {
		return true
	}
	s.lastHistoryID[userID] = historyID
	return false
}
