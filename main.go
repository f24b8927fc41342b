package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	api "crmhub-backend/cmd/api"
	contactdomain "crmhub-backend/internal/contact/domain"
	contactRepo "crmhub-backend/internal/contact/repository"
	contactUsecase "crmhub-backend/internal/contact/usecase"
	messagedomain "crmhub-backend/internal/message/domain"
	messageRepo "crmhub-backend/internal/message/repository"
	messageUsecase "crmhub-backend/internal/message/usecase"
	"crmhub-backend/internal/notification"
	"crmhub-backend/internal/platform"
	syncdomain "crmhub-backend/internal/syncstate/domain"
	syncRepo "crmhub-backend/internal/syncstate/repository"
	"crmhub-backend/internal/syncstate/scheduler"
	syncUsecase "crmhub-backend/internal/syncstate/usecase"
	"crmhub-backend/pkg/cache"
	"crmhub-backend/pkg/config"
	"crmhub-backend/pkg/database"
	"crmhub-backend/pkg/gmailadapter"
	"crmhub-backend/pkg/imapadapter"
)

// envTokenStore serves the statically configured OAuth token for every user.
// Single-tenant deployments set GOOGLE_ACCESS_TOKEN / GOOGLE_REFRESH_TOKEN;
// refreshed tokens are kept in memory for the life of the process.
type envTokenStore struct {
	cfg    *config.Config
	mu     sync.Mutex
	tokens map[string]*oauth2.Token
}

func (s *envTokenStore) Token(ctx context.Context, userID string) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tokens[userID]; ok {
		return t, nil
	}
	if s.cfg.GoogleRefreshToken == "" && s.cfg.GoogleAccessToken == "" {
		return nil, fmt.Errorf("no google token configured for user %s", userID)
	}
	return &oauth2.Token{
		AccessToken:  s.cfg.GoogleAccessToken,
		RefreshToken: s.cfg.GoogleRefreshToken,
	}, nil
}

func (s *envTokenStore) SaveToken(userID string, token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[userID] = token
	return nil
}

// staticIMAPCredentials serves the configured IMAP account for every user
type staticIMAPCredentials struct {
	cfg *config.Config
}

func (c *staticIMAPCredentials) IMAPCredentials(ctx context.Context, userID string) (*imapadapter.Credentials, error) {
	if c.cfg.IMAPServer == "" || c.cfg.IMAPUsername == "" {
		return nil, fmt.Errorf("no imap account configured for user %s", userID)
	}
	return &imapadapter.Credentials{
		Server:   c.cfg.IMAPServer,
		Port:     c.cfg.IMAPPort,
		Username: c.cfg.IMAPUsername,
		Password: c.cfg.IMAPPassword,
	}, nil
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&contactdomain.UnifiedContact{},
		&contactdomain.PlatformIdentity{},
		&contactdomain.OwnerIdentity{},
		&messagedomain.RawMessage{},
		&messagedomain.ThreadSummary{},
		&syncdomain.SyncState{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	contactRepository := contactRepo.NewContactRepository(db)
	ownerRepository := contactRepo.NewOwnerIdentityRepository(db)
	messageRepository := messageRepo.NewMessageRepository(db)
	summaryRepository := messageRepo.NewThreadSummaryRepository(db)
	syncRepository := syncRepo.NewSyncStateRepository(db)

	// Initialize use cases (dependency injection)
	contactUc := contactUsecase.NewContactUsecase(contactRepository, ownerRepository, contactUsecase.NewBotFilter())
	resolver := messageUsecase.NewUnifierResolver(contactUc)
	dedupCache := cache.NewMemoryCache(cfg.DedupCacheTTL)
	messageUc := messageUsecase.NewMessageUsecase(messageRepository, summaryRepository, ownerRepository, resolver, dedupCache)

	// Register the configured platform adapters
	var adapters []platform.Adapter
	if cfg.GoogleClientID != "" {
		tokens := &envTokenStore{cfg: cfg, tokens: make(map[string]*oauth2.Token)}
		adapters = append(adapters, gmailadapter.NewAdapter(cfg.GoogleClientID, cfg.GoogleClientSecret, tokens))
		log.Println("Gmail adapter registered")
	}
	if cfg.IMAPServer != "" {
		adapters = append(adapters, imapadapter.NewAdapter(&staticIMAPCredentials{cfg: cfg}))
		log.Println("IMAP adapter registered")
	}
	registry := platform.NewRegistry(adapters...)

	coordinator := syncUsecase.NewSyncCoordinator(registry, syncRepository, contactUc, messageUc, cfg.SyncStaleness, cfg.SyncLockLease)

	// Initialize HTTP handler (also starts the summary workers)
	handler := api.NewHandler(contactUc, messageUc, coordinator, cfg, messageRepository, summaryRepository, contactRepository, ownerRepository)

	// Background sweep retries stale and failed syncs
	sweep := scheduler.NewSyncSweepScheduler(syncRepository, coordinator, cfg.SyncSweepInterval, cfg.SyncStaleness)
	sweep.Start()

	// Initialize Notification Service (Pub/Sub)
	// Only start if project ID is configured
	if cfg.GoogleProjectID != "" {
		subName := cfg.GooglePubSubSub
		if parts := strings.Split(subName, "/"); len(parts) > 1 {
			subName = parts[len(parts)-1]
		}

		notifService, err := notification.NewService(cfg.GoogleProjectID, subName, ownerRepository, coordinator, cfg.GoogleCredentials)
		if err != nil {
			log.Printf("[ERROR] Failed to initialize notification service: %v", err)
		} else {
			go notifService.Start(context.Background())
		}
	} else {
		log.Printf("[WARN] GoogleProjectID not configured, notification service disabled")
	}

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
