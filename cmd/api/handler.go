package api

import (
	"log"

	contactDelivery "crmhub-backend/internal/contact/delivery"
	contactRepo "crmhub-backend/internal/contact/repository"
	contactUsecasePkg "crmhub-backend/internal/contact/usecase"
	messageDelivery "crmhub-backend/internal/message/delivery"
	messageRepo "crmhub-backend/internal/message/repository"
	messageUsecasePkg "crmhub-backend/internal/message/usecase"
	syncDelivery "crmhub-backend/internal/syncstate/delivery"
	syncUsecasePkg "crmhub-backend/internal/syncstate/usecase"
	"crmhub-backend/pkg/ai"
	"crmhub-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	config         *config.Config
	contactHandler *contactDelivery.ContactHandler
	messageHandler *messageDelivery.MessageHandler
	syncHandler    *syncDelivery.SyncHandler
	summaryWorker  *messageUsecasePkg.SummaryWorkerService
}

func NewHandler(
	contactUc contactUsecasePkg.ContactUsecase,
	messageUc messageUsecasePkg.MessageUsecase,
	coordinator syncUsecasePkg.SyncCoordinator,
	cfg *config.Config,
	messageRepository messageRepo.MessageRepository,
	summaryRepository messageRepo.ThreadSummaryRepository,
	contactRepository contactRepo.ContactRepository,
	ownerRepository contactRepo.OwnerIdentityRepository,
) *Handler {
	// Initialize AI provider for thread summaries
	summarizer, err := ai.NewSummarizer(ai.Config{
		Provider:      ai.ProviderType(cfg.AIProvider),
		GeminiAPIKey:  cfg.GeminiAPIKey,
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
	})
	if err != nil {
		log.Printf("Warning: Failed to initialize AI provider: %v", err)
	} else {
		log.Printf("AI provider initialized: %s", cfg.AIProvider)
	}

	// Initialize SummaryWorkerService for background thread summaries
	summaryWorker := messageUsecasePkg.NewSummaryWorkerService(
		messageRepository, summaryRepository, contactRepository, ownerRepository,
		cfg.ThreadWindowCap, cfg.SummaryWorkerCount)
	if summarizer != nil {
		summaryWorker.SetSummarizer(summarizer)
	}
	summaryWorker.Start()
	log.Println("Summary worker service started")

	// Ingest queues a summary refresh per affected thread
	messageUc.SetSummaryWorker(summaryWorker)

	return &Handler{
		config:         cfg,
		contactHandler: contactDelivery.NewContactHandler(contactUc),
		messageHandler: messageDelivery.NewMessageHandler(messageUc, summaryWorker),
		syncHandler:    syncDelivery.NewSyncHandler(coordinator),
		summaryWorker:  summaryWorker,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Setup routes
	SetupRoutes(r, h.config, h.contactHandler, h.messageHandler, h.syncHandler)

	return r.Run(addr)
}
