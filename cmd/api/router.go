package api

import (
	"net/http"

	contactDelivery "crmhub-backend/internal/contact/delivery"
	messageDelivery "crmhub-backend/internal/message/delivery"
	syncDelivery "crmhub-backend/internal/syncstate/delivery"
	"crmhub-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config, contactHandler *contactDelivery.ContactHandler, messageHandler *messageDelivery.MessageHandler, syncHandler *syncDelivery.SyncHandler) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Contact routes (protected) - identity unification and review
		contacts := api.Group("/contacts")
		contacts.Use(AuthMiddleware(cfg.JWTSecret))
		{
			contacts.GET("", contactHandler.ListContacts)
			contacts.GET("/:id", contactHandler.GetContact)
			contacts.POST("/unify", contactHandler.UnifyContact)
			contacts.POST("/unify/batch", contactHandler.UnifyBatch)
			contacts.POST("/match", contactHandler.FindMatches)
			contacts.POST("/resolve", contactHandler.ResolveReview)
		}

		// Owner account routes (protected) - the user's own platform identities
		accounts := api.Group("/accounts")
		accounts.Use(AuthMiddleware(cfg.JWTSecret))
		{
			accounts.GET("", contactHandler.ListOwners)
			accounts.POST("", contactHandler.RegisterOwner)
		}

		// Thread routes (protected)
		threads := api.Group("/threads")
		threads.Use(AuthMiddleware(cfg.JWTSecret))
		{
			threads.GET("", messageHandler.ListThreads)
			threads.GET("/:key", messageHandler.GetThread)
			threads.PATCH("/:key/read", messageHandler.MarkThreadRead)
			threads.POST("/:key/summarize", messageHandler.QueueSummary) // Background AI summary generation
		}

		// Message routes (protected) - raw ingestion outside the sync path
		messages := api.Group("/messages")
		messages.Use(AuthMiddleware(cfg.JWTSecret))
		{
			messages.POST("/ingest", messageHandler.Ingest)
			messages.PATCH("/:id/read", messageHandler.MarkMessageRead)
			messages.PATCH("/:id/unread", messageHandler.MarkMessageUnread)
		}

		// Sync routes (protected)
		sync := api.Group("/sync")
		sync.Use(AuthMiddleware(cfg.JWTSecret))
		{
			sync.POST("", syncHandler.TriggerSyncAll)
			sync.POST("/:platform", syncHandler.TriggerSync)
			sync.GET("/status", syncHandler.GetStatus)
		}
	}
}
