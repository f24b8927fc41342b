package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crmhub-backend/internal/syncstate/usecase"
)

type SyncHandler struct {
	coordinator usecase.SyncCoordinator
}

func NewSyncHandler(coordinator usecase.SyncCoordinator) *SyncHandler {
	return &SyncHandler{
		coordinator: coordinator,
	}
}

// TriggerSync runs one sync for a single platform. ?force=true bypasses the
// freshness check.
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	userID := c.GetString("userID")
	platformName := c.Param("platform")
	force := c.Query("force") == "true"

	result, err := h.coordinator.RequestSync(c.Request.Context(), userID, platformName, force)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// TriggerSyncAll runs a sync on every configured platform
func (h *SyncHandler) TriggerSyncAll(c *gin.Context) {
	userID := c.GetString("userID")
	force := c.Query("force") == "true"

	results, err := h.coordinator.SyncAll(c.Request.Context(), userID, force)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *SyncHandler) GetStatus(c *gin.Context) {
	userID := c.GetString("userID")

	states, err := h.coordinator.GetStatus(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"platforms": states})
}
