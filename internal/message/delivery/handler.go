package delivery

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	messagedto "crmhub-backend/internal/message/dto"
	"crmhub-backend/internal/message/usecase"
	"crmhub-backend/internal/platform"
)

type MessageHandler struct {
	messageUsecase usecase.MessageUsecase
	summaryWorker  *usecase.SummaryWorkerService
}

func NewMessageHandler(messageUsecase usecase.MessageUsecase, summaryWorker *usecase.SummaryWorkerService) *MessageHandler {
	return &MessageHandler{
		messageUsecase: messageUsecase,
		summaryWorker:  summaryWorker,
	}
}

func (h *MessageHandler) ListThreads(c *gin.Context) {
	userID := c.GetString("userID")
	contactID := c.Query("contact_id")

	threads, err := h.messageUsecase.ListThreads(userID, contactID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, messagedto.ThreadsResponse{Threads: threads, Total: len(threads)})
}

func (h *MessageHandler) GetThread(c *gin.Context) {
	userID := c.GetString("userID")
	threadKey := c.Param("key")

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	thread, messages, err := h.messageUsecase.GetThread(userID, threadKey, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if thread == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "thread not found"})
		return
	}

	c.JSON(http.StatusOK, messagedto.ThreadDetailResponse{Thread: thread, Messages: messages})
}

func (h *MessageHandler) MarkThreadRead(c *gin.Context) {
	userID := c.GetString("userID")
	threadKey := c.Param("key")

	if err := h.messageUsecase.MarkThreadRead(userID, threadKey); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *MessageHandler) MarkMessageRead(c *gin.Context) {
	h.setMessageRead(c, true)
}

func (h *MessageHandler) MarkMessageUnread(c *gin.Context) {
	h.setMessageRead(c, false)
}

func (h *MessageHandler) setMessageRead(c *gin.Context, read bool) {
	userID := c.GetString("userID")
	messageID := c.Param("id")

	if err := h.messageUsecase.SetMessageRead(userID, messageID, read); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// QueueSummary requests a background refresh of one thread's summary
func (h *MessageHandler) QueueSummary(c *gin.Context) {
	userID := c.GetString("userID")
	threadKey := c.Param("key")

	if h.summaryWorker == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "summarization not configured"})
		return
	}

	queued := h.summaryWorker.QueueJob(usecase.SummaryJob{UserID: userID, ThreadKey: threadKey})
	c.JSON(http.StatusAccepted, gin.H{"queued": queued})
}

// Ingest accepts raw platform messages outside the sync path, e.g. an export
// import or a platform without a live adapter
func (h *MessageHandler) Ingest(c *gin.Context) {
	userID := c.GetString("userID")

	var req messagedto.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	messages := make([]platform.Message, 0, len(req.Messages))
	for _, pm := range req.Messages {
		timestamp, err := time.Parse(time.RFC3339, pm.Timestamp)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timestamp for message " + pm.NativeID})
			return
		}
		messages = append(messages, toPlatformMessage(pm, timestamp))
	}

	result, err := h.messageUsecase.IngestMessages(userID, messages)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func toPlatformMessage(pm messagedto.PlatformMessageRequest, timestamp time.Time) platform.Message {
	message := platform.Message{
		Platform:          pm.Platform,
		NativeID:          pm.NativeID,
		SenderID:          pm.SenderID,
		SenderName:        pm.SenderName,
		SenderEmail:       pm.SenderEmail,
		CounterpartyID:    pm.CounterpartyID,
		CounterpartyName:  pm.CounterpartyName,
		CounterpartyEmail: pm.CounterpartyEmail,
		Content:           pm.Content,
		Timestamp:         timestamp,
		Read:              pm.Read,
	}
	if pm.Channel != "" {
		message.Meta = platform.ChatMetadata{ChannelID: pm.Channel, ThreadTS: pm.ThreadID}
	} else if pm.ThreadID != "" || pm.Subject != "" {
		message.Meta = platform.EmailMetadata{ThreadID: pm.ThreadID, SubjectLine: pm.Subject}
	}
	return message
}
