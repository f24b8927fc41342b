package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"

	contactdomain "crmhub-backend/internal/contact/domain"
	contactdto "crmhub-backend/internal/contact/dto"
	"crmhub-backend/internal/contact/usecase"
	"crmhub-backend/internal/platform"
)

type ContactHandler struct {
	contactUsecase usecase.ContactUsecase
}

func NewContactHandler(contactUsecase usecase.ContactUsecase) *ContactHandler {
	return &ContactHandler{
		contactUsecase: contactUsecase,
	}
}

func (h *ContactHandler) ListContacts(c *gin.Context) {
	userID := c.GetString("userID")

	contacts, err := h.contactUsecase.ListContacts(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, contactdto.ContactsResponse{Contacts: contacts, Total: len(contacts)})
}

func (h *ContactHandler) GetContact(c *gin.Context) {
	userID := c.GetString("userID")
	id := c.Param("id")

	contact, identities, err := h.contactUsecase.GetContact(userID, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "contact not found"})
		return
	}

	c.JSON(http.StatusOK, contactdto.ContactDetailResponse{Contact: contact, Identities: identities})
}

// UnifyContact resolves one platform contact right away. An ambiguous match
// creates a new contact and returns the candidates it did not clear.
func (h *ContactHandler) UnifyContact(c *gin.Context) {
	userID := c.GetString("userID")

	var req contactdto.PlatformContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.contactUsecase.UnifyContact(userID, toPlatformContact(req))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// UnifyBatch ingests raw platform contacts outside the sync path, e.g. a
// CSV import or a backfill script
func (h *ContactHandler) UnifyBatch(c *gin.Context) {
	userID := c.GetString("userID")

	var req contactdto.UnifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	batch := make([]platform.Contact, len(req.Contacts))
	for i, pc := range req.Contacts {
		batch[i] = toPlatformContact(pc)
	}

	result, err := h.contactUsecase.UnifyBatch(userID, batch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ContactHandler) FindMatches(c *gin.Context) {
	userID := c.GetString("userID")

	var req contactdto.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	candidates, err := h.contactUsecase.FindMatches(userID, toPlatformContact(req.Contact))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, contactdto.MatchResponse{Candidates: candidates})
}

// ResolveReview attaches a platform contact that batch unification held back
// for manual disambiguation
func (h *ContactHandler) ResolveReview(c *gin.Context) {
	userID := c.GetString("userID")

	var req contactdto.ResolveReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity, err := h.contactUsecase.AttachIdentity(userID, req.ContactID, toPlatformContact(req.Contact))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, identity)
}

// RegisterOwner records the user's own address on a platform so the message
// pipeline can classify direction
func (h *ContactHandler) RegisterOwner(c *gin.Context) {
	userID := c.GetString("userID")

	var req contactdto.RegisterOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	owner := &contactdomain.OwnerIdentity{
		UserID:       userID,
		Platform:     req.Platform,
		NativeUserID: req.NativeUserID,
		Email:        req.Email,
		DisplayName:  req.DisplayName,
	}
	if err := h.contactUsecase.RegisterOwner(owner); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, owner)
}

func (h *ContactHandler) ListOwners(c *gin.Context) {
	userID := c.GetString("userID")

	owners, err := h.contactUsecase.ListOwners(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, contactdto.OwnersResponse{Owners: owners})
}

func toPlatformContact(pc contactdto.PlatformContactRequest) platform.Contact {
	return platform.Contact{
		Platform: pc.Platform,
		NativeID: pc.NativeID,
		Name:     pc.Name,
		Email:    pc.Email,
		Phone:    pc.Phone,
		Handle:   pc.Handle,
		PhotoURL: pc.PhotoURL,
	}
}
