package dto

import (
	contactdomain "crmhub-backend/internal/contact/domain"
	"crmhub-backend/internal/contact/usecase"
)

// ContactsResponse wraps a contact list
type ContactsResponse struct {
	Contacts []*contactdomain.UnifiedContact `json:"contacts"`
	Total    int                             `json:"total"`
}

// ContactDetailResponse is one contact with its platform identities
type ContactDetailResponse struct {
	Contact    *contactdomain.UnifiedContact    `json:"contact"`
	Identities []*contactdomain.PlatformIdentity `json:"identities"`
}

// UnifyRequest is a batch of raw platform contacts to unify
type UnifyRequest struct {
	Contacts []PlatformContactRequest `json:"contacts" binding:"required"`
}

// PlatformContactRequest is one raw platform contact in an API request
type PlatformContactRequest struct {
	Platform string `json:"platform" binding:"required"`
	NativeID string `json:"native_id" binding:"required"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Handle   string `json:"handle"`
	PhotoURL string `json:"photo_url"`
}

// MatchRequest asks for match candidates without persisting anything
type MatchRequest struct {
	Contact PlatformContactRequest `json:"contact" binding:"required"`
}

// MatchResponse lists scored candidates for one platform contact
type MatchResponse struct {
	Candidates []usecase.MatchCandidate `json:"candidates"`
}

// ResolveReviewRequest binds a held-back platform contact to a chosen
// unified contact
type ResolveReviewRequest struct {
	ContactID string                 `json:"contact_id" binding:"required"`
	Contact   PlatformContactRequest `json:"contact" binding:"required"`
}

// RegisterOwnerRequest records the user's own identity on a platform
type RegisterOwnerRequest struct {
	Platform     string `json:"platform" binding:"required"`
	NativeUserID string `json:"native_user_id"`
	Email        string `json:"email"`
	DisplayName  string `json:"display_name"`
}

// OwnersResponse lists the user's registered platform identities
type OwnersResponse struct {
	Owners []*contactdomain.OwnerIdentity `json:"owners"`
}
