package usecase

import (
	contactdomain "crmhub-backend/internal/contact/domain"
	"crmhub-backend/internal/platform"
)

// UnifyOutcome describes what unification did with one platform contact
type UnifyOutcome string

const (
	// OutcomeKnown means the (platform, native id) pair was already bound
	OutcomeKnown UnifyOutcome = "known"
	// OutcomeAttached means the identity was bound to an existing contact
	OutcomeAttached UnifyOutcome = "attached"
	// OutcomeCreated means a new unified contact was created
	OutcomeCreated UnifyOutcome = "created"
	// OutcomeNeedsReview means candidates exist but none cleared auto-merge
	OutcomeNeedsReview UnifyOutcome = "needs_review"
	// OutcomeSkipped means the contact had no reachable identifier
	OutcomeSkipped UnifyOutcome = "skipped"
)

// UnifyResult reports the outcome for one platform contact
type UnifyResult struct {
	Outcome    UnifyOutcome     `json:"outcome"`
	ContactID  string           `json:"contact_id,omitempty"`
	Candidates []MatchCandidate `json:"candidates,omitempty"`
}

// ReviewItem is a platform contact held back for manual disambiguation
type ReviewItem struct {
	Contact    platform.Contact `json:"contact"`
	Candidates []MatchCandidate `json:"candidates"`
}

// BatchResult aggregates a batch unification pass
type BatchResult struct {
	Created  int               `json:"created"`
	Attached int               `json:"attached"`
	Known    int               `json:"known"`
	Skipped  int               `json:"skipped"`
	Review   []ReviewItem      `json:"review,omitempty"`
	Filtered []FilteredContact `json:"filtered,omitempty"`
}

// ContactUsecase defines the business logic for contact identity unification
type ContactUsecase interface {
	// UnifyContact resolves one platform contact to a unified contact,
	// creating one when no existing contact clears the auto-merge band.
	UnifyContact(userID string, c platform.Contact) (*UnifyResult, error)

	// UnifyBatch filters out automation senders, then unifies the remaining
	// contacts in input order. Ambiguous contacts land in Review instead of
	// being created.
	UnifyBatch(userID string, batch []platform.Contact) (*BatchResult, error)

	// FindMatches scores the user's contact pool against one platform
	// contact without persisting anything.
	FindMatches(userID string, c platform.Contact) ([]MatchCandidate, error)

	// AttachIdentity resolves a review item by binding the platform contact
	// to the chosen unified contact.
	AttachIdentity(userID, contactID string, c platform.Contact) (*contactdomain.PlatformIdentity, error)

	GetContact(userID, contactID string) (*contactdomain.UnifiedContact, []*contactdomain.PlatformIdentity, error)
	ListContacts(userID string) ([]*contactdomain.UnifiedContact, error)

	// RegisterOwner records the user's own identity on a platform. The
	// message pipeline needs it to classify direction and the push listener
	// to map webhook payloads back to a user.
	RegisterOwner(owner *contactdomain.OwnerIdentity) error
	ListOwners(userID string) ([]*contactdomain.OwnerIdentity, error)
}
