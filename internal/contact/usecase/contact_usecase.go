package usecase

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	contactdomain "crmhub-backend/internal/contact/domain"
	"crmhub-backend/internal/contact/repository"
	"crmhub-backend/internal/platform"
)

// contactUsecase implements ContactUsecase
type contactUsecase struct {
	contactRepo repository.ContactRepository
	ownerRepo   repository.OwnerIdentityRepository
	botFilter   *BotFilter
}

// NewContactUsecase creates a new instance of contactUsecase
func NewContactUsecase(contactRepo repository.ContactRepository, ownerRepo repository.OwnerIdentityRepository, botFilter *BotFilter) ContactUsecase {
	if botFilter == nil {
		botFilter = NewBotFilter()
	}
	return &contactUsecase{
		contactRepo: contactRepo,
		ownerRepo:   ownerRepo,
		botFilter:   botFilter,
	}
}

func (u *contactUsecase) UnifyContact(userID string, c platform.Contact) (*UnifyResult, error) {
	pool, err := u.loadPool(userID)
	if err != nil {
		return nil, err
	}
	// A direct unify call treats the review band as "no acceptable candidate"
	// and creates a fresh contact rather than blocking the caller.
	return u.unifyOne(userID, c, pool, true)
}

func (u *contactUsecase) UnifyBatch(userID string, batch []platform.Contact) (*BatchResult, error) {
	partition := u.botFilter.Partition(batch)

	pool, err := u.loadPool(userID)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Filtered: partition.Filtered}
	for _, c := range partition.Real {
		one, err := u.unifyOne(userID, c, pool, false)
		if err != nil {
			return nil, fmt.Errorf("unify %s/%s: %w", c.Platform, c.NativeID, err)
		}
		switch one.Outcome {
		case OutcomeCreated:
			result.Created++
		case OutcomeAttached:
			result.Attached++
		case OutcomeKnown:
			result.Known++
		case OutcomeSkipped:
			result.Skipped++
		case OutcomeNeedsReview:
			result.Review = append(result.Review, ReviewItem{Contact: c, Candidates: one.Candidates})
		}
	}

	log.Printf("[Unify] user=%s created=%d attached=%d known=%d review=%d filtered=%d skipped=%d",
		userID, result.Created, result.Attached, result.Known, len(result.Review), len(result.Filtered), result.Skipped)
	return result, nil
}

func (u *contactUsecase) FindMatches(userID string, c platform.Contact) ([]MatchCandidate, error) {
	pool, err := u.loadPool(userID)
	if err != nil {
		return nil, err
	}
	return ScoreCandidates(c, *pool), nil
}

func (u *contactUsecase) AttachIdentity(userID, contactID string, c platform.Contact) (*contactdomain.PlatformIdentity, error) {
	contact, err := u.contactRepo.GetContactByID(contactID)
	if err != nil {
		return nil, err
	}
	if contact == nil || contact.UserID != userID {
		return nil, errors.New("contact not found")
	}

	identity := newIdentity(contact.ID, c)
	if err := u.contactRepo.CreateIdentity(identity); err != nil {
		if errors.Is(err, repository.ErrIdentityExists) {
			return u.contactRepo.GetIdentity(c.Platform, c.NativeID)
		}
		return nil, err
	}
	u.backfillContact(contact, c)
	return identity, nil
}

func (u *contactUsecase) GetContact(userID, contactID string) (*contactdomain.UnifiedContact, []*contactdomain.PlatformIdentity, error) {
	contact, err := u.contactRepo.GetContactByID(contactID)
	if err != nil {
		return nil, nil, err
	}
	if contact == nil || contact.UserID != userID {
		return nil, nil, errors.New("contact not found")
	}
	identities, err := u.contactRepo.ListIdentitiesByContact(contact.ID)
	if err != nil {
		return nil, nil, err
	}
	return contact, identities, nil
}

func (u *contactUsecase) ListContacts(userID string) ([]*contactdomain.UnifiedContact, error) {
	return u.contactRepo.ListContactsByUser(userID)
}

func (u *contactUsecase) RegisterOwner(owner *contactdomain.OwnerIdentity) error {
	if owner.UserID == "" || owner.Platform == "" {
		return fmt.Errorf("owner identity requires user_id and platform")
	}
	if err := u.ownerRepo.Upsert(owner); err != nil {
		return err
	}
	log.Printf("[Contact] Registered owner identity for user %s on %s", owner.UserID, owner.Platform)
	return nil
}

func (u *contactUsecase) ListOwners(userID string) ([]*contactdomain.OwnerIdentity, error) {
	return u.ownerRepo.ListByUser(userID)
}

// unifyOne resolves a single platform contact against the in-memory pool and
// keeps the pool current so later contacts in the same batch can match
// contacts created earlier in it.
func (u *contactUsecase) unifyOne(userID string, c platform.Contact, pool *MatchPool, createOnReview bool) (*UnifyResult, error) {
	if !c.HasReachableIdentifier() {
		return &UnifyResult{Outcome: OutcomeSkipped}, nil
	}

	// Re-observing a known (platform, native id) pair is a no-op
	existing, err := u.contactRepo.GetIdentity(c.Platform, c.NativeID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &UnifyResult{Outcome: OutcomeKnown, ContactID: existing.ContactID}, nil
	}

	candidates := ScoreCandidates(c, *pool)

	if len(candidates) > 0 && candidates[0].Score >= AutoMergeThreshold {
		return u.attach(candidates[0].ContactID, c, pool, candidates)
	}

	if len(candidates) > 0 && candidates[0].Score >= ReviewThreshold && !createOnReview {
		return &UnifyResult{Outcome: OutcomeNeedsReview, Candidates: candidates}, nil
	}

	return u.create(userID, c, pool, candidates)
}

func (u *contactUsecase) attach(contactID string, c platform.Contact, pool *MatchPool, candidates []MatchCandidate) (*UnifyResult, error) {
	identity := newIdentity(contactID, c)
	if err := u.contactRepo.CreateIdentity(identity); err != nil {
		if errors.Is(err, repository.ErrIdentityExists) {
			// Lost a race with a concurrent sync; the winner's binding stands
			won, gerr := u.contactRepo.GetIdentity(c.Platform, c.NativeID)
			if gerr != nil {
				return nil, gerr
			}
			if won != nil {
				return &UnifyResult{Outcome: OutcomeKnown, ContactID: won.ContactID}, nil
			}
		}
		return nil, err
	}

	if contact := pool.find(contactID); contact != nil {
		u.backfillContact(contact, c)
	}
	pool.Identities[contactID] = append(pool.Identities[contactID], identity)

	return &UnifyResult{Outcome: OutcomeAttached, ContactID: contactID, Candidates: candidates}, nil
}

func (u *contactUsecase) create(userID string, c platform.Contact, pool *MatchPool, candidates []MatchCandidate) (*UnifyResult, error) {
	contact := &contactdomain.UnifiedContact{
		ID:        uuid.New().String(),
		UserID:    userID,
		FullName:  c.Name,
		PhotoURL:  optional(c.PhotoURL),
		Email:     optional(c.Email),
		Phone:     optional(c.Phone),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if contact.FullName == "" {
		contact.FullName = c.Handle
	}
	identity := newIdentity(contact.ID, c)

	if err := u.contactRepo.CreateContactWithIdentity(contact, identity); err != nil {
		if errors.Is(err, repository.ErrIdentityExists) {
			won, gerr := u.contactRepo.GetIdentity(c.Platform, c.NativeID)
			if gerr != nil {
				return nil, gerr
			}
			if won != nil {
				return &UnifyResult{Outcome: OutcomeKnown, ContactID: won.ContactID}, nil
			}
		}
		return nil, err
	}

	pool.Contacts = append(pool.Contacts, contact)
	pool.Identities[contact.ID] = []*contactdomain.PlatformIdentity{identity}

	return &UnifyResult{Outcome: OutcomeCreated, ContactID: contact.ID, Candidates: candidates}, nil
}

// backfillContact fills empty canonical fields from a newly attached platform
// identity. Existing values are never overwritten.
func (u *contactUsecase) backfillContact(contact *contactdomain.UnifiedContact, c platform.Contact) {
	changed := false
	if contact.Email == nil && c.Email != "" {
		contact.Email = optional(c.Email)
		changed = true
	}
	if contact.Phone == nil && c.Phone != "" {
		contact.Phone = optional(c.Phone)
		changed = true
	}
	if contact.PhotoURL == nil && c.PhotoURL != "" {
		contact.PhotoURL = optional(c.PhotoURL)
		changed = true
	}
	if contact.FullName == "" && c.Name != "" {
		contact.FullName = c.Name
		changed = true
	}
	if !changed {
		return
	}
	contact.UpdatedAt = time.Now()
	if err := u.contactRepo.UpdateContact(contact); err != nil {
		log.Printf("[Unify] Failed to backfill contact %s: %v", contact.ID, err)
	}
}

func (u *contactUsecase) loadPool(userID string) (*MatchPool, error) {
	contacts, err := u.contactRepo.ListContactsByUser(userID)
	if err != nil {
		return nil, err
	}
	identities, err := u.contactRepo.ListIdentitiesByUser(userID)
	if err != nil {
		return nil, err
	}
	pool := &MatchPool{
		Contacts:   contacts,
		Identities: make(map[string][]*contactdomain.PlatformIdentity, len(contacts)),
	}
	for _, identity := range identities {
		pool.Identities[identity.ContactID] = append(pool.Identities[identity.ContactID], identity)
	}
	return pool, nil
}

func (p *MatchPool) find(contactID string) *contactdomain.UnifiedContact {
	for _, contact := range p.Contacts {
		if contact.ID == contactID {
			return contact
		}
	}
	return nil
}

func newIdentity(contactID string, c platform.Contact) *contactdomain.PlatformIdentity {
	return &contactdomain.PlatformIdentity{
		ID:        uuid.New().String(),
		ContactID: contactID,
		Platform:  c.Platform,
		NativeID:  c.NativeID,
		RawName:   c.Name,
		RawEmail:  c.Email,
		RawPhone:  c.Phone,
		RawHandle: c.Handle,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
