package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	contactdomain "crmhub-backend/internal/contact/domain"
)

// ErrIdentityExists signals a (platform, native_id) uniqueness violation.
// The unifier resolves it by attaching to the existing contact instead of
// surfacing an error.
var ErrIdentityExists = errors.New("platform identity already exists")

// contactRepository implements ContactRepository on GORM
type contactRepository struct {
	db *gorm.DB
}

// NewContactRepository creates a new instance of contactRepository
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) CreateContact(contact *contactdomain.UnifiedContact) error {
	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}
	now := time.Now()
	contact.CreatedAt = now
	contact.UpdatedAt = now
	return r.db.Create(contact).Error
}

func (r *contactRepository) UpdateContact(contact *contactdomain.UnifiedContact) error {
	contact.UpdatedAt = time.Now()
	return r.db.Save(contact).Error
}

func (r *contactRepository) GetContactByID(id string) (*contactdomain.UnifiedContact, error) {
	var contact contactdomain.UnifiedContact
	err := r.db.Where("id = ?", id).First(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contact, nil
}

func (r *contactRepository) ListContactsByUser(userID string) ([]*contactdomain.UnifiedContact, error) {
	var contacts []*contactdomain.UnifiedContact
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&contacts).Error
	return contacts, err
}

func (r *contactRepository) CreateContactWithIdentity(contact *contactdomain.UnifiedContact, identity *contactdomain.PlatformIdentity) error {
	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}
	if identity.ID == "" {
		identity.ID = uuid.New().String()
	}
	now := time.Now()
	contact.CreatedAt = now
	contact.UpdatedAt = now
	identity.ContactID = contact.ID
	identity.CreatedAt = now
	identity.UpdatedAt = now

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(contact).Error; err != nil {
			return err
		}
		return tx.Create(identity).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrIdentityExists
	}
	return err
}

func (r *contactRepository) CreateIdentity(identity *contactdomain.PlatformIdentity) error {
	if identity.ID == "" {
		identity.ID = uuid.New().String()
	}
	now := time.Now()
	identity.CreatedAt = now
	identity.UpdatedAt = now

	err := r.db.Create(identity).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrIdentityExists
	}
	return err
}

func (r *contactRepository) GetIdentity(platform, nativeID string) (*contactdomain.PlatformIdentity, error) {
	var identity contactdomain.PlatformIdentity
	err := r.db.Where("platform = ? AND native_id = ?", platform, nativeID).First(&identity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &identity, nil
}

func (r *contactRepository) ListIdentitiesByContact(contactID string) ([]*contactdomain.PlatformIdentity, error) {
	var identities []*contactdomain.PlatformIdentity
	err := r.db.Where("contact_id = ?", contactID).Find(&identities).Error
	return identities, err
}

func (r *contactRepository) ListIdentitiesByUser(userID string) ([]*contactdomain.PlatformIdentity, error) {
	var identities []*contactdomain.PlatformIdentity
	err := r.db.
		Joins("JOIN unified_contacts ON unified_contacts.id = platform_identities.contact_id").
		Where("unified_contacts.user_id = ?", userID).
		Find(&identities).Error
	return identities, err
}
