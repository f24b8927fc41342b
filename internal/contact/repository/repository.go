package repository

import (
	contactdomain "crmhub-backend/internal/contact/domain"
)

// ContactRepository defines storage operations for unified contacts and their
// platform identities
type ContactRepository interface {
	CreateContact(contact *contactdomain.UnifiedContact) error
	UpdateContact(contact *contactdomain.UnifiedContact) error
	GetContactByID(id string) (*contactdomain.UnifiedContact, error)
	ListContactsByUser(userID string) ([]*contactdomain.UnifiedContact, error)

	// CreateContactWithIdentity creates both rows in one transaction. On a
	// (platform, native_id) uniqueness violation it returns ErrIdentityExists
	// so the caller can retry as attach-to-existing.
	CreateContactWithIdentity(contact *contactdomain.UnifiedContact, identity *contactdomain.PlatformIdentity) error

	// CreateIdentity returns ErrIdentityExists on a uniqueness violation.
	CreateIdentity(identity *contactdomain.PlatformIdentity) error
	GetIdentity(platform, nativeID string) (*contactdomain.PlatformIdentity, error)
	ListIdentitiesByContact(contactID string) ([]*contactdomain.PlatformIdentity, error)
	ListIdentitiesByUser(userID string) ([]*contactdomain.PlatformIdentity, error)
}

// OwnerIdentityRepository stores the user's own per-platform identities
type OwnerIdentityRepository interface {
	Upsert(identity *contactdomain.OwnerIdentity) error
	Get(userID, platform string) (*contactdomain.OwnerIdentity, error)
	ListByUser(userID string) ([]*contactdomain.OwnerIdentity, error)
	// FindUserByEmail maps a platform address back to the owning user,
	// used by the push notification listener.
	FindUserByEmail(platform, email string) (*contactdomain.OwnerIdentity, error)
}
