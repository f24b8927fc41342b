package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	contactdomain "crmhub-backend/internal/contact/domain"
)

// ownerIdentityRepository implements OwnerIdentityRepository on GORM
type ownerIdentityRepository struct {
	db *gorm.DB
}

func NewOwnerIdentityRepository(db *gorm.DB) OwnerIdentityRepository {
	return &ownerIdentityRepository{db: db}
}

func (r *ownerIdentityRepository) Upsert(identity *contactdomain.OwnerIdentity) error {
	var existing contactdomain.OwnerIdentity
	err := r.db.Where("user_id = ? AND platform = ?", identity.UserID, identity.Platform).First(&existing).Error

	now := time.Now()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		identity.ID = uuid.New().String()
		identity.CreatedAt = now
		identity.UpdatedAt = now
		return r.db.Create(identity).Error
	} else if err != nil {
		return err
	}

	existing.NativeUserID = identity.NativeUserID
	existing.Email = identity.Email
	existing.DisplayName = identity.DisplayName
	existing.UpdatedAt = now
	*identity = existing
	return r.db.Save(&existing).Error
}

func (r *ownerIdentityRepository) Get(userID, platform string) (*contactdomain.OwnerIdentity, error) {
	var identity contactdomain.OwnerIdentity
	err := r.db.Where("user_id = ? AND platform = ?", userID, platform).First(&identity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &identity, nil
}

func (r *ownerIdentityRepository) ListByUser(userID string) ([]*contactdomain.OwnerIdentity, error) {
	var identities []*contactdomain.OwnerIdentity
	err := r.db.Where("user_id = ?", userID).Find(&identities).Error
	return identities, err
}

func (r *ownerIdentityRepository) FindUserByEmail(platform, email string) (*contactdomain.OwnerIdentity, error) {
	var identity contactdomain.OwnerIdentity
	err := r.db.Where("platform = ? AND email = ?", platform, email).First(&identity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &identity, nil
}
