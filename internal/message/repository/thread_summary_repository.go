package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	messagedomain "crmhub-backend/internal/message/domain"
)

// threadSummaryRepository implements ThreadSummaryRepository on GORM
type threadSummaryRepository struct {
	db *gorm.DB
}

// NewThreadSummaryRepository creates a new instance of threadSummaryRepository
func NewThreadSummaryRepository(db *gorm.DB) ThreadSummaryRepository {
	return &threadSummaryRepository{db: db}
}

func (r *threadSummaryRepository) GetSummary(userID, threadKey string) (*messagedomain.ThreadSummary, error) {
	var summary messagedomain.ThreadSummary
	err := r.db.Where("user_id = ? AND thread_key = ?", userID, threadKey).First(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &summary, nil
}

func (r *threadSummaryRepository) GetSummaries(userID string, threadKeys []string) (map[string]*messagedomain.ThreadSummary, error) {
	result := make(map[string]*messagedomain.ThreadSummary)
	if len(threadKeys) == 0 {
		return result, nil
	}

	var summaries []*messagedomain.ThreadSummary
	err := r.db.Where("user_id = ? AND thread_key IN ?", userID, threadKeys).Find(&summaries).Error
	if err != nil {
		return nil, err
	}
	for _, summary := range summaries {
		result[summary.ThreadKey] = summary
	}
	return result, nil
}

func (r *threadSummaryRepository) UpsertSummary(summary *messagedomain.ThreadSummary) error {
	now := time.Now()

	existing, err := r.GetSummary(summary.UserID, summary.ThreadKey)
	if err != nil {
		return err
	}
	if existing == nil {
		summary.ID = uuid.New().String()
		summary.CreatedAt = now
		summary.UpdatedAt = now
		return r.db.Create(summary).Error
	}

	summary.ID = existing.ID
	summary.CreatedAt = existing.CreatedAt
	summary.UpdatedAt = now
	return r.db.Save(summary).Error
}

func (r *threadSummaryRepository) DeleteSummary(userID, threadKey string) error {
	return r.db.Where("user_id = ? AND thread_key = ?", userID, threadKey).
		Delete(&messagedomain.ThreadSummary{}).Error
}
