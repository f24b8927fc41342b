package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	messagedomain "crmhub-backend/internal/message/domain"
)

// ErrMessageExists signals a (user_id, platform, native_message_id)
// uniqueness violation. Ingest counts it as a duplicate, not a failure.
var ErrMessageExists = errors.New("message already exists")

// messageRepository implements MessageRepository on GORM
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new instance of messageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) CreateMessage(message *messagedomain.RawMessage) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.CreatedAt = time.Now()

	err := r.db.Create(message).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrMessageExists
	}
	return err
}

func (r *messageRepository) GetMessage(userID, platform, nativeMessageID string) (*messagedomain.RawMessage, error) {
	var message messagedomain.RawMessage
	err := r.db.Where("user_id = ? AND platform = ? AND native_message_id = ?", userID, platform, nativeMessageID).
		First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) ListThreadMessages(userID, threadKey string, limit int) ([]*messagedomain.RawMessage, error) {
	query := r.db.Where("user_id = ? AND thread_key = ?", userID, threadKey).
		Order("timestamp DESC, native_message_id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var messages []*messagedomain.RawMessage
	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}

	// The query walks backwards from the newest message; callers want
	// chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *messageRepository) ListThreadStats(userID string) ([]*ThreadStats, error) {
	var stats []*ThreadStats
	err := r.db.Model(&messagedomain.RawMessage{}).
		Select(`thread_key,
			MAX(contact_id) AS contact_id,
			MAX(platform) AS platform,
			MAX(channel) AS channel,
			MAX(subject) AS subject,
			COUNT(*) AS message_count,
			COUNT(*) FILTER (WHERE NOT read AND direction = ?) AS unread_count,
			MAX(timestamp) AS last_message_at`, messagedomain.DirectionInbound).
		Where("user_id = ?", userID).
		Group("thread_key").
		Order("last_message_at DESC").
		Scan(&stats).Error
	return stats, err
}

func (r *messageRepository) GetThreadStats(userID, threadKey string) (*ThreadStats, error) {
	var stats ThreadStats
	err := r.db.Model(&messagedomain.RawMessage{}).
		Select(`thread_key,
			MAX(contact_id) AS contact_id,
			MAX(platform) AS platform,
			MAX(channel) AS channel,
			MAX(subject) AS subject,
			COUNT(*) AS message_count,
			COUNT(*) FILTER (WHERE NOT read AND direction = ?) AS unread_count,
			MAX(timestamp) AS last_message_at`, messagedomain.DirectionInbound).
		Where("user_id = ? AND thread_key = ?", userID, threadKey).
		Group("thread_key").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	if stats.ThreadKey == "" {
		return nil, nil
	}
	return &stats, nil
}

func (r *messageRepository) SetMessageRead(userID, messageID string, read bool) error {
	result := r.db.Model(&messagedomain.RawMessage{}).
		Where("user_id = ? AND id = ?", userID, messageID).
		Update("read", read)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *messageRepository) MarkThreadRead(userID, threadKey string) error {
	return r.db.Model(&messagedomain.RawMessage{}).
		Where("user_id = ? AND thread_key = ? AND read = false", userID, threadKey).
		Update("read", true).Error
}
