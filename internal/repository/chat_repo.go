package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/lira-intern-api/internal/models"
)

// ChannelRepository persists channels and their membership lists.
type ChannelRepository interface {
	Create(ctx context.Context, channel *models.Channel) error
	FindByID(ctx context.Context, id string) (models.Channel, error)
	Update(ctx context.Context, channel *models.Channel) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Channel, error)
}

// MessageRepository persists channel messages for history.
type MessageRepository interface {
	Save(ctx context.Context, message *models.Message) error
	ListByChannel(ctx context.Context, channelID string, before time.Time, limit int) ([]models.Message, error)
	LatestByChannel(ctx context.Context, channelID string) (models.Message, error)
}

type channelRepository struct {
	db *gorm.DB
}

// NewChannelRepository constructs a channel repository backed by GORM.
func NewChannelRepository(db *gorm.DB) ChannelRepository {
	return &channelRepository{db: db}
}

func (r *channelRepository) Create(ctx context.Context, channel *models.Channel) error {
	return r.db.WithContext(ctx).Create(channel).Error
}

func (r *channelRepository) FindByID(ctx context.Context, id string) (models.Channel, error) {
	var channel models.Channel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&channel).Error; err != nil {
		return models.Channel{}, err
	}
	return channel, nil
}

func (r *channelRepository) Update(ctx context.Context, channel *models.Channel) error {
	return r.db.WithContext(ctx).Save(channel).Error
}

func (r *channelRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("channel_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Channel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// List returns every channel; membership filtering happens on the decoded id list.
func (r *channelRepository) List(ctx context.Context) ([]models.Channel, error) {
	var channels []models.Channel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&channels).Error; err != nil {
		return nil, err
	}
	return channels, nil
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository constructs a message repository backed by GORM.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Save(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *messageRepository) ListByChannel(ctx context.Context, channelID string, before time.Time, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := r.db.WithContext(ctx).Preload("Author").Where("channel_id = ?", channelID)
	if !before.IsZero() {
		query = query.Where("created_at < ?", before)
	}

	var messages []models.Message
	if err := query.Order("created_at DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, err
	}

	// Reverse to chronological order ascending for clients.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *messageRepository) LatestByChannel(ctx context.Context, channelID string) (models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).Preload("Author").Where("channel_id = ?", channelID).Order("created_at DESC").First(&message).Error
	if err != nil {
		return models.Message{}, err
	}
	return message, nil
}
