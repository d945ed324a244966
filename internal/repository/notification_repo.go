package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/lira-intern-api/internal/models"
)

const (
	defaultNotificationPage = 50
	maxNotificationPage     = 100
)

// NotificationQuery selects one page of a user's inbox, newest first.
type NotificationQuery struct {
	UserID     string
	UnreadOnly bool
	Limit      int
	Offset     int
}

func (q NotificationQuery) normalized() NotificationQuery {
	if q.Limit <= 0 || q.Limit > maxNotificationPage {
		q.Limit = defaultNotificationPage
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

// NotificationRepository stores the per-user inbox. Rows are only ever
// flipped from unread to read.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, query NotificationQuery) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) (models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) inbox(ctx context.Context, userID string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) List(ctx context.Context, query NotificationQuery) ([]models.Notification, error) {
	query = query.normalized()

	tx := r.inbox(ctx, query.UserID)
	if query.UnreadOnly {
		tx = tx.Where("read = ?", false)
	}

	notifications := make([]models.Notification, 0, query.Limit)
	err := tx.Order("created_at DESC").Order("id DESC").
		Limit(query.Limit).
		Offset(query.Offset).
		Find(&notifications).Error
	return notifications, err
}

// MarkRead flips one notification owned by userID. Rows owned by anyone else
// resolve to gorm.ErrRecordNotFound.
func (r *notificationRepository) MarkRead(ctx context.Context, id, userID string) (models.Notification, error) {
	var notification models.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).Take(&notification).Error; err != nil {
			return err
		}
		if notification.Read {
			return nil
		}
		notification.Read = true
		return tx.Model(&notification).UpdateColumn("read", true).Error
	})
	if err != nil {
		return models.Notification{}, err
	}
	return notification, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	result := r.inbox(ctx, userID).Where("read = ?", false).UpdateColumn("read", true)
	return result.RowsAffected, result.Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var unread int64
	err := r.inbox(ctx, userID).Where("read = ?", false).Count(&unread).Error
	return unread, err
}
