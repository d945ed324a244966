package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/lira-intern-api/internal/models"
)

// ReviewLogFilter narrows review log queries.
type ReviewLogFilter struct {
	Page       int
	PageSize   int
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
}

// ReviewLogRepository persists the review audit trail.
type ReviewLogRepository interface {
	Create(ctx context.Context, entry *models.ReviewLog) error
	List(ctx context.Context, filter ReviewLogFilter) ([]models.ReviewLog, int64, error)
}

type reviewLogRepository struct {
	db *gorm.DB
}

// NewReviewLogRepository constructs the review log repository.
func NewReviewLogRepository(db *gorm.DB) ReviewLogRepository {
	return &reviewLogRepository{db: db}
}

func (r *reviewLogRepository) Create(ctx context.Context, entry *models.ReviewLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *reviewLogRepository) List(ctx context.Context, filter ReviewLogFilter) ([]models.ReviewLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ReviewLog{})

	if filter.ActorID != "" {
		query = query.Where("actor_id = ?", filter.ActorID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", filter.EntityID)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var entries []models.ReviewLog
	if err := query.Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
