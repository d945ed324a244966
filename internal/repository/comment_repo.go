package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/lira-intern-api/internal/models"
)

// CommentRepository persists activity comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByActivity(ctx context.Context, activityID string) ([]models.Comment, error)
	ListRecent(ctx context.Context, limit int) ([]models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository constructs the comment repository.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) ListByActivity(ctx context.Context, activityID string) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("activity_id = ?", activityID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepository) ListRecent(ctx context.Context, limit int) ([]models.Comment, error) {
	if limit <= 0 {
		limit = 100
	}

	var comments []models.Comment
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}
