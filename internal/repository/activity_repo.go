package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/lira-intern-api/internal/models"
)

// ActivityFilter narrows activity queries.
type ActivityFilter struct {
	Page     int
	PageSize int
	UserID   string
	Status   string
	From     *time.Time
	To       *time.Time
}

// ActivityStatusCounts holds per-status activity totals.
type ActivityStatusCounts struct {
	Total    int64
	Pending  int64
	Approved int64
	Rejected int64
}

func (c *ActivityStatusCounts) add(status string, count int64) {
	c.Total += count
	switch status {
	case models.ActivityStatusPending:
		c.Pending += count
	case models.ActivityStatusApproved:
		c.Approved += count
	case models.ActivityStatusRejected:
		c.Rejected += count
	}
}

// ActivityRepository persists intern activities.
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	FindByID(ctx context.Context, id string) (models.Activity, error)
	List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error)
	ListRecent(ctx context.Context, limit int) ([]models.Activity, error)
	ListOnDate(ctx context.Context, day time.Time) ([]models.Activity, error)
	Review(ctx context.Context, id, status, reviewerID string, at time.Time) (bool, error)
	CountByStatus(ctx context.Context, userID string) (ActivityStatusCounts, error)
	CountByStatusForUsers(ctx context.Context, userIDs []string) (map[string]ActivityStatusCounts, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository constructs an activity repository backed by GORM.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *activityRepository) FindByID(ctx context.Context, id string) (models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).Preload("Profile").Where("id = ?", id).First(&activity).Error; err != nil {
		return models.Activity{}, err
	}
	return activity, nil
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Activity{})

	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("submitted_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("submitted_at < ?", *filter.To)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var activities []models.Activity
	if err := query.Preload("Profile").Order("submitted_at DESC").Find(&activities).Error; err != nil {
		return nil, 0, err
	}

	return activities, total, nil
}

func (r *activityRepository) ListRecent(ctx context.Context, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 50
	}

	var activities []models.Activity
	if err := r.db.WithContext(ctx).Order("submitted_at DESC").Limit(limit).Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

// ListOnDate returns activities dated on the given day, using the submission time when no activity date was set.
func (r *activityRepository) ListOnDate(ctx context.Context, day time.Time) ([]models.Activity, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	var activities []models.Activity
	err := r.db.WithContext(ctx).
		Where("(activity_date >= ? AND activity_date < ?) OR (activity_date IS NULL AND submitted_at >= ? AND submitted_at < ?)", start, end, start, end).
		Order("user_id ASC").
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}

// Review applies a decision only while the activity is still pending and reports whether it won.
func (r *activityRepository) Review(ctx context.Context, id, status, reviewerID string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Activity{}).
		Where("id = ? AND status = ?", id, models.ActivityStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_at": at,
			"reviewed_by": reviewerID,
			"updated_at":  at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

type activityStatusRow struct {
	UserID string
	Status string
	Count  int64
}

func (r *activityRepository) CountByStatus(ctx context.Context, userID string) (ActivityStatusCounts, error) {
	query := r.db.WithContext(ctx).Model(&models.Activity{}).Select("status, COUNT(*) AS count")
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var rows []activityStatusRow
	if err := query.Group("status").Scan(&rows).Error; err != nil {
		return ActivityStatusCounts{}, err
	}

	var counts ActivityStatusCounts
	for _, row := range rows {
		counts.add(row.Status, row.Count)
	}
	return counts, nil
}

func (r *activityRepository) CountByStatusForUsers(ctx context.Context, userIDs []string) (map[string]ActivityStatusCounts, error) {
	result := make(map[string]ActivityStatusCounts, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	var rows []activityStatusRow
	if err := r.db.WithContext(ctx).
		Model(&models.Activity{}).
		Select("user_id, status, COUNT(*) AS count").
		Where("user_id IN ?", userIDs).
		Group("user_id, status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts := result[row.UserID]
		counts.add(row.Status, row.Count)
		result[row.UserID] = counts
	}
	return result, nil
}
