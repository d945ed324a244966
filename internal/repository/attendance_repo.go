package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/lira-intern-api/internal/models"
)

// AttendanceFilter narrows attendance listings.
type AttendanceFilter struct {
	UserID string
	From   *time.Time
	To     *time.Time
}

// AttendanceRepository persists derived attendance records.
type AttendanceRepository interface {
	Upsert(ctx context.Context, record *models.AttendanceRecord) error
	List(ctx context.Context, filter AttendanceFilter) ([]models.AttendanceRecord, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository constructs the attendance repository.
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

// Upsert inserts the record or refreshes the derived columns of an existing (user, date) row.
func (r *attendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "activities_count", "generated_by", "updated_at"}),
	}).Create(record).Error
}

func (r *attendanceRepository) List(ctx context.Context, filter AttendanceFilter) ([]models.AttendanceRecord, error) {
	query := r.db.WithContext(ctx).Preload("Profile")
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date <= ?", *filter.To)
	}

	var records []models.AttendanceRecord
	if err := query.Order("date DESC").Order("user_id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
