package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/lira-intern-api/internal/models"
)

// ProfileRepository persists portal profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	FindByID(ctx context.Context, id string) (models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	SetDepartmentIfUnset(ctx context.Context, id, departmentID string) (bool, error)
	UpdateAvatar(ctx context.Context, id, url string) error
	ListByRole(ctx context.Context, role string) ([]models.Profile, error)
	ListRecent(ctx context.Context, limit int) ([]models.Profile, error)
	IDsByRoles(ctx context.Context, roles ...string) ([]string, error)
	CountByRole(ctx context.Context, role string) (int64, error)
	InsertMissing(ctx context.Context, items []models.Profile) (int64, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository constructs the profile repository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *profileRepository) FindByID(ctx context.Context, id string) (models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Preload("Department").Where("id = ?", id).First(&profile).Error; err != nil {
		return models.Profile{}, err
	}
	return profile, nil
}

func (r *profileRepository) Update(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", profile.ID).
		Updates(map[string]interface{}{
			"full_name":  profile.FullName,
			"student_id": profile.StudentID,
			"phone":      profile.Phone,
		}).Error
}

// SetDepartmentIfUnset assigns the department only when none was chosen before.
func (r *profileRepository) SetDepartmentIfUnset(ctx context.Context, id, departmentID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ? AND department_id IS NULL", id).
		Update("department_id", departmentID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *profileRepository) UpdateAvatar(ctx context.Context, id, url string) error {
	result := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Update("avatar_url", url)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *profileRepository) ListByRole(ctx context.Context, role string) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := r.db.WithContext(ctx).
		Preload("Department").
		Where("role = ?", role).
		Order("full_name ASC").
		Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *profileRepository) ListRecent(ctx context.Context, limit int) ([]models.Profile, error) {
	if limit <= 0 {
		limit = 100
	}

	var profiles []models.Profile
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *profileRepository) IDsByRoles(ctx context.Context, roles ...string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("role IN ?", roles).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *profileRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Profile{}).Where("role = ?", role).Count(&total).Error
	return total, err
}

// InsertMissing creates profiles whose ids are not yet known and leaves existing rows untouched.
func (r *profileRepository) InsertMissing(ctx context.Context, items []models.Profile) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&items)
	return result.RowsAffected, result.Error
}
