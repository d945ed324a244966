package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/lira-intern-api/internal/models"
)

// DepartmentRepository persists departments.
type DepartmentRepository interface {
	Create(ctx context.Context, department *models.Department) error
	FindByID(ctx context.Context, id string) (models.Department, error)
	List(ctx context.Context) ([]models.Department, error)
	Count(ctx context.Context) (int64, error)
	UpsertBatch(ctx context.Context, items []models.Department) (int64, error)
}

type departmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository constructs the department repository.
func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &departmentRepository{db: db}
}

func (r *departmentRepository) Create(ctx context.Context, department *models.Department) error {
	return r.db.WithContext(ctx).Create(department).Error
}

func (r *departmentRepository) FindByID(ctx context.Context, id string) (models.Department, error) {
	var department models.Department
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&department).Error; err != nil {
		return models.Department{}, err
	}
	return department, nil
}

func (r *departmentRepository) List(ctx context.Context) ([]models.Department, error) {
	var departments []models.Department
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&departments).Error; err != nil {
		return nil, err
	}
	return departments, nil
}

func (r *departmentRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Department{}).Count(&total).Error
	return total, err
}

// UpsertBatch inserts departments by name, refreshing the description of existing ones.
func (r *departmentRepository) UpsertBatch(ctx context.Context, items []models.Department) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"description", "updated_at"}),
	}).Create(&items)
	return result.RowsAffected, result.Error
}
