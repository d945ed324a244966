package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/internal/models"
	"github.com/noah-isme/lira-intern-api/internal/repository"
)

var (
	// ErrDepartmentNotFound indicates the department does not exist.
	ErrDepartmentNotFound = errors.New("department not found")
	// ErrDepartmentExists indicates a department with the same name exists.
	ErrDepartmentExists = errors.New("department already exists")
)

// DepartmentService manages department reference data.
type DepartmentService interface {
	List(ctx context.Context) ([]dto.DepartmentResponse, error)
	Create(ctx context.Context, actor Actor, req dto.DepartmentCreateRequest) (dto.DepartmentResponse, error)
}

type departmentService struct {
	repo      repository.DepartmentRepository
	recorder  ReviewRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewDepartmentService constructs the department service.
func NewDepartmentService(repo repository.DepartmentRepository, recorder ReviewRecorder, validate *validator.Validate, logger zerolog.Logger) DepartmentService {
	return &departmentService{
		repo:      repo,
		recorder:  recorder,
		validator: validate,
		logger:    logger.With().Str("component", "department_service").Logger(),
	}
}

func (s *departmentService) List(ctx context.Context) ([]dto.DepartmentResponse, error) {
	departments, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewDepartmentResponseSlice(departments), nil
}

func (s *departmentService) Create(ctx context.Context, actor Actor, req dto.DepartmentCreateRequest) (dto.DepartmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.DepartmentResponse{}, err
	}
	if !actor.IsAdmin() {
		return dto.DepartmentResponse{}, ErrForbidden
	}

	name := strings.TrimSpace(req.Name)
	existing, err := s.repo.List(ctx)
	if err != nil {
		return dto.DepartmentResponse{}, err
	}
	for _, department := range existing {
		if strings.EqualFold(department.Name, name) {
			return dto.DepartmentResponse{}, ErrDepartmentExists
		}
	}

	model := models.Department{Name: name, Description: req.Description}
	if err := s.repo.Create(ctx, &model); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.DepartmentResponse{}, ErrDepartmentExists
		}
		return dto.DepartmentResponse{}, fmt.Errorf("create department: %w", err)
	}

	entityID := model.ID
	if err := s.recorder.Record(ctx, ReviewEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     ReviewActionDepartment,
		EntityType: "department",
		EntityID:   &entityID,
		Metadata:   map[string]interface{}{"name": model.Name},
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record department creation")
	}

	return dto.NewDepartmentResponse(model), nil
}
