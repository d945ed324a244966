package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/internal/models"
	"github.com/noah-isme/lira-intern-api/internal/repository"
)

var (
	// ErrProfileNotFound indicates no profile exists for the identity.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrDepartmentAlreadySet indicates the intern already chose a department.
	ErrDepartmentAlreadySet = errors.New("department already set")
	// ErrProfileNameEmpty indicates the full name was empty after sanitization.
	ErrProfileNameEmpty = errors.New("full name empty after sanitization")
	// ErrProfileExists indicates the identity already registered a profile.
	ErrProfileExists = errors.New("profile already exists")
)

// ProfileService manages self-service profile data and staff views of interns.
type ProfileService interface {
	Register(ctx context.Context, actor Actor, req dto.ProfileRegisterRequest) (dto.ProfileResponse, error)
	Get(ctx context.Context, id string) (dto.ProfileResponse, error)
	Update(ctx context.Context, actor Actor, req dto.ProfileUpdateRequest) (dto.ProfileResponse, error)
	SelectDepartment(ctx context.Context, actor Actor, req dto.DepartmentSelectRequest) (dto.ProfileResponse, error)
	UploadAvatar(ctx context.Context, actor Actor, file *multipart.FileHeader) (dto.ProfileResponse, error)
	ListInterns(ctx context.Context, actor Actor) ([]dto.InternSummary, error)
}

type profileService struct {
	profiles    repository.ProfileRepository
	departments repository.DepartmentRepository
	activities  repository.ActivityRepository
	uploads     UploadService
	notifier    Notifier
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewProfileService constructs the profile service.
func NewProfileService(
	profiles repository.ProfileRepository,
	departments repository.DepartmentRepository,
	activities repository.ActivityRepository,
	uploads UploadService,
	notifier Notifier,
	validate *validator.Validate,
	logger zerolog.Logger,
) ProfileService {
	return &profileService{
		profiles:    profiles,
		departments: departments,
		activities:  activities,
		uploads:     uploads,
		notifier:    notifier,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "profile_service").Logger(),
	}
}

// Register creates the caller's profile. The role comes from the identity token and is fixed afterwards.
func (s *profileService) Register(ctx context.Context, actor Actor, req dto.ProfileRegisterRequest) (dto.ProfileResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProfileResponse{}, err
	}

	if _, err := s.profiles.FindByID(ctx, actor.ID); err == nil {
		return dto.ProfileResponse{}, ErrProfileExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ProfileResponse{}, err
	}

	name := strings.TrimSpace(s.sanitizer.Sanitize(req.FullName))
	if name == "" {
		return dto.ProfileResponse{}, ErrProfileNameEmpty
	}

	role := models.RoleIntern
	if models.IsValidRole(actor.Role) {
		role = actor.Role
	}

	profile := models.Profile{
		ID:       actor.ID,
		FullName: name,
		Role:     role,
	}
	if req.StudentID != nil {
		profile.StudentID = optionalString(s.sanitizer.Sanitize(*req.StudentID))
	}
	if req.Phone != nil {
		profile.Phone = optionalString(s.sanitizer.Sanitize(*req.Phone))
	}

	if err := s.profiles.Create(ctx, &profile); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.ProfileResponse{}, ErrProfileExists
		}
		return dto.ProfileResponse{}, fmt.Errorf("create profile: %w", err)
	}

	s.logger.Info().Str("profile_id", profile.ID).Str("role", profile.Role).Msg("profile registered")
	return dto.NewProfileResponse(profile), nil
}

func (s *profileService) Get(ctx context.Context, id string) (dto.ProfileResponse, error) {
	profile, err := s.find(ctx, id)
	if err != nil {
		return dto.ProfileResponse{}, err
	}
	return dto.NewProfileResponse(profile), nil
}

func (s *profileService) Update(ctx context.Context, actor Actor, req dto.ProfileUpdateRequest) (dto.ProfileResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProfileResponse{}, err
	}

	profile, err := s.find(ctx, actor.ID)
	if err != nil {
		return dto.ProfileResponse{}, err
	}

	if req.FullName != nil {
		name := strings.TrimSpace(s.sanitizer.Sanitize(*req.FullName))
		if name == "" {
			return dto.ProfileResponse{}, ErrProfileNameEmpty
		}
		profile.FullName = name
	}
	if req.StudentID != nil {
		profile.StudentID = optionalString(s.sanitizer.Sanitize(*req.StudentID))
	}
	if req.Phone != nil {
		profile.Phone = optionalString(s.sanitizer.Sanitize(*req.Phone))
	}

	if err := s.profiles.Update(ctx, &profile); err != nil {
		return dto.ProfileResponse{}, fmt.Errorf("update profile: %w", err)
	}

	s.notifier.NotifyUsers(ctx, []string{profile.ID}, models.NotificationProfileUpdated, "Profile updated", "Your profile details were saved.")
	return s.Get(ctx, profile.ID)
}

// SelectDepartment lets an intern attach a department exactly once.
func (s *profileService) SelectDepartment(ctx context.Context, actor Actor, req dto.DepartmentSelectRequest) (dto.ProfileResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProfileResponse{}, err
	}
	if actor.Role != models.RoleIntern {
		return dto.ProfileResponse{}, ErrForbidden
	}

	if _, err := s.departments.FindByID(ctx, req.DepartmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProfileResponse{}, ErrDepartmentNotFound
		}
		return dto.ProfileResponse{}, err
	}

	profile, err := s.find(ctx, actor.ID)
	if err != nil {
		return dto.ProfileResponse{}, err
	}
	if profile.DepartmentID != nil {
		return dto.ProfileResponse{}, ErrDepartmentAlreadySet
	}

	set, err := s.profiles.SetDepartmentIfUnset(ctx, actor.ID, req.DepartmentID)
	if err != nil {
		return dto.ProfileResponse{}, fmt.Errorf("set department: %w", err)
	}
	if !set {
		return dto.ProfileResponse{}, ErrDepartmentAlreadySet
	}

	return s.Get(ctx, actor.ID)
}

func (s *profileService) UploadAvatar(ctx context.Context, actor Actor, file *multipart.FileHeader) (dto.ProfileResponse, error) {
	if _, err := s.find(ctx, actor.ID); err != nil {
		return dto.ProfileResponse{}, err
	}

	upload, err := s.uploads.Upload(ctx, file, UploadPurposeAvatar)
	if err != nil {
		return dto.ProfileResponse{}, err
	}

	if err := s.profiles.UpdateAvatar(ctx, actor.ID, upload.URL); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProfileResponse{}, ErrProfileNotFound
		}
		return dto.ProfileResponse{}, fmt.Errorf("update avatar: %w", err)
	}

	return s.Get(ctx, actor.ID)
}

func (s *profileService) ListInterns(ctx context.Context, actor Actor) ([]dto.InternSummary, error) {
	if !actor.IsReviewer() {
		return nil, ErrForbidden
	}

	interns, err := s.profiles.ListByRole(ctx, models.RoleIntern)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(interns))
	for _, intern := range interns {
		ids = append(ids, intern.ID)
	}

	counts, err := s.activities.CountByStatusForUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.InternSummary, 0, len(interns))
	for _, intern := range interns {
		count := counts[intern.ID]
		summaries = append(summaries, dto.InternSummary{
			Profile:  dto.NewProfileResponse(intern),
			Total:    count.Total,
			Pending:  count.Pending,
			Approved: count.Approved,
			Rejected: count.Rejected,
		})
	}
	return summaries, nil
}

func (s *profileService) find(ctx context.Context, id string) (models.Profile, error) {
	profile, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Profile{}, ErrProfileNotFound
		}
		return models.Profile{}, err
	}
	return profile, nil
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
