package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/lira-intern-api/internal/models"
	"github.com/noah-isme/lira-intern-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// SeedService loads reference departments and pre-provisioned profiles.
type SeedService interface {
	SeedDepartments(ctx context.Context, token string, items []models.Department) (int64, error)
	SeedProfiles(ctx context.Context, token string, items []models.Profile) (int64, error)
}

type seedService struct {
	departments repository.DepartmentRepository
	profiles    repository.ProfileRepository
	enabled     bool
	token       string
	logger      zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(departments repository.DepartmentRepository, profiles repository.ProfileRepository, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		departments: departments,
		profiles:    profiles,
		enabled:     enabled,
		token:       token,
		logger:      logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) SeedDepartments(ctx context.Context, token string, items []models.Department) (int64, error) {
	if err := s.authorize(token); err != nil {
		return 0, err
	}

	affected, err := s.departments.UpsertBatch(ctx, normalizeDepartments(items))
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("affected", affected).Msg("departments seeded")
	return affected, nil
}

// SeedProfiles inserts profiles that do not exist yet. Existing profiles keep their role and data.
func (s *seedService) SeedProfiles(ctx context.Context, token string, items []models.Profile) (int64, error) {
	if err := s.authorize(token); err != nil {
		return 0, err
	}

	affected, err := s.profiles.InsertMissing(ctx, normalizeProfiles(items))
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("affected", affected).Msg("profiles seeded")
	return affected, nil
}

func (s *seedService) authorize(token string) error {
	if !s.enabled {
		return ErrSeedDisabled
	}
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return ErrSeedUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) != 1 {
		return ErrSeedUnauthorized
	}
	return nil
}

func normalizeDepartments(items []models.Department) []models.Department {
	out := make([]models.Department, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		key := strings.ToLower(item.Name)
		if item.Name == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func normalizeProfiles(items []models.Profile) []models.Profile {
	out := make([]models.Profile, 0, len(items))
	for _, item := range items {
		item.FullName = strings.TrimSpace(item.FullName)
		if item.FullName == "" {
			continue
		}
		item.Role = strings.ToLower(strings.TrimSpace(item.Role))
		if !models.IsValidRole(item.Role) {
			item.Role = models.RoleIntern
		}
		// departments are chosen by the intern
		item.DepartmentID = nil
		out = append(out, item)
	}
	return out
}
