package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/internal/models"
	"github.com/noah-isme/lira-intern-api/internal/repository"
)

// Review log actions.
const (
	ReviewActionApproved   = "activity.approved"
	ReviewActionRejected   = "activity.rejected"
	ReviewActionAttendance = "attendance.generated"
	ReviewActionChannel    = "channel.saved"
	ReviewActionDepartment = "department.created"
)

// ReviewEntry captures the details required to persist an audit entry.
type ReviewEntry struct {
	ActorID    string
	ActorRole  string
	Action     string
	EntityType string
	EntityID   *string
	Metadata   map[string]interface{}
}

// ReviewRecorder defines behaviour for recording audit entries.
type ReviewRecorder interface {
	Record(ctx context.Context, entry ReviewEntry) error
}

// ReviewLogService exposes methods to query and persist the review audit trail.
type ReviewLogService interface {
	ReviewRecorder
	List(ctx context.Context, req dto.ReviewLogListRequest) (dto.ReviewLogListResponse, error)
}

type reviewLogService struct {
	repo   repository.ReviewLogRepository
	logger zerolog.Logger
}

// NewReviewLogService constructs the review log service.
func NewReviewLogService(repo repository.ReviewLogRepository, logger zerolog.Logger) ReviewLogService {
	return &reviewLogService{
		repo:   repo,
		logger: logger.With().Str("component", "review_log_service").Logger(),
	}
}

func (s *reviewLogService) Record(ctx context.Context, entry ReviewEntry) error {
	if strings.TrimSpace(entry.Action) == "" {
		return fmt.Errorf("action is required")
	}
	if strings.TrimSpace(entry.EntityType) == "" {
		return fmt.Errorf("entity type is required")
	}

	model := models.ReviewLog{
		ActorID:    entry.ActorID,
		ActorRole:  normalizeRole(entry.ActorRole),
		Action:     strings.ToLower(strings.TrimSpace(entry.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(entry.EntityType)),
		EntityID:   entry.EntityID,
		Metadata:   sanitizeMetadata(entry.Metadata),
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Str("action", model.Action).Msg("failed to persist review log")
		return err
	}

	return nil
}

func (s *reviewLogService) List(ctx context.Context, req dto.ReviewLogListRequest) (dto.ReviewLogListResponse, error) {
	filter := repository.ReviewLogFilter{
		Page:       req.Page,
		PageSize:   req.PageSize,
		ActorID:    strings.TrimSpace(req.ActorID),
		Action:     strings.TrimSpace(req.Action),
		EntityType: strings.TrimSpace(req.EntityType),
		EntityID:   strings.TrimSpace(req.EntityID),
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.ReviewLogListResponse{}, err
	}

	pagination := dto.NewPaginationMeta(maxInt(req.Page, 1), req.PageSize, total)
	if req.PageSize <= 0 {
		pagination.TotalPages = 1
	}

	return dto.ReviewLogListResponse{Items: dto.NewReviewLogResponseSlice(entries), Pagination: pagination}, nil
}

// sanitizeMetadata masks values whose keys suggest credentials or contact data.
func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}

	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "email") || strings.Contains(lower, "token") || strings.Contains(lower, "phone") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}
