package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/internal/models"
	"github.com/noah-isme/lira-intern-api/internal/observability"
	"github.com/noah-isme/lira-intern-api/internal/repository"
)

var (
	// ErrActivityNotFound indicates the activity does not exist or is not visible to the actor.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrActivityAlreadyReviewed indicates another decision was already recorded.
	ErrActivityAlreadyReviewed = errors.New("activity already reviewed")
	// ErrInvalidLocation indicates the location payload does not match the expected shape.
	ErrInvalidLocation = errors.New("invalid activity location")
	// ErrActivityContentEmpty indicates the content was empty after sanitization.
	ErrActivityContentEmpty = errors.New("activity content empty after sanitization")
)

const locationSchemaURL = "lira://schemas/activity-location.json"

const locationSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "name": {"type": "string", "minLength": 1, "maxLength": 255},
    "address": {"type": "string", "maxLength": 512},
    "lat": {"type": "number", "minimum": -90, "maximum": 90},
    "lng": {"type": "number", "minimum": -180, "maximum": 180}
  },
  "anyOf": [
    {"required": ["name"]},
    {"required": ["lat", "lng"]}
  ]
}`

// ActivityService manages submission, listing and review of intern activities.
type ActivityService interface {
	Submit(ctx context.Context, actor Actor, req dto.ActivityCreateRequest) (dto.ActivityResponse, error)
	Get(ctx context.Context, actor Actor, id string) (dto.ActivityResponse, error)
	List(ctx context.Context, actor Actor, req dto.ActivityListRequest) (dto.ActivityListResponse, error)
	Pending(ctx context.Context, actor Actor, page, pageSize int) (dto.ActivityListResponse, error)
	Review(ctx context.Context, actor Actor, id string, req dto.ActivityReviewRequest) (dto.ActivityResponse, error)
}

type activityService struct {
	activities repository.ActivityRepository
	comments   repository.CommentRepository
	profiles   repository.ProfileRepository
	notifier   Notifier
	recorder   ReviewRecorder
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	location   *jsonschema.Schema
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewActivityService constructs the activity service.
func NewActivityService(
	activities repository.ActivityRepository,
	comments repository.CommentRepository,
	profiles repository.ProfileRepository,
	notifier Notifier,
	recorder ReviewRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) ActivityService {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(locationSchemaURL, strings.NewReader(locationSchema)); err != nil {
		panic(fmt.Sprintf("invalid location schema: %v", err))
	}

	return &activityService{
		activities: activities,
		comments:   comments,
		profiles:   profiles,
		notifier:   notifier,
		recorder:   recorder,
		validator:  validate,
		sanitizer:  newContentPolicy(),
		location:   compiler.MustCompile(locationSchemaURL),
		logger:     logger.With().Str("component", "activity_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/lira-intern-api/internal/service/activity"),
		now:        time.Now,
	}
}

func (s *activityService) Submit(ctx context.Context, actor Actor, req dto.ActivityCreateRequest) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityResponse{}, err
	}
	if actor.Role != models.RoleIntern {
		return dto.ActivityResponse{}, ErrForbidden
	}

	ctx, span := s.tracer.Start(ctx, "activities.submit", trace.WithAttributes(
		attribute.String("activity.user_id", actor.ID),
	))
	defer span.End()

	content := strings.TrimSpace(s.sanitizer.Sanitize(req.Content))
	if content == "" {
		return dto.ActivityResponse{}, ErrActivityContentEmpty
	}

	location, err := s.normalizeLocation(req.Location)
	if err != nil {
		return dto.ActivityResponse{}, err
	}

	model := models.Activity{
		UserID:      actor.ID,
		Title:       strings.TrimSpace(s.sanitizer.Sanitize(req.Title)),
		Content:     content,
		Location:    location,
		Status:      req.Status,
		SubmittedAt: s.now().UTC(),
	}

	if req.GeneratedContent != nil {
		generated := strings.TrimSpace(s.sanitizer.Sanitize(*req.GeneratedContent))
		if generated != "" {
			model.GeneratedContent = &generated
		}
	}

	if req.ActivityDate != "" {
		date, err := parseDate(req.ActivityDate)
		if err != nil {
			return dto.ActivityResponse{}, fmt.Errorf("invalid activity date: %w", err)
		}
		model.ActivityDate = &date
	}

	if err := s.activities.Create(ctx, &model); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return dto.ActivityResponse{}, fmt.Errorf("create activity: %w", err)
	}

	reviewers, err := s.profiles.IDsByRoles(ctx, models.RoleStaff, models.RoleAdmin)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to resolve reviewers for submission notification")
	} else {
		s.notifier.NotifyUsers(ctx, reviewers, models.NotificationActivitySubmitted,
			"New activity submitted", fmt.Sprintf("%q is waiting for review.", model.Title))
	}

	stored, err := s.activities.FindByID(ctx, model.ID)
	if err != nil {
		return dto.NewActivityResponse(model), nil
	}
	return dto.NewActivityResponse(stored), nil
}

func (s *activityService) Get(ctx context.Context, actor Actor, id string) (dto.ActivityResponse, error) {
	activity, err := s.find(ctx, id)
	if err != nil {
		return dto.ActivityResponse{}, err
	}
	if !actor.IsReviewer() && activity.UserID != actor.ID {
		return dto.ActivityResponse{}, ErrActivityNotFound
	}
	return dto.NewActivityResponse(activity), nil
}

func (s *activityService) List(ctx context.Context, actor Actor, req dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityListResponse{}, err
	}

	filter := repository.ActivityFilter{
		Page:     maxInt(req.Page, 1),
		PageSize: req.PageSize,
		UserID:   req.UserID,
		Status:   req.Status,
		From:     req.From,
		To:       req.To,
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	if !actor.IsReviewer() {
		filter.UserID = actor.ID
	}

	items, total, err := s.activities.List(ctx, filter)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	return dto.ActivityListResponse{
		Items:      dto.NewActivityResponseSlice(items),
		Pagination: dto.NewPaginationMeta(filter.Page, filter.PageSize, total),
	}, nil
}

func (s *activityService) Pending(ctx context.Context, actor Actor, page, pageSize int) (dto.ActivityListResponse, error) {
	if !actor.IsReviewer() {
		return dto.ActivityListResponse{}, ErrForbidden
	}
	return s.List(ctx, actor, dto.ActivityListRequest{
		Page:     page,
		PageSize: pageSize,
		Status:   models.ActivityStatusPending,
	})
}

// Review records the first decision on a pending activity. Repeating the same decision is a no-op.
func (s *activityService) Review(ctx context.Context, actor Actor, id string, req dto.ActivityReviewRequest) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityResponse{}, err
	}
	if !actor.IsReviewer() {
		return dto.ActivityResponse{}, ErrForbidden
	}

	ctx, span := s.tracer.Start(ctx, "activities.review", trace.WithAttributes(
		attribute.String("activity.id", id),
		attribute.String("activity.decision", req.Status),
		attribute.String("reviewer.id", actor.ID),
	))
	defer span.End()

	activity, err := s.find(ctx, id)
	if err != nil {
		return dto.ActivityResponse{}, err
	}

	won := false
	if !activity.IsReviewed() {
		won, err = s.activities.Review(ctx, id, req.Status, actor.ID, s.now().UTC())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "review update failed")
			return dto.ActivityResponse{}, fmt.Errorf("review activity: %w", err)
		}
		// Re-read: either our decision or the one that beat us.
		activity, err = s.find(ctx, id)
		if err != nil {
			return dto.ActivityResponse{}, err
		}
	}

	if !won {
		if activity.Status != req.Status {
			observability.ReviewDecisions().WithLabelValues(req.Status, "conflict").Inc()
			return dto.ActivityResponse{}, ErrActivityAlreadyReviewed
		}
		observability.ReviewDecisions().WithLabelValues(req.Status, "noop").Inc()
		return dto.NewActivityResponse(activity), nil
	}

	observability.ReviewDecisions().WithLabelValues(req.Status, "applied").Inc()
	s.afterReview(ctx, actor, activity, req)

	return dto.NewActivityResponse(activity), nil
}

func (s *activityService) afterReview(ctx context.Context, actor Actor, activity models.Activity, req dto.ActivityReviewRequest) {
	feedback := strings.TrimSpace(s.sanitizer.Sanitize(req.Feedback))
	if feedback != "" {
		comment := models.Comment{ActivityID: activity.ID, UserID: actor.ID, Content: feedback}
		if err := s.comments.Create(ctx, &comment); err != nil {
			s.logger.Warn().Err(err).Str("activity_id", activity.ID).Msg("failed to store review feedback")
		}
	}

	message := fmt.Sprintf("Your activity %q was %s.", activity.Title, req.Status)
	if feedback != "" {
		message += " Feedback: " + feedback
	}
	s.notifier.NotifyUsers(ctx, []string{activity.UserID}, models.NotificationActivityReviewed, "Activity reviewed", message)

	action := ReviewActionApproved
	if req.Status == models.ActivityStatusRejected {
		action = ReviewActionRejected
	}
	entityID := activity.ID
	if err := s.recorder.Record(ctx, ReviewEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "activity",
		EntityID:   &entityID,
		Metadata: map[string]interface{}{
			"intern_id":    activity.UserID,
			"title":        activity.Title,
			"has_feedback": feedback != "",
		},
	}); err != nil {
		s.logger.Warn().Err(err).Str("activity_id", activity.ID).Msg("failed to record review log")
	}
}

func (s *activityService) find(ctx context.Context, id string) (models.Activity, error) {
	activity, err := s.activities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Activity{}, ErrActivityNotFound
		}
		return models.Activity{}, err
	}
	return activity, nil
}

// normalizeLocation accepts either a JSON object or a JSON string holding one.
func (s *activityService) normalizeLocation(raw json.RawMessage) (datatypes.JSON, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '"' {
		var encoded string
		if err := json.Unmarshal(trimmed, &encoded); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
		}
		encoded = strings.TrimSpace(encoded)
		if encoded == "" {
			return nil, nil
		}
		trimmed = []byte(encoded)
	}

	var value interface{}
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}
	if err := s.location.Validate(value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}
	return datatypes.JSON(normalized), nil
}
