package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/internal/models"
	"github.com/noah-isme/lira-intern-api/internal/repository"
)

// ErrCommentEmpty indicates the comment was empty after sanitization.
var ErrCommentEmpty = errors.New("comment content empty after sanitization")

// CommentService manages the append-only discussion on an activity.
type CommentService interface {
	List(ctx context.Context, actor Actor, activityID string) ([]dto.CommentResponse, error)
	Create(ctx context.Context, actor Actor, activityID string, req dto.CommentCreateRequest) (dto.CommentResponse, error)
}

type commentService struct {
	comments   repository.CommentRepository
	activities repository.ActivityRepository
	profiles   repository.ProfileRepository
	notifier   Notifier
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
}

// NewCommentService constructs the comment service.
func NewCommentService(comments repository.CommentRepository, activities repository.ActivityRepository, profiles repository.ProfileRepository, notifier Notifier, validate *validator.Validate, logger zerolog.Logger) CommentService {
	return &commentService{
		comments:   comments,
		activities: activities,
		profiles:   profiles,
		notifier:   notifier,
		validator:  validate,
		sanitizer:  newContentPolicy(),
		logger:     logger.With().Str("component", "comment_service").Logger(),
	}
}

func (s *commentService) List(ctx context.Context, actor Actor, activityID string) ([]dto.CommentResponse, error) {
	if _, err := s.visibleActivity(ctx, actor, activityID); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	return dto.NewCommentResponseSlice(comments), nil
}

func (s *commentService) Create(ctx context.Context, actor Actor, activityID string, req dto.CommentCreateRequest) (dto.CommentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CommentResponse{}, err
	}

	activity, err := s.visibleActivity(ctx, actor, activityID)
	if err != nil {
		return dto.CommentResponse{}, err
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(req.Content))
	if content == "" {
		return dto.CommentResponse{}, ErrCommentEmpty
	}

	comment := models.Comment{ActivityID: activity.ID, UserID: actor.ID, Content: content}
	if err := s.comments.Create(ctx, &comment); err != nil {
		return dto.CommentResponse{}, fmt.Errorf("create comment: %w", err)
	}

	if author, err := s.profiles.FindByID(ctx, actor.ID); err == nil {
		comment.Author = &author
	}

	recipient := activity.UserID
	if recipient == actor.ID && activity.ReviewedBy != nil {
		recipient = *activity.ReviewedBy
	}
	if recipient != actor.ID {
		s.notifier.NotifyUsers(ctx, []string{recipient}, models.NotificationNewComment,
			"New comment", fmt.Sprintf("New comment on %q.", activity.Title))
	}

	return dto.NewCommentResponse(comment), nil
}

func (s *commentService) visibleActivity(ctx context.Context, actor Actor, activityID string) (models.Activity, error) {
	activity, err := s.activities.FindByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Activity{}, ErrActivityNotFound
		}
		return models.Activity{}, err
	}
	if !actor.IsReviewer() && activity.UserID != actor.ID {
		return models.Activity{}, ErrActivityNotFound
	}
	return activity, nil
}
