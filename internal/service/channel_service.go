package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/internal/models"
	"github.com/noah-isme/lira-intern-api/internal/repository"
)

// ErrChannelNotFound indicates the channel does not exist or is not visible to the caller.
var ErrChannelNotFound = errors.New("channel not found")

// ChannelService manages channel metadata and membership.
type ChannelService interface {
	List(ctx context.Context, actor Actor) ([]dto.ChannelResponse, error)
	Get(ctx context.Context, actor Actor, id string) (dto.ChannelResponse, error)
	Create(ctx context.Context, actor Actor, req dto.ChannelCreateRequest) (dto.ChannelResponse, error)
	Update(ctx context.Context, actor Actor, id string, req dto.ChannelUpdateRequest) (dto.ChannelResponse, error)
	Delete(ctx context.Context, actor Actor, id string) error
}

type channelService struct {
	repo      repository.ChannelRepository
	recorder  ReviewRecorder
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewChannelService constructs the channel service.
func NewChannelService(repo repository.ChannelRepository, recorder ReviewRecorder, validate *validator.Validate, logger zerolog.Logger) ChannelService {
	return &channelService{
		repo:      repo,
		recorder:  recorder,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "channel_service").Logger(),
	}
}

func (s *channelService) List(ctx context.Context, actor Actor) ([]dto.ChannelResponse, error) {
	channels, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	visible := make([]models.Channel, 0, len(channels))
	for _, channel := range channels {
		if canAccessChannel(actor, channel) {
			visible = append(visible, channel)
		}
	}
	return dto.NewChannelResponseSlice(visible), nil
}

func (s *channelService) Get(ctx context.Context, actor Actor, id string) (dto.ChannelResponse, error) {
	channel, err := findAccessibleChannel(ctx, s.repo, actor, id)
	if err != nil {
		return dto.ChannelResponse{}, err
	}
	return dto.NewChannelResponse(channel), nil
}

func (s *channelService) Create(ctx context.Context, actor Actor, req dto.ChannelCreateRequest) (dto.ChannelResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ChannelResponse{}, err
	}
	if !actor.IsReviewer() {
		return dto.ChannelResponse{}, ErrForbidden
	}

	name := strings.TrimSpace(s.sanitizer.Sanitize(req.Name))
	if name == "" {
		return dto.ChannelResponse{}, fmt.Errorf("channel name empty after sanitization")
	}

	channel := models.Channel{
		Name:        name,
		Description: s.cleanDescription(req.Description),
		InternIDs:   datatypes.JSONSlice[string](uniqueIDs(req.InternIDs)),
		CreatedBy:   actor.ID,
	}
	if err := s.repo.Create(ctx, &channel); err != nil {
		return dto.ChannelResponse{}, fmt.Errorf("create channel: %w", err)
	}

	s.record(ctx, actor, channel, "created")
	return dto.NewChannelResponse(channel), nil
}

func (s *channelService) Update(ctx context.Context, actor Actor, id string, req dto.ChannelUpdateRequest) (dto.ChannelResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ChannelResponse{}, err
	}
	if !actor.IsReviewer() {
		return dto.ChannelResponse{}, ErrForbidden
	}

	channel, err := findAccessibleChannel(ctx, s.repo, actor, id)
	if err != nil {
		return dto.ChannelResponse{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(s.sanitizer.Sanitize(*req.Name))
		if name == "" {
			return dto.ChannelResponse{}, fmt.Errorf("channel name empty after sanitization")
		}
		channel.Name = name
	}
	if req.Description != nil {
		channel.Description = s.cleanDescription(req.Description)
	}
	if req.InternIDs != nil {
		channel.InternIDs = datatypes.JSONSlice[string](uniqueIDs(*req.InternIDs))
	}

	if err := s.repo.Update(ctx, &channel); err != nil {
		return dto.ChannelResponse{}, fmt.Errorf("update channel: %w", err)
	}

	s.record(ctx, actor, channel, "updated")
	return dto.NewChannelResponse(channel), nil
}

func (s *channelService) Delete(ctx context.Context, actor Actor, id string) error {
	if !actor.IsReviewer() {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrChannelNotFound
		}
		return fmt.Errorf("delete channel: %w", err)
	}

	s.record(ctx, actor, models.Channel{ID: id}, "deleted")
	return nil
}

func (s *channelService) cleanDescription(value *string) *string {
	if value == nil {
		return nil
	}
	return optionalString(s.sanitizer.Sanitize(*value))
}

func (s *channelService) record(ctx context.Context, actor Actor, channel models.Channel, change string) {
	entityID := channel.ID
	metadata := map[string]interface{}{"change": change}
	if channel.Name != "" {
		metadata["name"] = channel.Name
		metadata["members"] = len(channel.InternIDs)
	}
	if err := s.recorder.Record(ctx, ReviewEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     ReviewActionChannel,
		EntityType: "channel",
		EntityID:   &entityID,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Str("channel_id", channel.ID).Msg("failed to record channel change")
	}
}

// canAccessChannel lets staff and admin into every channel and interns into the ones listing them.
func canAccessChannel(actor Actor, channel models.Channel) bool {
	if actor.IsReviewer() {
		return true
	}
	return channel.HasMember(actor.ID)
}

func findAccessibleChannel(ctx context.Context, repo repository.ChannelRepository, actor Actor, id string) (models.Channel, error) {
	channel, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Channel{}, ErrChannelNotFound
		}
		return models.Channel{}, err
	}
	if !canAccessChannel(actor, channel) {
		return models.Channel{}, ErrChannelNotFound
	}
	return channel, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
