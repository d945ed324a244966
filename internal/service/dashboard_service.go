package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/internal/models"
	"github.com/noah-isme/lira-intern-api/internal/observability"
	"github.com/noah-isme/lira-intern-api/internal/repository"
)

// DashboardService produces the per-role counters shown on the portal home page.
type DashboardService interface {
	Stats(ctx context.Context, actor Actor) (dto.DashboardStatsResponse, error)
}

type dashboardService struct {
	activities    repository.ActivityRepository
	profiles      repository.ProfileRepository
	departments   repository.DepartmentRepository
	channels      repository.ChannelRepository
	notifications repository.NotificationRepository
	cache         *redis.Client
	cacheTTL      time.Duration
	logger        zerolog.Logger
	now           func() time.Time
}

// NewDashboardService builds the dashboard aggregator.
func NewDashboardService(
	activities repository.ActivityRepository,
	profiles repository.ProfileRepository,
	departments repository.DepartmentRepository,
	channels repository.ChannelRepository,
	notifications repository.NotificationRepository,
	cache *redis.Client,
	ttl time.Duration,
	logger zerolog.Logger,
) DashboardService {
	return &dashboardService{
		activities:    activities,
		profiles:      profiles,
		departments:   departments,
		channels:      channels,
		notifications: notifications,
		cache:         cache,
		cacheTTL:      ttl,
		logger:        logger.With().Str("component", "dashboard_service").Logger(),
		now:           time.Now,
	}
}

func (s *dashboardService) Stats(ctx context.Context, actor Actor) (dto.DashboardStatsResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:%s:%s", actor.Role, actor.ID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.DashboardStatsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.DashboardCache().WithLabelValues("hit").Inc()
				response.Cached = true
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
		observability.DashboardCache().WithLabelValues("miss").Inc()
	}

	response, err := s.build(ctx, actor)
	if err != nil {
		return dto.DashboardStatsResponse{}, err
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func (s *dashboardService) build(ctx context.Context, actor Actor) (dto.DashboardStatsResponse, error) {
	scope := actor.ID
	if actor.IsReviewer() {
		scope = ""
	}

	counts, err := s.activities.CountByStatus(ctx, scope)
	if err != nil {
		return dto.DashboardStatsResponse{}, fmt.Errorf("count activities: %w", err)
	}

	unread, err := s.notifications.CountUnread(ctx, actor.ID)
	if err != nil {
		return dto.DashboardStatsResponse{}, fmt.Errorf("count unread notifications: %w", err)
	}

	channels, err := s.channels.List(ctx)
	if err != nil {
		return dto.DashboardStatsResponse{}, fmt.Errorf("list channels: %w", err)
	}
	var visible int64
	for _, channel := range channels {
		if canAccessChannel(actor, channel) {
			visible++
		}
	}

	response := dto.DashboardStatsResponse{
		Role:                actor.Role,
		TotalActivities:     counts.Total,
		PendingActivities:   counts.Pending,
		ApprovedActivities:  counts.Approved,
		RejectedActivities:  counts.Rejected,
		UnreadNotifications: unread,
		Channels:            visible,
		GeneratedAt:         s.now().UTC(),
	}

	if actor.IsReviewer() {
		if response.TotalInterns, err = s.profiles.CountByRole(ctx, models.RoleIntern); err != nil {
			return dto.DashboardStatsResponse{}, fmt.Errorf("count interns: %w", err)
		}
		if response.TotalDepartments, err = s.departments.Count(ctx); err != nil {
			return dto.DashboardStatsResponse{}, fmt.Errorf("count departments: %w", err)
		}
	}

	return response, nil
}
