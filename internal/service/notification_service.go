package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/internal/models"
	"github.com/noah-isme/lira-intern-api/internal/observability"
	"github.com/noah-isme/lira-intern-api/internal/repository"
)

// streamBuffer is how many notifications a slow SSE client may lag behind
// before further ones are dropped for it.
const streamBuffer = 16

var (
	// ErrNotificationNotFound indicates the notification does not exist for the user.
	ErrNotificationNotFound = errors.New("notification not found")
	errNotificationTitle    = errors.New("notification title empty after sanitization")
)

// Notifier delivers best-effort notifications on behalf of other services.
type Notifier interface {
	NotifyUsers(ctx context.Context, userIDs []string, kind, title, message string)
}

// NotificationService owns the per-user inbox and its live SSE streams.
type NotificationService interface {
	Notifier
	Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error)
	List(ctx context.Context, userID string, query dto.NotificationListQuery) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, id, userID string) (dto.NotificationResponse, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	Subscribe(userID string) (<-chan dto.NotificationResponse, func())
	Start(ctx context.Context)
}

type notificationService struct {
	repo      repository.NotificationRepository
	relay     *relay
	streams   *inboxStreams
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewNotificationService wires the inbox. Redis and NATS are optional and only
// carry notifications to SSE clients connected to other nodes.
func NewNotificationService(repo repository.NotificationRepository, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, validate *validator.Validate, logger zerolog.Logger) NotificationService {
	log := logger.With().Str("component", "notification_service").Logger()
	return &notificationService{
		repo:      repo,
		relay:     newRelay(redisClient, natsConn, channelBase, "notifications", log),
		streams:   &inboxStreams{byUser: make(map[string]map[chan dto.NotificationResponse]struct{})},
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    log,
		tracer:    otel.Tracer("github.com/noah-isme/lira-intern-api/internal/service/notification"),
	}
}

func (s *notificationService) Start(ctx context.Context) {
	s.relay.listen(ctx, s.receiveRemote)
}

func (s *notificationService) Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.NotificationResponse{}, err
	}

	notification := models.Notification{
		UserID:  payload.UserID,
		Type:    payload.Type,
		Title:   strings.TrimSpace(s.sanitizer.Sanitize(payload.Title)),
		Message: strings.TrimSpace(s.sanitizer.Sanitize(payload.Message)),
	}
	if notification.Title == "" {
		return dto.NotificationResponse{}, errNotificationTitle
	}

	ctx, span := s.tracer.Start(ctx, "notifications.publish", trace.WithAttributes(
		attribute.String("notification.user_id", payload.UserID),
		attribute.String("notification.type", payload.Type),
	))
	defer span.End()

	if err := s.repo.Create(ctx, &notification); err != nil {
		span.RecordError(err)
		return dto.NotificationResponse{}, err
	}

	response := dto.NewNotificationResponse(notification)
	s.deliver(response)
	if err := s.relay.send(ctx, response); err != nil {
		s.logger.Warn().Err(err).Str("notification_id", response.ID).Msg("notification relay failed")
	}
	return response, nil
}

// NotifyUsers publishes one notification per distinct recipient and only logs failures.
func (s *notificationService) NotifyUsers(ctx context.Context, userIDs []string, kind, title, message string) {
	for _, userID := range uniqueIDs(userIDs) {
		_, err := s.Publish(ctx, dto.NotificationCreateRequest{
			UserID:  userID,
			Type:    kind,
			Title:   title,
			Message: message,
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Str("type", kind).Msg("failed to deliver notification")
		}
	}
}

func (s *notificationService) List(ctx context.Context, userID string, query dto.NotificationListQuery) ([]dto.NotificationResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrForbidden
	}

	notifications, err := s.repo.List(ctx, repository.NotificationQuery{
		UserID:     userID,
		UnreadOnly: query.Unread,
		Limit:      query.Limit,
		Offset:     query.Offset,
	})
	if err != nil {
		return nil, err
	}
	return dto.NewNotificationResponseSlice(notifications), nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID string) (dto.NotificationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "notifications.mark_read", trace.WithAttributes(
		attribute.String("notification.id", id),
		attribute.String("notification.user_id", userID),
	))
	defer span.End()

	notification, err := s.repo.MarkRead(ctx, id, userID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return dto.NotificationResponse{}, ErrNotificationNotFound
	case err != nil:
		span.RecordError(err)
		return dto.NotificationResponse{}, err
	}
	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "notifications.mark_all_read", trace.WithAttributes(
		attribute.String("notification.user_id", userID),
	))
	defer span.End()

	updated, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		span.RecordError(err)
	}
	return updated, err
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

// Subscribe opens a live stream for userID. The returned func closes it.
func (s *notificationService) Subscribe(userID string) (<-chan dto.NotificationResponse, func()) {
	stream := make(chan dto.NotificationResponse, streamBuffer)
	s.streams.add(userID, stream)
	observability.SSEClientsActive().Inc()

	var once sync.Once
	return stream, func() {
		once.Do(func() {
			s.streams.remove(userID, stream)
			observability.SSEClientsActive().Dec()
		})
	}
}

func (s *notificationService) deliver(notification dto.NotificationResponse) {
	observability.NotificationsPublishedTotal().WithLabelValues(notification.Type).Inc()
	if dropped := s.streams.send(notification); dropped > 0 {
		s.logger.Debug().Str("user_id", notification.UserID).Int("dropped", dropped).Msg("slow notification streams skipped")
	}
}

func (s *notificationService) receiveRemote(body json.RawMessage) {
	var notification dto.NotificationResponse
	if err := json.Unmarshal(body, &notification); err != nil || notification.UserID == "" {
		s.logger.Warn().Err(err).Msg("ignoring unreadable remote notification")
		return
	}
	if notification.Type == "" {
		notification.Type = "generic"
	}
	s.deliver(notification)
}

// inboxStreams maps each user to the SSE streams currently open for them.
type inboxStreams struct {
	mu     sync.RWMutex
	byUser map[string]map[chan dto.NotificationResponse]struct{}
}

func (i *inboxStreams) add(userID string, stream chan dto.NotificationResponse) {
	i.mu.Lock()
	defer i.mu.Unlock()

	streams, ok := i.byUser[userID]
	if !ok {
		streams = make(map[chan dto.NotificationResponse]struct{})
		i.byUser[userID] = streams
	}
	streams[stream] = struct{}{}
}

func (i *inboxStreams) remove(userID string, stream chan dto.NotificationResponse) {
	i.mu.Lock()
	defer i.mu.Unlock()

	streams := i.byUser[userID]
	if _, ok := streams[stream]; !ok {
		return
	}
	delete(streams, stream)
	close(stream)
	if len(streams) == 0 {
		delete(i.byUser, userID)
	}
}

// send never blocks; it returns how many full streams were skipped.
func (i *inboxStreams) send(notification dto.NotificationResponse) int {
	i.mu.RLock()
	defer i.mu.RUnlock()

	dropped := 0
	for stream := range i.byUser[notification.UserID] {
		select {
		case stream <- notification:
		default:
			dropped++
		}
	}
	return dropped
}
