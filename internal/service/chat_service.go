package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/websocket/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/internal/middleware"
	"github.com/noah-isme/lira-intern-api/internal/models"
	"github.com/noah-isme/lira-intern-api/internal/observability"
	"github.com/noah-isme/lira-intern-api/internal/repository"
)

const (
	chatRedisTTL       = 30 * time.Minute
	chatSendBufferSize = 32
	chatPingInterval   = 30 * time.Second
	chatHistoryLimit   = 50
)

// ErrMessageEmpty indicates a message carried neither text nor media.
var ErrMessageEmpty = errors.New("message content empty after sanitization")

// ChatConnectionOptions wraps metadata extracted during the HTTP upgrade.
type ChatConnectionOptions struct {
	UserID        string
	Role          string
	ChannelID     string
	CorrelationID string
	Context       context.Context
}

// ChatService persists channel messages and streams them to websocket clients.
type ChatService interface {
	Authorize(ctx context.Context, actor Actor, channelID string) error
	ServeConnection(conn *websocket.Conn, opts ChatConnectionOptions)
	History(ctx context.Context, actor Actor, channelID string, query dto.MessageHistoryQuery) ([]dto.MessageResponse, error)
	Send(ctx context.Context, actor Actor, channelID string, req dto.MessageSendRequest) (dto.MessageResponse, error)
	SendMedia(ctx context.Context, actor Actor, channelID string, file *multipart.FileHeader, caption string) (dto.MessageResponse, error)
	Start(ctx context.Context)
}

type chatService struct {
	channels   repository.ChannelRepository
	messages   repository.MessageRepository
	profiles   repository.ProfileRepository
	uploads    UploadService
	notifier   Notifier
	relay      *relay
	redis      *redis.Client
	redisCache string
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer
	sanitizer  *bluemonday.Policy
	hub        *chatHub
}

// chatHub keeps track of active websocket clients per channel.
type chatHub struct {
	mu       sync.RWMutex
	channels map[string]map[*chatClient]struct{}
	log      zerolog.Logger
}

type chatClient struct {
	conn    *websocket.Conn
	send    chan dto.MessageResponse
	options ChatConnectionOptions
	service *chatService
	closed  chan struct{}
	once    sync.Once
}

// NewChatService creates the channel messaging service.
func NewChatService(
	channels repository.ChannelRepository,
	messages repository.MessageRepository,
	profiles repository.ProfileRepository,
	uploads UploadService,
	notifier Notifier,
	redisClient *redis.Client,
	channelBase string,
	natsConn *nats.Conn,
	validate *validator.Validate,
	logger zerolog.Logger,
) ChatService {
	cachePrefix := ""
	if channelBase != "" {
		cachePrefix = channelBase + ":chat:last"
	}
	log := logger.With().Str("component", "chat_service").Logger()

	return &chatService{
		channels:   channels,
		messages:   messages,
		profiles:   profiles,
		uploads:    uploads,
		notifier:   notifier,
		relay:      newRelay(redisClient, natsConn, channelBase, "chat", log),
		redis:      redisClient,
		redisCache: cachePrefix,
		validator:  validate,
		logger:     log,
		tracer:     otel.Tracer("github.com/noah-isme/lira-intern-api/internal/service/chat"),
		sanitizer:  newContentPolicy(),
		hub: &chatHub{
			channels: make(map[string]map[*chatClient]struct{}),
			log:      logger.With().Str("component", "chat_hub").Logger(),
		},
	}
}

func (s *chatService) Start(ctx context.Context) {
	s.relay.listen(ctx, s.receiveRemote)
}

func (s *chatService) Authorize(ctx context.Context, actor Actor, channelID string) error {
	_, err := findAccessibleChannel(ctx, s.channels, actor, channelID)
	return err
}

func (s *chatService) ServeConnection(conn *websocket.Conn, opts ChatConnectionOptions) {
	baseCtx := opts.Context
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	opts.Context = baseCtx

	client := &chatClient{
		conn:    conn,
		send:    make(chan dto.MessageResponse, chatSendBufferSize),
		options: opts,
		service: s,
		closed:  make(chan struct{}),
	}

	s.hub.register(client)
	observability.ChatConnectionsTotal().Inc()

	if last := s.lastMessage(baseCtx, opts.ChannelID); last != nil {
		select {
		case client.send <- *last:
		default:
		}
	}

	go client.writer()
	client.reader()
}

func (s *chatService) History(ctx context.Context, actor Actor, channelID string, query dto.MessageHistoryQuery) ([]dto.MessageResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, err
	}
	if err := s.Authorize(ctx, actor, channelID); err != nil {
		return nil, err
	}

	before := time.Time{}
	if query.Before != nil {
		before = *query.Before
	}
	limit := query.Limit
	if limit <= 0 {
		limit = chatHistoryLimit
	}

	messages, err := s.messages.ListByChannel(ctx, channelID, before, limit)
	if err != nil {
		return nil, err
	}
	return dto.NewMessageResponseSlice(messages), nil
}

func (s *chatService) Send(ctx context.Context, actor Actor, channelID string, req dto.MessageSendRequest) (dto.MessageResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.MessageResponse{}, err
	}

	channel, err := findAccessibleChannel(ctx, s.channels, actor, channelID)
	if err != nil {
		return dto.MessageResponse{}, err
	}

	clean := strings.TrimSpace(s.sanitizer.Sanitize(req.Content))
	if clean == "" {
		return dto.MessageResponse{}, ErrMessageEmpty
	}

	return s.deliver(ctx, actor, channel, models.Message{
		ChannelID: channel.ID,
		UserID:    actor.ID,
		Content:   clean,
	}, "text")
}

func (s *chatService) SendMedia(ctx context.Context, actor Actor, channelID string, file *multipart.FileHeader, caption string) (dto.MessageResponse, error) {
	channel, err := findAccessibleChannel(ctx, s.channels, actor, channelID)
	if err != nil {
		return dto.MessageResponse{}, err
	}

	upload, err := s.uploads.Upload(ctx, file, UploadPurposeMessage)
	if err != nil {
		return dto.MessageResponse{}, err
	}

	url := upload.URL
	mediaType := upload.MimeType
	return s.deliver(ctx, actor, channel, models.Message{
		ChannelID: channel.ID,
		UserID:    actor.ID,
		Content:   strings.TrimSpace(s.sanitizer.Sanitize(caption)),
		MediaURL:  &url,
		MediaType: &mediaType,
	}, "media")
}

func (s *chatService) deliver(ctx context.Context, actor Actor, channel models.Channel, message models.Message, kind string) (dto.MessageResponse, error) {
	attrs := []attribute.KeyValue{
		attribute.String("chat.channel_id", channel.ID),
		attribute.String("chat.sender_id", actor.ID),
		attribute.String("chat.kind", kind),
	}
	if correlation := middleware.CorrelationIDFromContext(ctx); correlation != "" {
		attrs = append(attrs, attribute.String("correlation_id", correlation))
	}

	ctx, span := s.tracer.Start(ctx, "chat.broadcast", trace.WithAttributes(attrs...))
	defer span.End()

	if err := s.messages.Save(ctx, &message); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return dto.MessageResponse{}, fmt.Errorf("save message: %w", err)
	}
	if author, err := s.profiles.FindByID(ctx, actor.ID); err == nil {
		message.Author = &author
	}

	response := dto.NewMessageResponse(message)
	s.cacheLastMessage(ctx, response)
	s.hub.broadcast(response)
	if err := s.relay.send(ctx, response); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish chat event")
	}
	observability.ChatMessagesSent().WithLabelValues(kind).Inc()

	if recipients := channelRecipients(channel, actor.ID); len(recipients) > 0 {
		s.notifier.NotifyUsers(ctx, recipients, models.NotificationNewMessage,
			"New message", fmt.Sprintf("New message in %s.", channel.Name))
	}

	return response, nil
}

// channelRecipients lists members and the creator, minus the sender.
func channelRecipients(channel models.Channel, senderID string) []string {
	ids := append([]string{channel.CreatedBy}, channel.InternIDs...)
	out := make([]string, 0, len(ids))
	for _, id := range uniqueIDs(ids) {
		if id != senderID {
			out = append(out, id)
		}
	}
	return out
}

func (s *chatService) cacheLastMessage(ctx context.Context, message dto.MessageResponse) {
	if s.redis == nil || s.redisCache == "" {
		return
	}

	payload, err := json.Marshal(message)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal chat message for cache")
		return
	}

	key := fmt.Sprintf("%s:%s", s.redisCache, message.ChannelID)
	if err := s.redis.Set(ctx, key, payload, chatRedisTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache chat message")
	}
}

// lastMessage prefers the redis copy and falls back to the database.
func (s *chatService) lastMessage(ctx context.Context, channelID string) *dto.MessageResponse {
	if s.redis != nil && s.redisCache != "" {
		key := fmt.Sprintf("%s:%s", s.redisCache, channelID)
		if result, err := s.redis.Get(ctx, key).Result(); err == nil {
			var message dto.MessageResponse
			if err := json.Unmarshal([]byte(result), &message); err == nil {
				return &message
			}
			s.logger.Warn().Str("channel_id", channelID).Msg("failed to unmarshal cached chat message")
		}
	}

	latest, err := s.messages.LatestByChannel(ctx, channelID)
	if err != nil {
		return nil
	}
	response := dto.NewMessageResponse(latest)
	return &response
}

func (s *chatService) receiveRemote(body json.RawMessage) {
	var message dto.MessageResponse
	if err := json.Unmarshal(body, &message); err != nil || message.ChannelID == "" {
		s.logger.Warn().Err(err).Msg("ignoring unreadable remote message")
		return
	}
	s.hub.broadcast(message)
}

func (h *chatHub) register(client *chatClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channelID := client.options.ChannelID
	if _, exists := h.channels[channelID]; !exists {
		h.channels[channelID] = make(map[*chatClient]struct{})
	}
	h.channels[channelID][client] = struct{}{}
	h.log.Debug().Str("channel_id", channelID).Str("user_id", client.options.UserID).Msg("chat client connected")
}

func (h *chatHub) unregister(client *chatClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channelID := client.options.ChannelID
	if clients, ok := h.channels[channelID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.channels, channelID)
		}
	}
	h.log.Debug().Str("channel_id", channelID).Str("user_id", client.options.UserID).Msg("chat client disconnected")
}

func (h *chatHub) broadcast(message dto.MessageResponse) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.channels[message.ChannelID] {
		select {
		case client.send <- message:
		default:
			h.log.Warn().Str("channel_id", message.ChannelID).Str("user_id", client.options.UserID).Msg("dropping chat message for slow client")
		}
	}
}

func (h *chatHub) size(channelID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channelID])
}

// reader posts inbound frames. The sender sees its own message through the hub broadcast.
func (c *chatClient) reader() {
	defer c.close()

	ctx := middleware.ContextWithCorrelation(c.options.Context, c.options.CorrelationID)
	actor := Actor{ID: c.options.UserID, Role: c.options.Role}

	for {
		var payload dto.MessageSendRequest
		if err := c.conn.ReadJSON(&payload); err != nil {
			c.service.logger.Debug().Err(err).Msg("chat read loop ended")
			return
		}

		if _, err := c.service.Send(ctx, actor, c.options.ChannelID, payload); err != nil {
			c.service.logger.Warn().Err(err).Str("channel_id", c.options.ChannelID).Msg("failed to process chat message")
		}
	}
}

func (c *chatClient) writer() {
	defer c.close()

	ticker := time.NewTicker(chatPingInterval)
	defer ticker.Stop()

	for {
		select {
		case message := <-c.send:
			if err := c.conn.WriteJSON(message); err != nil {
				c.service.logger.Debug().Err(err).Msg("chat write loop terminated")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *chatClient) close() {
	c.once.Do(func() {
		close(c.closed)
		c.service.hub.unregister(c)
		_ = c.conn.Close()
	})
}
