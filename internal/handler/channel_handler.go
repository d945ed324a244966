package handler

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/internal/middleware"
	"github.com/noah-isme/lira-intern-api/internal/service"
	"github.com/noah-isme/lira-intern-api/internal/utils"
)

// ChannelHandler wires channel management, message history and the websocket upgrade.
type ChannelHandler struct {
	channels  service.ChannelService
	chat      service.ChatService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewChannelHandler creates a channel handler instance.
func NewChannelHandler(channels service.ChannelService, chat service.ChatService, validator *validator.Validate, logger zerolog.Logger) *ChannelHandler {
	return &ChannelHandler{
		channels:  channels,
		chat:      chat,
		validator: validator,
		logger:    logger.With().Str("component", "channel_handler").Logger(),
	}
}

// Register binds channel routes under the provided router group.
func (h *ChannelHandler) Register(router fiber.Router) {
	reviewer := middleware.AuthOptions{Role: middleware.AuthRoleReviewer}
	member := middleware.AuthOptions{RequireUser: true}

	router.Get("", middleware.WithAuth(h.list, member))
	router.Post("", middleware.WithAuth(h.create, reviewer))
	router.Get("/:id", middleware.WithAuth(h.get, member))
	router.Patch("/:id", middleware.WithAuth(h.update, reviewer))
	router.Delete("/:id", middleware.WithAuth(h.delete, reviewer))
	router.Get("/:id/messages", middleware.WithAuth(h.history, member))
	router.Post("/:id/messages", middleware.WithAuth(h.send, member))
	router.Post("/:id/media", middleware.WithAuth(h.sendMedia, member))

	router.Get("/:id/ws", middleware.WithAuth(h.upgrade, member), websocket.New(h.handleConnection))
}

func (h *ChannelHandler) list(c *fiber.Ctx) error {
	channels, err := h.channels.List(requestContext(c), actorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "channels retrieved", channels)
}

func (h *ChannelHandler) get(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	channel, err := h.channels.Get(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "channel retrieved", channel)
}

func (h *ChannelHandler) create(c *fiber.Ctx) error {
	var payload dto.ChannelCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", err.Error())
	}

	channel, err := h.channels.Create(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "channel created", channel)
}

func (h *ChannelHandler) update(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ChannelUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	channel, err := h.channels.Update(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "channel updated", channel)
}

func (h *ChannelHandler) delete(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.channels.Delete(requestContext(c), actorFromContext(c), id); err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "channel deleted", fiber.Map{"id": id})
}

func (h *ChannelHandler) history(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var beforePtr *time.Time
	if before := c.Query("before"); before != "" {
		parsed, err := time.Parse(time.RFC3339, before)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid before timestamp")
		}
		beforePtr = &parsed
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	query := dto.MessageHistoryQuery{Before: beforePtr, Limit: limit}
	messages, err := h.chat.History(requestContext(c), actorFromContext(c), id, query)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "channel history", messages)
}

func (h *ChannelHandler) send(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.MessageSendRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	message, err := h.chat.Send(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "message sent", message)
}

func (h *ChannelHandler) sendMedia(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	message, err := h.chat.SendMedia(requestContext(c), actorFromContext(c), id, file, c.FormValue("caption"))
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "media sent", message)
}

// upgrade checks channel access before the protocol switch so failures stay plain HTTP.
func (h *ChannelHandler) upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := requestContext(c)
	if err := h.chat.Authorize(ctx, actorFromContext(c), id); err != nil {
		return sendServiceError(c, h.logger, err)
	}

	c.Locals("channel_id", id)
	c.Locals("request_ctx", ctx)
	return c.Next()
}

func (h *ChannelHandler) handleConnection(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	channelID, _ := conn.Locals("channel_id").(string)
	role, _ := conn.Locals("user_role").(string)
	correlation, _ := conn.Locals("correlation_id").(string)
	baseCtx, _ := conn.Locals("request_ctx").(context.Context)

	opts := service.ChatConnectionOptions{
		UserID:        userID,
		Role:          role,
		ChannelID:     channelID,
		CorrelationID: correlation,
		Context:       baseCtx,
	}

	h.logger.Info().Str("user_id", userID).Str("channel_id", channelID).Msg("chat websocket connected")
	h.chat.ServeConnection(conn, opts)
	h.logger.Info().Str("user_id", userID).Str("channel_id", channelID).Msg("chat websocket disconnected")
}
