package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/internal/middleware"
	"github.com/noah-isme/lira-intern-api/internal/service"
	"github.com/noah-isme/lira-intern-api/internal/utils"
)

// ReviewLogHandler exposes the audit trail to administrators.
type ReviewLogHandler struct {
	service service.ReviewLogService
	logger  zerolog.Logger
}

// NewReviewLogHandler constructs the handler.
func NewReviewLogHandler(service service.ReviewLogService, logger zerolog.Logger) *ReviewLogHandler {
	return &ReviewLogHandler{
		service: service,
		logger:  logger.With().Str("component", "review_log_handler").Logger(),
	}
}

// Register binds audit routes.
func (h *ReviewLogHandler) Register(router fiber.Router) {
	router.Get("", middleware.WithAuth(h.list, middleware.AuthOptions{Role: middleware.AuthRoleAdmin}))
}

func (h *ReviewLogHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}

	req := dto.ReviewLogListRequest{
		Page:       page,
		PageSize:   pageSize,
		ActorID:    c.Query("actor_id"),
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
	}

	result, err := h.service.List(requestContext(c), req)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.OK(c, result.Items, "review logs", result.Pagination)
}
