package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/internal/middleware"
	"github.com/noah-isme/lira-intern-api/internal/service"
	"github.com/noah-isme/lira-intern-api/internal/utils"
)

// ActivityHandler exposes activity submission, listing and review.
type ActivityHandler struct {
	service   service.ActivityService
	comments  service.CommentService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewActivityHandler constructs the activity handler.
func NewActivityHandler(service service.ActivityService, comments service.CommentService, validator *validator.Validate, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service:   service,
		comments:  comments,
		validator: validator,
		logger:    logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register binds activity and comment routes.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("", middleware.WithAuth(h.list, middleware.AuthOptions{RequireUser: true}))
	router.Post("", middleware.WithAuth(h.submit, middleware.AuthOptions{Role: middleware.AuthRoleIntern}))
	router.Get("/pending", middleware.WithAuth(h.pending, middleware.AuthOptions{Role: middleware.AuthRoleReviewer}))
	router.Get("/:id", middleware.WithAuth(h.get, middleware.AuthOptions{RequireUser: true}))
	router.Post("/:id/review", middleware.WithAuth(h.review, middleware.AuthOptions{Role: middleware.AuthRoleReviewer}))
	router.Get("/:id/comments", middleware.WithAuth(h.listComments, middleware.AuthOptions{RequireUser: true}))
	router.Post("/:id/comments", middleware.WithAuth(h.createComment, middleware.AuthOptions{RequireUser: true}))
}

func (h *ActivityHandler) submit(c *fiber.Ctx) error {
	var payload dto.ActivityCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", err.Error())
	}

	activity, err := h.service.Submit(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity submitted", activity)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}
	from, err := parseQueryDate(c, "from")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid from date")
	}
	to, err := parseQueryDate(c, "to")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid to date")
	}

	req := dto.ActivityListRequest{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
		UserID:   c.Query("user_id"),
		From:     from,
		To:       to,
	}

	result, err := h.service.List(requestContext(c), actorFromContext(c), req)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.OK(c, result.Items, "activities retrieved", result.Pagination)
}

func (h *ActivityHandler) pending(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}

	result, err := h.service.Pending(requestContext(c), actorFromContext(c), page, pageSize)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.OK(c, result.Items, "pending activities", result.Pagination)
}

func (h *ActivityHandler) get(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	activity, err := h.service.Get(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "activity retrieved", activity)
}

func (h *ActivityHandler) review(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ActivityReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	activity, err := h.service.Review(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "activity reviewed", activity)
}

func (h *ActivityHandler) listComments(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	comments, err := h.comments.List(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "comments retrieved", comments)
}

func (h *ActivityHandler) createComment(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CommentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	comment, err := h.comments.Create(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "comment created", comment)
}
