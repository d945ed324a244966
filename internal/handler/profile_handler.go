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

// ProfileHandler serves self-service profile endpoints and the staff intern roster.
type ProfileHandler struct {
	service   service.ProfileService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewProfileHandler constructs the profile handler.
func NewProfileHandler(service service.ProfileService, validator *validator.Validate, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "profile_handler").Logger(),
	}
}

// Register binds profile routes.
func (h *ProfileHandler) Register(router fiber.Router) {
	self := middleware.AuthOptions{RequireUser: true}
	reviewer := middleware.AuthOptions{Role: middleware.AuthRoleReviewer}

	router.Post("", middleware.WithAuth(h.register, self))
	router.Get("/me", middleware.WithAuth(h.me, self))
	router.Patch("/me", middleware.WithAuth(h.update, self))
	router.Put("/me/department", middleware.WithAuth(h.selectDepartment, middleware.AuthOptions{Role: middleware.AuthRoleIntern}))
	router.Post("/me/avatar", middleware.WithAuth(h.uploadAvatar, self))
	router.Get("/interns", middleware.WithAuth(h.interns, reviewer))
	router.Get("/:id", middleware.WithAuth(h.get, reviewer))
}

func (h *ProfileHandler) register(c *fiber.Ctx) error {
	var payload dto.ProfileRegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	profile, err := h.service.Register(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "profile created", profile)
}

func (h *ProfileHandler) me(c *fiber.Ctx) error {
	profile, err := h.service.Get(requestContext(c), middleware.UserID(c))
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "profile retrieved", profile)
}

func (h *ProfileHandler) get(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	profile, err := h.service.Get(requestContext(c), id)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "profile retrieved", profile)
}

func (h *ProfileHandler) update(c *fiber.Ctx) error {
	var payload dto.ProfileUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	profile, err := h.service.Update(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "profile updated", profile)
}

func (h *ProfileHandler) selectDepartment(c *fiber.Ctx) error {
	var payload dto.DepartmentSelectRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	profile, err := h.service.SelectDepartment(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "department selected", profile)
}

func (h *ProfileHandler) uploadAvatar(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	profile, err := h.service.UploadAvatar(requestContext(c), actorFromContext(c), file)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "avatar updated", profile)
}

func (h *ProfileHandler) interns(c *fiber.Ctx) error {
	interns, err := h.service.ListInterns(requestContext(c), actorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "interns retrieved", interns)
}
