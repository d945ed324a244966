package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/internal/middleware"
	"github.com/noah-isme/lira-intern-api/internal/service"
	"github.com/noah-isme/lira-intern-api/internal/utils"
)

// DepartmentHandler exposes department reference data.
type DepartmentHandler struct {
	service service.DepartmentService
	logger  zerolog.Logger
}

// NewDepartmentHandler constructs the handler.
func NewDepartmentHandler(service service.DepartmentService, logger zerolog.Logger) *DepartmentHandler {
	return &DepartmentHandler{
		service: service,
		logger:  logger.With().Str("component", "department_handler").Logger(),
	}
}

// Register binds department routes.
func (h *DepartmentHandler) Register(router fiber.Router) {
	router.Get("", middleware.WithAuth(h.list, middleware.AuthOptions{RequireUser: true}))
	router.Post("", middleware.WithAuth(h.create, middleware.AuthOptions{Role: middleware.AuthRoleAdmin}))
}

func (h *DepartmentHandler) list(c *fiber.Ctx) error {
	departments, err := h.service.List(requestContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "departments retrieved", departments)
}

func (h *DepartmentHandler) create(c *fiber.Ctx) error {
	var payload dto.DepartmentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	department, err := h.service.Create(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "department created", department)
}
