package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lira-intern-api/internal/models"
	"github.com/noah-isme/lira-intern-api/internal/service"
	"github.com/noah-isme/lira-intern-api/internal/utils"
)

const seedTokenHeader = "X-Seed-Token"

// SeedHandler loads reference data. Routes sit outside the JWT group and are
// guarded by the shared seed token instead.
type SeedHandler struct {
	service service.SeedService
	logger  zerolog.Logger
}

func NewSeedHandler(service service.SeedService, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		service: service,
		logger:  logger.With().Str("component", "seed_handler").Logger(),
	}
}

func (h *SeedHandler) Register(router fiber.Router) {
	router.Post("/departments", seedRoute(h, "departments", h.service.SeedDepartments))
	router.Post("/profiles", seedRoute(h, "profiles", h.service.SeedProfiles))
}

type seedBatch[T any] struct {
	Items []T `json:"items"`
}

func seedRoute[T models.Department | models.Profile](h *SeedHandler, kind string, run func(context.Context, string, []T) (int64, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var batch seedBatch[T]
		if err := c.BodyParser(&batch); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}

		affected, err := run(requestContext(c), c.Get(seedTokenHeader), batch.Items)
		switch {
		case errors.Is(err, service.ErrSeedDisabled):
			return utils.SendError(c, fiber.StatusForbidden, "seeding disabled")
		case errors.Is(err, service.ErrSeedUnauthorized):
			h.logger.Warn().Str("ip", c.IP()).Str("kind", kind).Msg("seed token rejected")
			return utils.SendError(c, fiber.StatusForbidden, "invalid token")
		case err != nil:
			h.logger.Error().Err(err).Str("kind", kind).Msg("seed operation failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "seed operation failed")
		}

		h.logger.Info().Str("kind", kind).Int("received", len(batch.Items)).Int64("affected", affected).Msg("seed applied")
		return utils.SendSuccess(c, kind+" seeded", fiber.Map{"affected": affected})
	}
}
