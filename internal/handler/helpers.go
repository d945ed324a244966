package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lira-intern-api/internal/middleware"
	"github.com/noah-isme/lira-intern-api/internal/service"
	"github.com/noah-isme/lira-intern-api/internal/utils"
)

const dateLayout = "2006-01-02"

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseQueryDate(c *fiber.Ctx, key string) (*time.Time, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseUUIDParam(c *fiber.Ctx, name string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(c.Params(name)))
	if err != nil {
		return "", errors.New("invalid identifier")
	}
	return parsed.String(), nil
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	return service.Actor{
		ID:   middleware.UserID(c),
		Role: middleware.UserRole(c),
	}
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// sendServiceError maps service sentinels onto the response envelope.
func sendServiceError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", err.Error())
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, service.ErrActivityNotFound),
		errors.Is(err, service.ErrChannelNotFound),
		errors.Is(err, service.ErrNotificationNotFound),
		errors.Is(err, service.ErrProfileNotFound),
		errors.Is(err, service.ErrDepartmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrActivityAlreadyReviewed),
		errors.Is(err, service.ErrDepartmentAlreadySet),
		errors.Is(err, service.ErrDepartmentExists),
		errors.Is(err, service.ErrProfileExists):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrActivityContentEmpty),
		errors.Is(err, service.ErrCommentEmpty),
		errors.Is(err, service.ErrMessageEmpty),
		errors.Is(err, service.ErrProfileNameEmpty),
		errors.Is(err, service.ErrUploadMissing),
		errors.Is(err, service.ErrUploadTypeNotAllowed):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrUploadStorageUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
	default:
		requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
