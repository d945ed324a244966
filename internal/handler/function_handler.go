package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/internal/middleware"
	"github.com/noah-isme/lira-intern-api/internal/service"
)

const assistantFailureMessage = "Failed to generate AI response"

// FunctionHandler serves the assistant and free-model generation functions.
// Both speak a bare JSON contract instead of the API envelope.
type FunctionHandler struct {
	assistant  service.AssistantService
	generation service.GenerationService
	logger     zerolog.Logger
}

// NewFunctionHandler constructs the function handler.
func NewFunctionHandler(assistant service.AssistantService, generation service.GenerationService, logger zerolog.Logger) *FunctionHandler {
	return &FunctionHandler{
		assistant:  assistant,
		generation: generation,
		logger:     logger.With().Str("component", "function_handler").Logger(),
	}
}

// Register binds the function routes. Guards apply to POST only so preflight stays anonymous.
func (h *FunctionHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	router.Options("/ai-assistant", h.preflight)
	router.Options("/free-ai-models", h.preflight)
	router.Post("/ai-assistant", withGuards(guards, h.assist)...)
	router.Post("/free-ai-models", withGuards(guards, h.generate)...)
}

func withGuards(guards []fiber.Handler, final fiber.Handler) []fiber.Handler {
	chain := make([]fiber.Handler, 0, len(guards)+1)
	chain = append(chain, guards...)
	return append(chain, final)
}

func (h *FunctionHandler) preflight(c *fiber.Ctx) error {
	setFunctionCORS(c)
	return c.SendStatus(fiber.StatusOK)
}

func (h *FunctionHandler) assist(c *fiber.Ctx) error {
	setFunctionCORS(c)

	var payload dto.AssistantRequest
	if err := c.BodyParser(&payload); err != nil {
		return functionError(c, assistantFailureMessage, err.Error())
	}

	resp, err := h.assistant.Ask(requestContext(c), payload, middleware.UserRole(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("assistant request failed")
		return functionError(c, assistantFailureMessage, err.Error())
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *FunctionHandler) generate(c *fiber.Ctx) error {
	setFunctionCORS(c)

	var payload dto.GenerateRequest
	if err := c.BodyParser(&payload); err != nil {
		return functionError(c, service.GenerationMessageDefault, err.Error())
	}

	resp, err := h.generation.Generate(requestContext(c), payload)
	if err != nil {
		message := service.GenerationMessageDefault
		var genErr *service.GenerationError
		if errors.As(err, &genErr) {
			message = genErr.Message
		}
		requestLogger(h.logger, c).Warn().Err(err).Str("model", payload.Model).Msg("generation request failed")
		return functionError(c, message, err.Error())
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func setFunctionCORS(c *fiber.Ctx) {
	c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
	c.Set(fiber.HeaderAccessControlAllowHeaders, "authorization, x-client-info, apikey, content-type")
}

// FunctionRateLimited answers throttled function calls in the function JSON contract.
func FunctionRateLimited(c *fiber.Ctx) error {
	setFunctionCORS(c)
	return c.Status(fiber.StatusTooManyRequests).JSON(dto.FunctionError{
		Error:   service.GenerationMessageRateLimited,
		Details: "too many requests",
	})
}

// FunctionUnauthorized answers rejected function tokens in the function JSON contract.
func FunctionUnauthorized(c *fiber.Ctx, reason string) error {
	setFunctionCORS(c)
	return c.Status(fiber.StatusUnauthorized).JSON(dto.FunctionError{
		Error:   "Unauthorized",
		Details: reason,
	})
}

func functionError(c *fiber.Ctx, message, details string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(dto.FunctionError{Error: message, Details: details})
}
