package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/internal/handler"
	"github.com/noah-isme/lira-intern-api/internal/service"
	"github.com/noah-isme/lira-intern-api/pkg/ai"
)

type stubAssistant struct {
	tokenRole string
	request   dto.AssistantRequest
	response  dto.AssistantResponse
	err       error
}

func (s *stubAssistant) Ask(_ context.Context, req dto.AssistantRequest, tokenRole string) (dto.AssistantResponse, error) {
	s.request = req
	s.tokenRole = tokenRole
	return s.response, s.err
}

type stubGenerator struct {
	text  string
	err   error
	calls int
}

func (s *stubGenerator) Generate(_ context.Context, _, _, _ string) (string, error) {
	s.calls++
	return s.text, s.err
}

func newFunctionApp(assistant service.AssistantService, generator service.Generator) *fiber.App {
	app := fiber.New()
	group := app.Group("/functions/v1")
	handler.NewFunctionHandler(assistant, service.NewGenerationService(generator, zerolog.Nop()), zerolog.Nop()).Register(group, asCaller)
	return app
}

func TestFunctionPreflightAnswersWithWildcardCORS(t *testing.T) {
	app := newFunctionApp(&stubAssistant{}, nil)

	for _, path := range []string{"/functions/v1/ai-assistant", "/functions/v1/free-ai-models"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodOptions, path, nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
		require.Contains(t, resp.Header.Get(fiber.HeaderAccessControlAllowHeaders), "content-type")
	}
}

func TestAssistantFunctionReturnsResponseAndContextUsed(t *testing.T) {
	assistant := &stubAssistant{response: dto.AssistantResponse{Response: "Hi there", ContextUsed: 42}}
	app := newFunctionApp(assistant, nil)

	req := withCaller(jsonRequest(t, http.MethodPost, "/functions/v1/ai-assistant", map[string]string{"message": "hello"}), "3a1f7c2e-1b2d-4e5f-8a9b-0c1d2e3f4a5b", "staff")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))

	var body map[string]interface{}
	decodeResponse(t, resp, &body)
	require.Equal(t, "Hi there", body["response"])
	require.Equal(t, float64(42), body["contextUsed"])
	require.Equal(t, "staff", assistant.tokenRole)
	require.Equal(t, "hello", assistant.request.Message)
}

func TestAssistantFunctionFailureUsesFixedMessage(t *testing.T) {
	assistant := &stubAssistant{err: errors.New("upstream exploded")}
	app := newFunctionApp(assistant, nil)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/functions/v1/ai-assistant", map[string]string{"message": "hello"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var body dto.FunctionError
	decodeResponse(t, resp, &body)
	require.Equal(t, "Failed to generate AI response", body.Error)
	require.Equal(t, "upstream exploded", body.Details)
}

func TestFunctionErrorAlwaysCarriesDetailsKey(t *testing.T) {
	app := newFunctionApp(&stubAssistant{err: errors.New("")}, nil)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/functions/v1/ai-assistant", map[string]string{"message": "hello"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var body map[string]interface{}
	decodeResponse(t, resp, &body)
	require.Equal(t, "Failed to generate AI response", body["error"])
	details, ok := body["details"]
	require.True(t, ok)
	require.Equal(t, "", details)
}

func TestFunctionUnauthorizedAnswersInFunctionContract(t *testing.T) {
	app := fiber.New()
	app.Post("/functions/v1/ai-assistant", func(c *fiber.Ctx) error {
		return handler.FunctionUnauthorized(c, "invalid token")
	})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/functions/v1/ai-assistant", map[string]string{"message": "hello"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))

	var body dto.FunctionError
	decodeResponse(t, resp, &body)
	require.Equal(t, "Unauthorized", body.Error)
	require.Equal(t, "invalid token", body.Details)
}

func TestGenerateFunctionRequiresModelAndPrompt(t *testing.T) {
	generator := &stubGenerator{text: "unused"}
	app := newFunctionApp(&stubAssistant{}, generator)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/functions/v1/free-ai-models", map[string]string{"prompt": "write"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var body dto.FunctionError
	decodeResponse(t, resp, &body)
	require.Equal(t, service.GenerationMessageDefault, body.Error)
	require.Equal(t, "Model and prompt are required", body.Details)
	require.Zero(t, generator.calls)
}

func TestGenerateFunctionEchoesModelAndContext(t *testing.T) {
	generator := &stubGenerator{text: "A detailed report about the day."}
	app := newFunctionApp(&stubAssistant{}, generator)

	payload := dto.GenerateRequest{Model: "google/flan-t5-base", Prompt: "met the team", Context: "activity"}
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/functions/v1/free-ai-models", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body dto.GenerateResponse
	decodeResponse(t, resp, &body)
	require.Equal(t, "A detailed report about the day.", body.Response)
	require.Equal(t, "google/flan-t5-base", body.Model)
	require.Equal(t, "activity", body.Context)
}

func TestGenerateFunctionMapsRateLimit(t *testing.T) {
	generator := &stubGenerator{err: &ai.Error{Kind: ai.ErrorKindRateLimited, Message: "upstream status 429", Status: 429}}
	app := newFunctionApp(&stubAssistant{}, generator)

	payload := dto.GenerateRequest{Model: "microsoft/DialoGPT-medium", Prompt: "hello"}
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/functions/v1/free-ai-models", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var body dto.FunctionError
	decodeResponse(t, resp, &body)
	require.Equal(t, service.GenerationMessageRateLimited, body.Error)
	require.Equal(t, "upstream status 429", body.Details)
}
