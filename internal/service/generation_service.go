package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/pkg/ai"
)

// User-facing generation failure messages.
const (
	GenerationMessageRateLimited = "Rate limit exceeded. Please try again in a few minutes."
	GenerationMessageModel       = "Model temporarily unavailable. Please try a different model."
	GenerationMessageCredentials = "API configuration issue. Please contact support."
	GenerationMessageDefault     = "Failed to generate content"
)

// ErrGeneratorUnavailable indicates no inference token is configured.
var ErrGeneratorUnavailable = errors.New("inference provider not configured")

// GenerationError pairs the user-facing message with the underlying cause.
type GenerationError struct {
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	return e.Err.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Generator routes a prompt to a hosted model.
type Generator interface {
	Generate(ctx context.Context, model, prompt, contextTag string) (string, error)
}

// GenerationService produces AI-assisted activity content.
type GenerationService interface {
	Generate(ctx context.Context, req dto.GenerateRequest) (dto.GenerateResponse, error)
}

type generationService struct {
	generator Generator
	logger    zerolog.Logger
}

// NewGenerationService constructs the generation service over an inference router.
func NewGenerationService(generator Generator, logger zerolog.Logger) GenerationService {
	return &generationService{
		generator: generator,
		logger:    logger.With().Str("component", "generation_service").Logger(),
	}
}

func (s *generationService) Generate(ctx context.Context, req dto.GenerateRequest) (dto.GenerateResponse, error) {
	if req.Model == "" || req.Prompt == "" {
		return dto.GenerateResponse{}, &GenerationError{Message: GenerationMessage(ai.ErrModelAndPromptRequired), Err: ai.ErrModelAndPromptRequired}
	}
	if s.generator == nil {
		return dto.GenerateResponse{}, &GenerationError{Message: GenerationMessageCredentials, Err: ErrGeneratorUnavailable}
	}

	text, err := s.generator.Generate(ctx, req.Model, req.Prompt, req.Context)
	if err != nil {
		s.logger.Warn().Err(err).Str("model", req.Model).Str("kind", string(ai.KindOf(err))).Msg("generation failed")
		return dto.GenerateResponse{}, &GenerationError{Message: GenerationMessage(err), Err: err}
	}

	return dto.GenerateResponse{Response: text, Model: req.Model, Context: req.Context}, nil
}

// GenerationMessage maps a classified failure to the message shown to users.
func GenerationMessage(err error) string {
	switch ai.KindOf(err) {
	case ai.ErrorKindRateLimited:
		return GenerationMessageRateLimited
	case ai.ErrorKindModelUnavailable:
		return GenerationMessageModel
	case ai.ErrorKindCredentials:
		return GenerationMessageCredentials
	default:
		return GenerationMessageDefault
	}
}
