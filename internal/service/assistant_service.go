package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/pkg/ai"
)

var (
	// ErrAssistantMessageRequired indicates an empty user message.
	ErrAssistantMessageRequired = errors.New("message is required")
	// ErrAssistantUnavailable indicates no chat provider is configured.
	ErrAssistantUnavailable = errors.New("assistant provider not configured")
)

// AssistantService answers portal questions with a digest of live data in the system turn.
type AssistantService interface {
	Ask(ctx context.Context, req dto.AssistantRequest, tokenRole string) (dto.AssistantResponse, error)
}

type assistantService struct {
	aggregator ContextAggregator
	chat       ai.ChatCompleter
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// NewAssistantService constructs the assistant. A nil chat completer makes every call fail.
func NewAssistantService(aggregator ContextAggregator, chat ai.ChatCompleter, logger zerolog.Logger) AssistantService {
	return &assistantService{
		aggregator: aggregator,
		chat:       chat,
		logger:     logger.With().Str("component", "assistant_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/lira-intern-api/internal/service/assistant"),
	}
}

// Ask scopes the digest to the caller's token role. The body userRole is only
// consulted when the request carries no verified role.
// The client-sent context field is ignored; the digest is always rebuilt here.
func (s *assistantService) Ask(ctx context.Context, req dto.AssistantRequest, tokenRole string) (dto.AssistantResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return dto.AssistantResponse{}, ErrAssistantMessageRequired
	}
	if s.chat == nil {
		return dto.AssistantResponse{}, ErrAssistantUnavailable
	}

	role := strings.TrimSpace(tokenRole)
	if role == "" {
		role = strings.TrimSpace(req.UserRole)
	}

	ctx, span := s.tracer.Start(ctx, "assistant.ask", trace.WithAttributes(attribute.String("assistant.role", role)))
	defer span.End()

	digest := s.aggregator.Gather(ctx, role)
	contextUsed := len(strings.Split(digest, "\n"))
	span.SetAttributes(attribute.Int("assistant.context_lines", contextUsed))

	answer, err := s.chat.Complete(ctx, ComposeSystemPrompt(role, digest), req.Message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		s.logger.Error().Err(err).Str("kind", string(ai.KindOf(err))).Msg("assistant completion failed")
		return dto.AssistantResponse{}, fmt.Errorf("assistant completion: %w", err)
	}

	return dto.AssistantResponse{Response: answer, ContextUsed: contextUsed}, nil
}
