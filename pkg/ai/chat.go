package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const anthropicCompatBaseURL = "https://api.anthropic.com/v1"

var (
	chatDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lira",
		Subsystem: "ai",
		Name:      "chat_duration_seconds",
		Help:      "Duration of assistant chat completion requests",
	}, []string{"provider", "model"})

	chatFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lira",
		Subsystem: "ai",
		Name:      "chat_failures_total",
		Help:      "Number of assistant chat completion failures",
	}, []string{"provider", "model", "kind"})
)

// ChatCompleter answers a single user turn under a system instruction.
type ChatCompleter interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ChatConfig defines configuration options for the chat client.
type ChatConfig struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	Logger      zerolog.Logger
}

// ChatClient implements ChatCompleter against an OpenAI-compatible chat completion API.
// Anthropic is reached through its OpenAI-compatible endpoint.
type ChatClient struct {
	client *openai.Client
	cfg    ChatConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewChatClient builds a chat client using the provided configuration.
func NewChatClient(cfg ChatConfig) (*ChatClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s api key is required", providerName(cfg.Provider))
	}

	cfg.Provider = providerName(cfg.Provider)
	if cfg.Model == "" {
		cfg.Model = defaultChatModel(cfg.Provider)
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1500
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	config := openai.DefaultConfig(cfg.APIKey)
	switch {
	case cfg.BaseURL != "":
		config.BaseURL = cfg.BaseURL
	case cfg.Provider == "anthropic":
		config.BaseURL = anthropicCompatBaseURL
	}
	config.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &ChatClient{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/lira-intern-api/pkg/ai/chat"),
		logger: logger.With().Str("component", "ai_chat").Logger(),
	}, nil
}

// Model returns the model identifier requests are sent to.
func (c *ChatClient) Model() string {
	return c.cfg.Model
}

// Complete sends the system instruction and the user message as separate turns.
func (c *ChatClient) Complete(parent context.Context, system, user string) (string, error) {
	ctx, span := c.tracer.Start(parent, "ai.chat.complete", trace.WithAttributes(
		attribute.String("ai.provider", c.cfg.Provider),
		attribute.String("ai.model", c.cfg.Model),
		attribute.Int("ai.system_chars", len(system)),
	))
	defer span.End()

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	chatDuration.WithLabelValues(c.cfg.Provider, c.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		classified := classifyChatError(c.cfg.Provider, err)
		c.fail(span, classified)
		return "", classified
	}

	if len(resp.Choices) == 0 {
		c.fail(span, ErrEmptyCompletion)
		return "", ErrEmptyCompletion
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.logger.Debug().
		Str("model", c.cfg.Model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("chat completion finished")

	return content, nil
}

func (c *ChatClient) fail(span trace.Span, err error) {
	chatFailures.WithLabelValues(c.cfg.Provider, c.cfg.Model, string(KindOf(err))).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func classifyChatError(provider string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{
			Kind:    KindForStatus(apiErr.HTTPStatusCode),
			Message: fmt.Sprintf("%s api error: %d", provider, apiErr.HTTPStatusCode),
			Status:  apiErr.HTTPStatusCode,
			Err:     err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{
			Kind:    KindForStatus(reqErr.HTTPStatusCode),
			Message: fmt.Sprintf("%s request error: %d", provider, reqErr.HTTPStatusCode),
			Status:  reqErr.HTTPStatusCode,
			Err:     err,
		}
	}

	return &Error{Kind: ErrorKindUpstream, Message: provider + " request failed", Err: err}
}

func providerName(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return "openai"
	}
	return provider
}

func defaultChatModel(provider string) string {
	if provider == "anthropic" {
		return "claude-3-5-sonnet-20241022"
	}
	return "gpt-4o-mini"
}
