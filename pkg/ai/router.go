package ai

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ModelKind is the closed set of request shapes the router knows how to build.
type ModelKind string

const (
	ModelKindInstruction    ModelKind = "instruction"
	ModelKindConversational ModelKind = "conversational"
	ModelKindExtractiveQA   ModelKind = "extractive_qa"
	ModelKindGeneric        ModelKind = "generic"
)

// ContextActivity is the context tag used by the activity report editor.
const ContextActivity = "activity"

// MinResponseLength is the minimum number of characters a generation must keep after cleanup.
const MinResponseLength = 10

const (
	activityQAContext = "This relates to internship activities, work experiences, learning outcomes, and professional development."
	generalQAContext  = "General knowledge and information."
	dialoPadTokenID   = 50256
)

var knownModels = map[string]ModelKind{
	"google/flan-t5-base":                     ModelKindInstruction,
	"microsoft/DialoGPT-medium":               ModelKindConversational,
	"facebook/blenderbot-400M-distill":        ModelKindConversational,
	"distilbert-base-uncased-distilled-squad": ModelKindExtractiveQA,
}

type familyRule struct {
	kind  ModelKind
	match func(name string) bool
}

// Families match anywhere in the lower-cased model name after the owner prefix,
// so fine-tunes such as my-flan-t5-finetune keep their family's template.
var modelFamilies = []familyRule{
	{kind: ModelKindInstruction, match: func(name string) bool { return strings.Contains(name, "flan-t5") }},
	{kind: ModelKindConversational, match: func(name string) bool { return strings.Contains(name, "dialogpt") }},
	{kind: ModelKindConversational, match: func(name string) bool { return strings.Contains(name, "blenderbot") }},
	{kind: ModelKindExtractiveQA, match: func(name string) bool {
		return strings.Contains(name, "distilbert") && strings.Contains(name, "squad")
	}},
}

var generationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lira",
	Subsystem: "ai",
	Name:      "generation_requests_total",
	Help:      "Hosted model generation requests by model kind and outcome",
}, []string{"kind", "outcome"})

// ResolveModel maps a model identifier onto its request shape.
func ResolveModel(model string) ModelKind {
	model = strings.TrimSpace(model)
	if kind, ok := knownModels[model]; ok {
		return kind
	}

	name := strings.ToLower(model)
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	for _, family := range modelFamilies {
		if family.match(name) {
			return family.kind
		}
	}
	return ModelKindGeneric
}

// GenerationParams are the text generation knobs sent upstream.
type GenerationParams struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
	PadTokenID   *int    `json:"pad_token_id,omitempty"`
}

// InferenceRequest is the fully built upstream request for one model.
type InferenceRequest struct {
	Model  string
	Kind   ModelKind
	Inputs string
	Params GenerationParams
	// QA only.
	Question string
	Context  string
}

// BuildRequest turns the caller's prompt into the request shape for the model.
func BuildRequest(model, prompt, contextTag string) InferenceRequest {
	kind := ResolveModel(model)
	req := InferenceRequest{Model: model, Kind: kind, Inputs: prompt}

	switch kind {
	case ModelKindInstruction:
		if contextTag == ContextActivity {
			req.Inputs = "Create a detailed activity report based on: " + prompt +
				". Include objectives, actions taken, outcomes, and learnings."
		}
		req.Params = GenerationParams{MaxNewTokens: 500, Temperature: 0.7}
	case ModelKindConversational:
		pad := dialoPadTokenID
		req.Params = GenerationParams{MaxNewTokens: 300, Temperature: 0.8, PadTokenID: &pad}
	case ModelKindExtractiveQA:
		req.Inputs = ""
		req.Question = prompt
		req.Context = generalQAContext
		if contextTag == ContextActivity {
			req.Context = activityQAContext
		}
	default:
		req.Params = GenerationParams{MaxNewTokens: 400, Temperature: 0.7}
	}

	return req
}

// CleanResponse trims the raw generation, strips an echoed prompt and rejects degenerate output.
func CleanResponse(raw, prompt string) (string, error) {
	text := strings.TrimSpace(raw)
	if prompt != "" && strings.HasPrefix(text, prompt) {
		text = strings.TrimSpace(strings.TrimPrefix(text, prompt))
	}
	if utf8.RuneCountInString(text) < MinResponseLength {
		return "", ErrResponseTooShort
	}
	return text, nil
}

// InferenceClient executes built requests against a hosted inference API.
type InferenceClient interface {
	TextGeneration(ctx context.Context, model, inputs string, params GenerationParams) (string, error)
	QuestionAnswering(ctx context.Context, model, question, context string) (string, error)
}

// Router dispatches generation requests to the right inference call.
type Router struct {
	client InferenceClient
	logger zerolog.Logger
	tracer trace.Tracer
}

// NewRouter constructs a router over the provided inference client.
func NewRouter(client InferenceClient, logger zerolog.Logger) *Router {
	return &Router{
		client: client,
		logger: logger.With().Str("component", "ai_router").Logger(),
		tracer: otel.Tracer("github.com/noah-isme/lira-intern-api/pkg/ai/router"),
	}
}

// Generate runs one prompt through the model and returns the cleaned text.
func (r *Router) Generate(ctx context.Context, model, prompt, contextTag string) (string, error) {
	if strings.TrimSpace(model) == "" || strings.TrimSpace(prompt) == "" {
		return "", ErrModelAndPromptRequired
	}

	req := BuildRequest(model, prompt, contextTag)
	ctx, span := r.tracer.Start(ctx, "ai.router.generate", trace.WithAttributes(
		attribute.String("ai.model", model),
		attribute.String("ai.kind", string(req.Kind)),
		attribute.String("ai.context", contextTag),
	))
	defer span.End()

	start := time.Now()
	var (
		raw string
		err error
	)
	if req.Kind == ModelKindExtractiveQA {
		raw, err = r.client.QuestionAnswering(ctx, req.Model, req.Question, req.Context)
	} else {
		raw, err = r.client.TextGeneration(ctx, req.Model, req.Inputs, req.Params)
	}

	if err == nil {
		raw, err = CleanResponse(raw, prompt)
	}

	if err != nil {
		generationRequests.WithLabelValues(string(req.Kind), string(KindOf(err))).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn().
			Err(err).
			Str("model", model).
			Str("kind", string(req.Kind)).
			Str("error_kind", string(KindOf(err))).
			Msg("generation failed")
		return "", err
	}

	generationRequests.WithLabelValues(string(req.Kind), "success").Inc()
	r.logger.Debug().
		Str("model", model).
		Str("kind", string(req.Kind)).
		Dur("duration", time.Since(start)).
		Int("chars", len(raw)).
		Msg("generation completed")
	return raw, nil
}
