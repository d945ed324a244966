package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultHuggingFaceBaseURL = "https://api-inference.huggingface.co"

// HuggingFaceConfig configures the hosted inference client.
type HuggingFaceConfig struct {
	Token      string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// HuggingFaceClient calls the hosted inference API for text generation and QA models.
type HuggingFaceClient struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewHuggingFaceClient builds a client. The token is mandatory.
func NewHuggingFaceClient(cfg HuggingFaceConfig) (*HuggingFaceClient, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("hugging face access token is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultHuggingFaceBaseURL
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &HuggingFaceClient{token: cfg.Token, baseURL: baseURL, http: client}, nil
}

type textGenerationPayload struct {
	Inputs     string           `json:"inputs"`
	Parameters GenerationParams `json:"parameters"`
}

type qaPayload struct {
	Inputs struct {
		Question string `json:"question"`
		Context  string `json:"context"`
	} `json:"inputs"`
}

type generatedText struct {
	GeneratedText string `json:"generated_text"`
}

type qaAnswer struct {
	Answer string  `json:"answer"`
	Score  float64 `json:"score"`
}

type upstreamError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

// TextGeneration posts inputs with generation parameters and returns generated_text.
func (c *HuggingFaceClient) TextGeneration(ctx context.Context, model, inputs string, params GenerationParams) (string, error) {
	body, err := c.post(ctx, model, textGenerationPayload{Inputs: inputs, Parameters: params})
	if err != nil {
		return "", err
	}

	// The API answers with either an array of generations or a single object.
	var many []generatedText
	if err := json.Unmarshal(body, &many); err == nil {
		if len(many) == 0 {
			return "", nil
		}
		return many[0].GeneratedText, nil
	}

	var one generatedText
	if err := json.Unmarshal(body, &one); err != nil {
		return "", &Error{Kind: ErrorKindUpstream, Message: "unexpected text generation response", Err: err}
	}
	return one.GeneratedText, nil
}

// QuestionAnswering posts a question/context pair and returns the answer span.
func (c *HuggingFaceClient) QuestionAnswering(ctx context.Context, model, question, context string) (string, error) {
	var payload qaPayload
	payload.Inputs.Question = question
	payload.Inputs.Context = context

	body, err := c.post(ctx, model, payload)
	if err != nil {
		return "", err
	}

	var answer qaAnswer
	if err := json.Unmarshal(body, &answer); err != nil {
		var many []qaAnswer
		if errMany := json.Unmarshal(body, &many); errMany != nil || len(many) == 0 {
			return "", &Error{Kind: ErrorKindUpstream, Message: "unexpected question answering response", Err: err}
		}
		answer = many[0]
	}
	return answer.Answer, nil
}

func (c *HuggingFaceClient) post(ctx context.Context, model string, payload interface{}) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode inference payload: %w", err)
	}

	endpoint := c.baseURL + "/models/" + escapeModel(model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build inference request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &Error{Kind: ErrorKindUpstream, Message: "inference request timed out", Err: err}
		}
		return nil, &Error{Kind: ErrorKindUpstream, Message: "inference request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &Error{Kind: ErrorKindUpstream, Message: "read inference response", Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		message := fmt.Sprintf("Hugging Face API error: %d", resp.StatusCode)
		var upstream upstreamError
		if json.Unmarshal(body, &upstream) == nil && upstream.Error != "" {
			message = fmt.Sprintf("%s - %s", message, upstream.Error)
		}
		return nil, newStatusError(resp.StatusCode, message)
	}

	// Some models report failures with a 200 and an error body.
	var upstream upstreamError
	if json.Unmarshal(body, &upstream) == nil && upstream.Error != "" {
		kind := ErrorKindUpstream
		if upstream.EstimatedTime > 0 || strings.Contains(strings.ToLower(upstream.Error), "loading") {
			kind = ErrorKindModelUnavailable
		}
		return nil, &Error{Kind: kind, Message: upstream.Error, Status: resp.StatusCode}
	}

	return body, nil
}

func escapeModel(model string) string {
	parts := strings.Split(strings.TrimSpace(model), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
