package ai

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies upstream failures so callers never parse error text.
type ErrorKind string

const (
	ErrorKindUpstream         ErrorKind = "upstream"
	ErrorKindRateLimited      ErrorKind = "rate_limited"
	ErrorKindModelUnavailable ErrorKind = "model_unavailable"
	ErrorKindCredentials      ErrorKind = "credentials"
	ErrorKindInvalidRequest   ErrorKind = "invalid_request"
	ErrorKindDegenerate       ErrorKind = "degenerate"
)

// Error is returned by every client and router in this package.
type Error struct {
	Kind    ErrorKind
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	// ErrModelAndPromptRequired rejects requests before any upstream call.
	ErrModelAndPromptRequired = &Error{Kind: ErrorKindInvalidRequest, Message: "Model and prompt are required"}
	// ErrResponseTooShort flags generations shorter than MinResponseLength.
	ErrResponseTooShort = &Error{Kind: ErrorKindDegenerate, Message: "Generated response is too short or empty"}
	// ErrEmptyCompletion indicates the chat provider returned no choices.
	ErrEmptyCompletion = &Error{Kind: ErrorKindUpstream, Message: "no choices returned from provider"}
)

// KindOf extracts the classification of err, defaulting to upstream.
func KindOf(err error) ErrorKind {
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.Kind
	}
	return ErrorKindUpstream
}

// KindForStatus maps an upstream HTTP status onto an ErrorKind.
func KindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorKindRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrorKindCredentials
	case status == http.StatusNotFound || status == http.StatusServiceUnavailable:
		return ErrorKindModelUnavailable
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return ErrorKindInvalidRequest
	default:
		return ErrorKindUpstream
	}
}

func newStatusError(status int, message string) *Error {
	return &Error{
		Kind:    KindForStatus(status),
		Message: message,
		Status:  status,
	}
}
