package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// CorrelationHeader carries the request correlation id in both directions.
	CorrelationHeader = "X-Correlation-ID"

	requestIDHeader      = "X-Request-ID"
	correlationLocal     = "correlation_id"
	maxCorrelationLength = 128
)

type correlationKey struct{}

// CorrelationID tags every request with an id that follows it into services, logs and broker events.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := incomingCorrelation(c)

		c.Locals(correlationLocal, id)
		c.Set(CorrelationHeader, id)
		c.SetUserContext(ContextWithCorrelation(c.UserContext(), id))

		return c.Next()
	}
}

func incomingCorrelation(c *fiber.Ctx) string {
	for _, header := range []string{CorrelationHeader, requestIDHeader} {
		if id := cleanCorrelation(c.Get(header)); id != "" {
			return id
		}
	}
	return uuid.NewString()
}

// cleanCorrelation rejects client ids that are oversized or contain non-printable bytes.
func cleanCorrelation(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || len(value) > maxCorrelationLength {
		return ""
	}
	for _, r := range value {
		if r < '!' || r > '~' {
			return ""
		}
	}
	return value
}

// CorrelationIDFromContext extracts the correlation id from a context, if present.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// GetCorrelationID returns the correlation id bound to the active request.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals(correlationLocal).(string); ok && id != "" {
		return id
	}
	return CorrelationIDFromContext(c.UserContext())
}

// ContextWithCorrelation attaches a correlation id to ctx. Blank ids leave ctx untouched.
func ContextWithCorrelation(ctx context.Context, correlationID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	id := strings.TrimSpace(correlationID)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}
