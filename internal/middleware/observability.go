package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lira-intern-api/internal/observability"
)

// slowRequestThreshold marks requests logged at warn level even when they succeed.
const slowRequestThreshold = 2 * time.Second

// Observability records request metrics and one structured log line per request.
// Long-lived streams (SSE, websocket) are logged when they close.
func Observability(logger zerolog.Logger, quietPaths ...string) fiber.Handler {
	observability.RegisterMetrics()

	quiet := make(map[string]struct{}, len(quietPaths))
	for _, path := range quietPaths {
		quiet[path] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		if _, skip := quiet[c.Path()]; skip {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		route := routeTemplate(c)
		method := c.Method()
		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		statusLabel := strconv.Itoa(status)

		observability.HTTPRequests().WithLabelValues(method, route, statusLabel).Inc()
		observability.HTTPLatency().WithLabelValues(method, route).Observe(elapsed.Seconds())
		if status >= fiber.StatusBadRequest {
			observability.HTTPErrors().WithLabelValues(method, route, statusLabel).Inc()
		}

		event := logger.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			event = logger.Error().Err(err)
		case status >= fiber.StatusBadRequest:
			event = logger.Warn()
		case elapsed >= slowRequestThreshold && !isStreamRoute(c):
			event = logger.Warn().Bool("slow", true)
		}

		event.
			Str("correlation_id", GetCorrelationID(c)).
			Str("method", method).
			Str("route", route).
			Int("status", status).
			Dur("latency", elapsed).
			Str("user_id", UserID(c)).
			Msg("request completed")

		return err
	}
}

func routeTemplate(c *fiber.Ctx) string {
	if r := c.Route(); r != nil && r.Path != "" {
		return r.Path
	}
	return c.Path()
}

func isStreamRoute(c *fiber.Ctx) bool {
	if string(c.Response().Header.ContentType()) == "text/event-stream" {
		return true
	}
	return c.Response().StatusCode() == fiber.StatusSwitchingProtocols
}
