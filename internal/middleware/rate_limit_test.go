package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestRateLimitKeysByCaller(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if id := c.Get("X-Caller"); id != "" {
			c.Locals("user_id", id)
		}
		return c.Next()
	})
	app.Use(RateLimit(Limit{Name: "ai", Max: 1, Window: 90 * time.Second}))
	app.All("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	call := func(method, caller string) *http.Response {
		req := httptest.NewRequest(method, "/", nil)
		req.Header.Set("X-Caller", caller)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	require.Equal(t, fiber.StatusOK, call(http.MethodPost, "intern-a").StatusCode)

	limited := call(http.MethodPost, "intern-a")
	require.Equal(t, fiber.StatusTooManyRequests, limited.StatusCode)
	require.Equal(t, "90", limited.Header.Get(fiber.HeaderRetryAfter))

	require.Equal(t, fiber.StatusOK, call(http.MethodPost, "intern-b").StatusCode)
	require.Equal(t, fiber.StatusOK, call(http.MethodOptions, "intern-a").StatusCode)
}
