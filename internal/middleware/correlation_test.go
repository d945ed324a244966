package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func newCorrelationApp(seen *string) *fiber.App {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		*seen = CorrelationIDFromContext(c.UserContext())
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestCorrelationIDKeepsIncomingValue(t *testing.T) {
	var seen string
	app := newCorrelationApp(&seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-42")
	resp, err := app.Test(req)
	require.NoError(t, err)

	require.Equal(t, "req-42", resp.Header.Get(CorrelationHeader))
	require.Equal(t, "req-42", seen)
}

func TestCorrelationIDReplacesUnsafeValues(t *testing.T) {
	cases := map[string]string{
		"oversized":   strings.Repeat("a", maxCorrelationLength+1),
		"inner space": "two words",
	}

	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			var seen string
			app := newCorrelationApp(&seen)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(CorrelationHeader, value)
			resp, err := app.Test(req)
			require.NoError(t, err)

			require.NotEqual(t, value, seen)
			require.Len(t, seen, 36)
			require.Equal(t, seen, resp.Header.Get(CorrelationHeader))
		})
	}
}

func TestContextWithCorrelationIgnoresBlank(t *testing.T) {
	ctx := ContextWithCorrelation(nil, "  ")
	require.Empty(t, CorrelationIDFromContext(ctx))

	ctx = ContextWithCorrelation(ctx, " chat-7 ")
	require.Equal(t, "chat-7", CorrelationIDFromContext(ctx))
}
