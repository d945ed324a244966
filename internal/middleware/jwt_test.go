package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newJWTApp(secret string) *fiber.App {
	app := fiber.New()
	app.Use(JWTProtected(secret))
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": UserID(c), "role": UserRole(c)})
	})
	return app
}

func TestJWTProtectedAcceptsUUIDSubject(t *testing.T) {
	app := newJWTApp("secret")
	token := signToken(t, "secret", jwt.MapClaims{
		"sub":  "5B7F1C1E-8A9D-4F7E-9C53-0D6B3C1F2A10",
		"role": "Staff",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestIdentityClaimsResolveSubjectAndRole(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		subject string
		role    string
	}{
		{
			name:    "app metadata role",
			payload: `{"sub":"5b7f1c1e-8a9d-4f7e-9c53-0d6b3c1f2a10","app_metadata":{"role":"Admin"}}`,
			subject: "5b7f1c1e-8a9d-4f7e-9c53-0d6b3c1f2a10",
			role:    "admin",
		},
		{
			name:    "role list and user_id fallback",
			payload: `{"sub":"service-account","user_id":"5B7F1C1E-8A9D-4F7E-9C53-0D6B3C1F2A10","roles":[""," staff "]}`,
			subject: "5b7f1c1e-8a9d-4f7e-9c53-0d6b3c1f2a10",
			role:    "staff",
		},
		{
			name:    "unexpected role shape",
			payload: `{"id":"5b7f1c1e-8a9d-4f7e-9c53-0d6b3c1f2a10","role":{"name":"admin"}}`,
			subject: "5b7f1c1e-8a9d-4f7e-9c53-0d6b3c1f2a10",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var claims identityClaims
			require.NoError(t, json.Unmarshal([]byte(tc.payload), &claims))
			require.Equal(t, tc.subject, claims.subject())
			require.Equal(t, tc.role, claims.role())
		})
	}
}

func TestJWTProtectedRejectsNoneAlgorithm(t *testing.T) {
	app := newJWTApp("secret")
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "5b7f1c1e-8a9d-4f7e-9c53-0d6b3c1f2a10"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTProtectedRejectsInvalidTokens(t *testing.T) {
	app := newJWTApp("secret")

	cases := map[string]string{
		"missing":       "",
		"wrong scheme":  "Basic abc",
		"wrong secret":  "Bearer " + signToken(t, "other", jwt.MapClaims{"sub": "5b7f1c1e-8a9d-4f7e-9c53-0d6b3c1f2a10"}),
		"numeric sub":   "Bearer " + signToken(t, "secret", jwt.MapClaims{"sub": "42"}),
		"expired token": "Bearer " + signToken(t, "secret", jwt.MapClaims{"sub": "5b7f1c1e-8a9d-4f7e-9c53-0d6b3c1f2a10", "exp": time.Now().Add(-time.Hour).Unix()}),
	}

	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, name)
	}
}

func TestJWTProtectedAcceptsQueryTokenOnWebsocketUpgrade(t *testing.T) {
	app := newJWTApp("secret")
	token := signToken(t, "secret", jwt.MapClaims{"sub": "5b7f1c1e-8a9d-4f7e-9c53-0d6b3c1f2a10", "role": "intern"})

	req := httptest.NewRequest(http.MethodGet, "/me?access_token="+token, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	plain := httptest.NewRequest(http.MethodGet, "/me?access_token="+token, nil)
	resp, err = app.Test(plain)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
