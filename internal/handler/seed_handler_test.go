package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lira-intern-api/internal/handler"
	"github.com/noah-isme/lira-intern-api/internal/models"
	"github.com/noah-isme/lira-intern-api/internal/service"
)

type mockSeedService struct {
	departmentsErr  error
	profilesErr     error
	lastToken       string
	lastDepartments []models.Department
	lastProfiles    []models.Profile
	affected        int64
}

func (m *mockSeedService) SeedDepartments(_ context.Context, token string, items []models.Department) (int64, error) {
	m.lastToken = token
	m.lastDepartments = items
	if m.departmentsErr != nil {
		return 0, m.departmentsErr
	}
	return m.affected, nil
}

func (m *mockSeedService) SeedProfiles(_ context.Context, token string, items []models.Profile) (int64, error) {
	m.lastToken = token
	m.lastProfiles = items
	if m.profilesErr != nil {
		return 0, m.profilesErr
	}
	return m.affected, nil
}

func seedRequest(t *testing.T, path string, payload interface{}) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Seed-Token", "secret")
	return req
}

func TestSeedHandler_DepartmentsSuccess(t *testing.T) {
	svc := &mockSeedService{affected: 2}
	app := fiber.New()
	handler.NewSeedHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1/seed"))

	payload := map[string]interface{}{"items": []models.Department{{Name: "Engineering"}, {Name: "Finance"}}}
	resp, err := app.Test(seedRequest(t, "/api/v1/seed/departments", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool `json:"success"`
		Data    struct {
			Affected int64 `json:"affected"`
		} `json:"data"`
	}
	decodeResponse(t, resp, &response)

	require.True(t, response.Success)
	require.Equal(t, int64(2), response.Data.Affected)
	require.Equal(t, "secret", svc.lastToken)
	require.Len(t, svc.lastDepartments, 2)
}

func TestSeedHandler_ProfilesErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
		message    string
	}{
		{name: "disabled", err: service.ErrSeedDisabled, statusCode: fiber.StatusForbidden, message: "seeding disabled"},
		{name: "unauthorized", err: service.ErrSeedUnauthorized, statusCode: fiber.StatusForbidden, message: "invalid token"},
		{name: "generic", err: errors.New("boom"), statusCode: fiber.StatusInternalServerError, message: "seed operation failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockSeedService{profilesErr: tc.err}
			app := fiber.New()
			handler.NewSeedHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1/seed"))

			payload := map[string]interface{}{"items": []models.Profile{{FullName: "Ina", Role: models.RoleIntern}}}
			resp, err := app.Test(seedRequest(t, "/api/v1/seed/profiles", payload))
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)

			var response struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
			}
			decodeResponse(t, resp, &response)
			require.False(t, response.Success)
			require.Equal(t, tc.message, response.Message)
		})
	}
}

func TestSeedHandler_InvalidPayload(t *testing.T) {
	svc := &mockSeedService{}
	app := fiber.New()
	handler.NewSeedHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1/seed"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/seed/departments", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Nil(t, svc.lastDepartments)
}
