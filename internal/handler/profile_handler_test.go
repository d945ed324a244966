package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/internal/handler"
	"github.com/noah-isme/lira-intern-api/internal/models"
	"github.com/noah-isme/lira-intern-api/internal/repository"
	"github.com/noah-isme/lira-intern-api/internal/service"
)

func newProfileApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db := setupHandlerDB(t)
	validate := newTestValidator()
	logger := zerolog.Nop()

	departmentRepo := repository.NewDepartmentRepository(db)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), nil, "", nil, validate, logger)
	profiles := service.NewProfileService(
		repository.NewProfileRepository(db),
		departmentRepo,
		repository.NewActivityRepository(db),
		service.NewUploadService(nil, 5, logger),
		notifications,
		validate,
		logger,
	)
	departments := service.NewDepartmentService(departmentRepo, service.NewReviewLogService(repository.NewReviewLogRepository(db), logger), validate, logger)

	app := fiber.New()
	handler.NewProfileHandler(profiles, validate, logger).Register(app.Group("/profiles", asCaller))
	handler.NewDepartmentHandler(departments, logger).Register(app.Group("/departments", asCaller))
	return app, db
}

func TestProfileRegisterThenConflict(t *testing.T) {
	app, _ := newProfileApp(t)

	resp, err := app.Test(withCaller(jsonRequest(t, http.MethodPost, "/profiles", dto.ProfileRegisterRequest{FullName: "Ina Putri"}), internID, "intern"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Data dto.ProfileResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, internID, body.Data.ID)
	require.Equal(t, models.RoleIntern, body.Data.Role)

	resp, err = app.Test(withCaller(jsonRequest(t, http.MethodPost, "/profiles", dto.ProfileRegisterRequest{FullName: "Ina Putri"}), internID, "intern"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestProfileMeMissingReturnsNotFound(t *testing.T) {
	app, _ := newProfileApp(t)

	resp, err := app.Test(withCaller(httptest.NewRequest(http.MethodGet, "/profiles/me", nil), internID, "intern"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestProfileSelectDepartmentOnce(t *testing.T) {
	app, db := newProfileApp(t)
	intern := seedProfile(t, db, "Ina", models.RoleIntern)
	department := models.Department{Name: "Engineering"}
	require.NoError(t, db.Create(&department).Error)

	payload := dto.DepartmentSelectRequest{DepartmentID: department.ID}
	resp, err := app.Test(withCaller(jsonRequest(t, http.MethodPut, "/profiles/me/department", payload), intern.ID, "intern"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.ProfileResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.NotNil(t, body.Data.DepartmentID)
	require.Equal(t, department.ID, *body.Data.DepartmentID)

	resp, err = app.Test(withCaller(jsonRequest(t, http.MethodPut, "/profiles/me/department", payload), intern.ID, "intern"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, err = app.Test(withCaller(jsonRequest(t, http.MethodPut, "/profiles/me/department", payload), staffID, "staff"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestProfileInternRosterIsReviewerOnly(t *testing.T) {
	app, db := newProfileApp(t)
	intern := seedProfile(t, db, "Ina", models.RoleIntern)
	staff := seedProfile(t, db, "Sam", models.RoleStaff)

	resp, err := app.Test(withCaller(httptest.NewRequest(http.MethodGet, "/profiles/interns", nil), intern.ID, "intern"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(withCaller(httptest.NewRequest(http.MethodGet, "/profiles/interns", nil), staff.ID, "staff"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []dto.InternSummary `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Len(t, body.Data, 1)
	require.Equal(t, "Ina", body.Data[0].Profile.FullName)
}

func TestDepartmentCreateIsAdminOnlyAndUnique(t *testing.T) {
	app, _ := newProfileApp(t)
	payload := dto.DepartmentCreateRequest{Name: "Finance"}

	resp, err := app.Test(withCaller(jsonRequest(t, http.MethodPost, "/departments", payload), staffID, "staff"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(withCaller(jsonRequest(t, http.MethodPost, "/departments", payload), staffID, "admin"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(withCaller(jsonRequest(t, http.MethodPost, "/departments", dto.DepartmentCreateRequest{Name: "finance"}), staffID, "admin"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, err = app.Test(withCaller(httptest.NewRequest(http.MethodGet, "/departments", nil), internID, "intern"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []dto.DepartmentResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Len(t, body.Data, 1)
}

type stubReportService struct {
	weekly dto.WeeklyReportRequest
	err    error
}

func (s *stubReportService) Weekly(_ context.Context, actor service.Actor, req dto.WeeklyReportRequest) (dto.WeeklyReportResponse, error) {
	s.weekly = req
	return dto.WeeklyReportResponse{UserID: actor.ID}, s.err
}

func (s *stubReportService) Attendance(_ context.Context, _ service.Actor, _ dto.AttendanceListRequest) ([]dto.AttendanceResponse, error) {
	return []dto.AttendanceResponse{}, s.err
}

func (s *stubReportService) GenerateAttendance(_ context.Context, _ service.Actor, req dto.AttendanceGenerateRequest) ([]dto.AttendanceResponse, error) {
	return []dto.AttendanceResponse{{Date: req.Date, Status: "present"}}, s.err
}

type stubDashboardService struct{}

func (stubDashboardService) Stats(_ context.Context, actor service.Actor) (dto.DashboardStatsResponse, error) {
	return dto.DashboardStatsResponse{Role: actor.Role, TotalActivities: 3}, nil
}

func TestReportRoutes(t *testing.T) {
	reports := &stubReportService{}
	app := fiber.New()
	handler.NewReportHandler(reports, stubDashboardService{}, zerolog.Nop()).Register(app.Group("/reports", asCaller))

	resp, err := app.Test(withCaller(httptest.NewRequest(http.MethodGet, "/reports/dashboard", nil), staffID, "staff"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var stats struct {
		Data dto.DashboardStatsResponse `json:"data"`
	}
	decodeResponse(t, resp, &stats)
	require.Equal(t, "staff", stats.Data.Role)
	require.Equal(t, int64(3), stats.Data.TotalActivities)

	resp, err = app.Test(withCaller(httptest.NewRequest(http.MethodGet, "/reports/weekly?week_start=2024-03-04", nil), internID, "intern"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "2024-03-04", reports.weekly.WeekStart)

	resp, err = app.Test(withCaller(jsonRequest(t, http.MethodPost, "/reports/attendance/generate", dto.AttendanceGenerateRequest{Date: "2024-03-04"}), internID, "intern"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(withCaller(jsonRequest(t, http.MethodPost, "/reports/attendance/generate", dto.AttendanceGenerateRequest{Date: "2024-03-04"}), staffID, "staff"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	reports.err = service.ErrForbidden
	resp, err = app.Test(withCaller(httptest.NewRequest(http.MethodGet, "/reports/attendance?user_id="+staffID, nil), internID, "intern"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
