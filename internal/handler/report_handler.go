package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/internal/middleware"
	"github.com/noah-isme/lira-intern-api/internal/service"
	"github.com/noah-isme/lira-intern-api/internal/utils"
)

// ReportHandler serves weekly reports, attendance and dashboard counters.
type ReportHandler struct {
	reports   service.ReportService
	dashboard service.DashboardService
	logger    zerolog.Logger
}

// NewReportHandler constructs the report handler.
func NewReportHandler(reports service.ReportService, dashboard service.DashboardService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		reports:   reports,
		dashboard: dashboard,
		logger:    logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register binds report routes.
func (h *ReportHandler) Register(router fiber.Router) {
	authenticated := middleware.AuthOptions{RequireUser: true}

	router.Get("/dashboard", middleware.WithAuth(h.stats, authenticated))
	router.Get("/weekly", middleware.WithAuth(h.weekly, authenticated))
	router.Get("/attendance", middleware.WithAuth(h.attendance, authenticated))
	router.Post("/attendance/generate", middleware.WithAuth(h.generateAttendance, middleware.AuthOptions{Role: middleware.AuthRoleReviewer}))
}

func (h *ReportHandler) stats(c *fiber.Ctx) error {
	stats, err := h.dashboard.Stats(requestContext(c), actorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "dashboard stats", stats)
}

func (h *ReportHandler) weekly(c *fiber.Ctx) error {
	req := dto.WeeklyReportRequest{
		UserID:    c.Query("user_id"),
		WeekStart: c.Query("week_start"),
	}

	report, err := h.reports.Weekly(requestContext(c), actorFromContext(c), req)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "weekly report", report)
}

func (h *ReportHandler) attendance(c *fiber.Ctx) error {
	req := dto.AttendanceListRequest{
		UserID: c.Query("user_id"),
		From:   c.Query("from"),
		To:     c.Query("to"),
	}

	records, err := h.reports.Attendance(requestContext(c), actorFromContext(c), req)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "attendance records", records)
}

func (h *ReportHandler) generateAttendance(c *fiber.Ctx) error {
	var payload dto.AttendanceGenerateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	records, err := h.reports.GenerateAttendance(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "attendance generated", records)
}
