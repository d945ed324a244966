package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/internal/models"
	"github.com/noah-isme/lira-intern-api/internal/repository"
)

// ReportService builds weekly summaries and derives attendance from submissions.
type ReportService interface {
	Weekly(ctx context.Context, actor Actor, req dto.WeeklyReportRequest) (dto.WeeklyReportResponse, error)
	Attendance(ctx context.Context, actor Actor, req dto.AttendanceListRequest) ([]dto.AttendanceResponse, error)
	GenerateAttendance(ctx context.Context, actor Actor, req dto.AttendanceGenerateRequest) ([]dto.AttendanceResponse, error)
}

type reportService struct {
	activities repository.ActivityRepository
	attendance repository.AttendanceRepository
	profiles   repository.ProfileRepository
	recorder   ReviewRecorder
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(
	activities repository.ActivityRepository,
	attendance repository.AttendanceRepository,
	profiles repository.ProfileRepository,
	recorder ReviewRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) ReportService {
	return &reportService{
		activities: activities,
		attendance: attendance,
		profiles:   profiles,
		recorder:   recorder,
		validator:  validate,
		logger:     logger.With().Str("component", "report_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/lira-intern-api/internal/service/report"),
		now:        time.Now,
	}
}

func (s *reportService) Weekly(ctx context.Context, actor Actor, req dto.WeeklyReportRequest) (dto.WeeklyReportResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.WeeklyReportResponse{}, err
	}

	userID := req.UserID
	if !actor.IsReviewer() {
		userID = actor.ID
	}

	start := weekStart(s.now().UTC())
	if req.WeekStart != "" {
		parsed, err := parseDate(req.WeekStart)
		if err != nil {
			return dto.WeeklyReportResponse{}, err
		}
		start = parsed
	}
	end := start.AddDate(0, 0, 7)

	activities, _, err := s.activities.List(ctx, repository.ActivityFilter{UserID: userID, From: &start, To: &end})
	if err != nil {
		return dto.WeeklyReportResponse{}, fmt.Errorf("list weekly activities: %w", err)
	}

	report := dto.WeeklyReportResponse{
		UserID:     userID,
		WeekStart:  start,
		WeekEnd:    end.AddDate(0, 0, -1),
		Total:      len(activities),
		Activities: dto.NewActivityResponseSlice(activities),
	}
	for _, activity := range activities {
		switch activity.Status {
		case models.ActivityStatusApproved:
			report.Approved++
		case models.ActivityStatusRejected:
			report.Rejected++
		default:
			report.Pending++
		}
	}
	return report, nil
}

func (s *reportService) Attendance(ctx context.Context, actor Actor, req dto.AttendanceListRequest) ([]dto.AttendanceResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	filter := repository.AttendanceFilter{UserID: req.UserID}
	if !actor.IsReviewer() {
		filter.UserID = actor.ID
	}
	if req.From != "" {
		from, err := parseDate(req.From)
		if err != nil {
			return nil, err
		}
		filter.From = &from
	}
	if req.To != "" {
		to, err := parseDate(req.To)
		if err != nil {
			return nil, err
		}
		filter.To = &to
	}

	records, err := s.attendance.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewAttendanceResponseSlice(records), nil
}

// GenerateAttendance derives one record per intern for the date and upserts it.
func (s *reportService) GenerateAttendance(ctx context.Context, actor Actor, req dto.AttendanceGenerateRequest) ([]dto.AttendanceResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if !actor.IsReviewer() {
		return nil, ErrForbidden
	}

	day, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "attendance.generate", trace.WithAttributes(attribute.String("attendance.date", req.Date)))
	defer span.End()

	interns, err := s.profiles.ListByRole(ctx, models.RoleIntern)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list interns: %w", err)
	}
	activities, err := s.activities.ListOnDate(ctx, day)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list activities on date: %w", err)
	}

	byUser := make(map[string][]models.Activity)
	for _, activity := range activities {
		byUser[activity.UserID] = append(byUser[activity.UserID], activity)
	}

	generatedBy := actor.ID
	records := make([]models.AttendanceRecord, 0, len(interns))
	for _, intern := range interns {
		submitted := byUser[intern.ID]
		record := models.AttendanceRecord{
			UserID:          intern.ID,
			Date:            day,
			Status:          attendanceStatus(submitted),
			ActivitiesCount: len(submitted),
			GeneratedBy:     &generatedBy,
		}
		if err := s.attendance.Upsert(ctx, &record); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("upsert attendance for %s: %w", intern.ID, err)
		}
		record.Profile = &intern
		records = append(records, record)
	}
	span.SetAttributes(attribute.Int("attendance.records", len(records)))

	if err := s.recorder.Record(ctx, ReviewEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     ReviewActionAttendance,
		EntityType: "attendance",
		Metadata:   map[string]interface{}{"date": req.Date, "records": len(records)},
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record attendance generation")
	}

	return dto.NewAttendanceResponseSlice(records), nil
}

// attendanceStatus: present with any non-rejected activity, partial when all were rejected, absent otherwise.
func attendanceStatus(activities []models.Activity) string {
	if len(activities) == 0 {
		return models.AttendanceAbsent
	}
	for _, activity := range activities {
		if activity.Status != models.ActivityStatusRejected {
			return models.AttendancePresent
		}
	}
	return models.AttendancePartial
}

func weekStart(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
