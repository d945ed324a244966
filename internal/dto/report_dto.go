package dto

import (
	"time"

	"github.com/noah-isme/lira-intern-api/internal/models"
)

// WeeklyReportRequest selects an intern and a seven day window.
type WeeklyReportRequest struct {
	UserID    string `validate:"omitempty,uuid"`
	WeekStart string `validate:"omitempty,datetime=2006-01-02"`
}

// WeeklyReportResponse summarizes activities within a week.
type WeeklyReportResponse struct {
	UserID     string             `json:"user_id"`
	WeekStart  time.Time          `json:"week_start"`
	WeekEnd    time.Time          `json:"week_end"`
	Total      int                `json:"total"`
	Approved   int                `json:"approved"`
	Pending    int                `json:"pending"`
	Rejected   int                `json:"rejected"`
	Activities []ActivityResponse `json:"activities"`
}

// AttendanceListRequest filters attendance records by intern and date range.
type AttendanceListRequest struct {
	UserID string `validate:"omitempty,uuid"`
	From   string `validate:"omitempty,datetime=2006-01-02"`
	To     string `validate:"omitempty,datetime=2006-01-02"`
}

// AttendanceGenerateRequest asks for attendance derivation on a date.
type AttendanceGenerateRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

// AttendanceResponse describes a per-day attendance record.
type AttendanceResponse struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	InternName      string  `json:"intern_name,omitempty"`
	Date            string  `json:"date"`
	Status          string  `json:"status"`
	ActivitiesCount int     `json:"activities_count"`
	Notes           *string `json:"notes,omitempty"`
	GeneratedBy     *string `json:"generated_by,omitempty"`
}

// NewAttendanceResponse converts a record into a DTO.
func NewAttendanceResponse(model models.AttendanceRecord) AttendanceResponse {
	resp := AttendanceResponse{
		ID:              model.ID,
		UserID:          model.UserID,
		Date:            model.Date.Format("2006-01-02"),
		Status:          model.Status,
		ActivitiesCount: model.ActivitiesCount,
		Notes:           model.Notes,
		GeneratedBy:     model.GeneratedBy,
	}
	if model.Profile != nil {
		resp.InternName = model.Profile.FullName
	}
	return resp
}

// NewAttendanceResponseSlice converts records into DTOs.
func NewAttendanceResponseSlice(items []models.AttendanceRecord) []AttendanceResponse {
	out := make([]AttendanceResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewAttendanceResponse(item))
	}
	return out
}

// DashboardStatsResponse aggregates the counters shown on a role dashboard.
type DashboardStatsResponse struct {
	Role                string    `json:"role"`
	TotalActivities     int64     `json:"total_activities"`
	PendingActivities   int64     `json:"pending_activities"`
	ApprovedActivities  int64     `json:"approved_activities"`
	RejectedActivities  int64     `json:"rejected_activities"`
	TotalInterns        int64     `json:"total_interns,omitempty"`
	TotalDepartments    int64     `json:"total_departments,omitempty"`
	UnreadNotifications int64     `json:"unread_notifications"`
	Channels            int64     `json:"channels"`
	GeneratedAt         time.Time `json:"generated_at"`
	Cached              bool      `json:"cached"`
}

// ReviewLogListRequest filters the audit trail.
type ReviewLogListRequest struct {
	Page       int
	PageSize   int
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
}

// ReviewLogResponse is a single audit entry.
type ReviewLogResponse struct {
	ID         string                 `json:"id"`
	ActorID    string                 `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *string                `json:"entity_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ReviewLogListResponse wraps a page of audit entries.
type ReviewLogListResponse struct {
	Items      []ReviewLogResponse `json:"items"`
	Pagination PaginationMeta      `json:"pagination"`
}

// NewReviewLogResponseSlice converts audit entries into DTOs.
func NewReviewLogResponseSlice(items []models.ReviewLog) []ReviewLogResponse {
	out := make([]ReviewLogResponse, 0, len(items))
	for _, item := range items {
		out = append(out, ReviewLogResponse{
			ID:         item.ID,
			ActorID:    item.ActorID,
			ActorRole:  item.ActorRole,
			Action:     item.Action,
			EntityType: item.EntityType,
			EntityID:   item.EntityID,
			Metadata:   map[string]interface{}(item.Metadata),
			CreatedAt:  item.CreatedAt,
		})
	}
	return out
}
