package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/lira-intern-api/internal/models"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginationMeta derives page counts from the totals.
func NewPaginationMeta(page, pageSize int, total int64) PaginationMeta {
	pages := 0
	if pageSize > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return PaginationMeta{Page: page, PageSize: pageSize, TotalItems: total, TotalPages: pages}
}

// ActivityCreateRequest is the payload an intern submits for a new activity.
type ActivityCreateRequest struct {
	Title            string          `json:"title" validate:"required,min=3,max=255"`
	Content          string          `json:"content" validate:"required,min=1,max=20000"`
	GeneratedContent *string         `json:"generated_content" validate:"omitempty,max=20000"`
	Location         json.RawMessage `json:"location"`
	ActivityDate     string          `json:"activity_date" validate:"omitempty,datetime=2006-01-02"`
	Status           string          `json:"status" validate:"omitempty,oneof=pending"`
}

// ActivityReviewRequest records a reviewer decision.
type ActivityReviewRequest struct {
	Status   string `json:"status" validate:"required,oneof=approved rejected"`
	Feedback string `json:"feedback" validate:"omitempty,max=5000"`
}

// ActivityListRequest filters activity listings.
type ActivityListRequest struct {
	Page     int
	PageSize int
	Status   string `validate:"omitempty,oneof=pending approved rejected"`
	UserID   string `validate:"omitempty,uuid"`
	From     *time.Time
	To       *time.Time
}

// ActivityResponse is the serialized representation of an activity.
type ActivityResponse struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	AuthorName       string          `json:"author_name,omitempty"`
	Title            string          `json:"title"`
	Content          string          `json:"content"`
	GeneratedContent *string         `json:"generated_content,omitempty"`
	Location         json.RawMessage `json:"location,omitempty"`
	ActivityDate     *time.Time      `json:"activity_date,omitempty"`
	Status           string          `json:"status"`
	SubmittedAt      time.Time       `json:"submitted_at"`
	ReviewedAt       *time.Time      `json:"reviewed_at,omitempty"`
	ReviewedBy       *string         `json:"reviewed_by,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ActivityListResponse wraps a page of activities.
type ActivityListResponse struct {
	Items      []ActivityResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewActivityResponse converts a model into a DTO.
func NewActivityResponse(model models.Activity) ActivityResponse {
	resp := ActivityResponse{
		ID:               model.ID,
		UserID:           model.UserID,
		Title:            model.Title,
		Content:          model.Content,
		GeneratedContent: model.GeneratedContent,
		ActivityDate:     model.ActivityDate,
		Status:           model.Status,
		SubmittedAt:      model.SubmittedAt,
		ReviewedAt:       model.ReviewedAt,
		ReviewedBy:       model.ReviewedBy,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
	if len(model.Location) > 0 {
		resp.Location = json.RawMessage(model.Location)
	}
	if model.Profile != nil {
		resp.AuthorName = model.Profile.FullName
	}
	return resp
}

// NewActivityResponseSlice converts a slice of models into DTOs.
func NewActivityResponseSlice(items []models.Activity) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewActivityResponse(item))
	}
	return out
}

// CommentCreateRequest is the payload to comment on an activity.
type CommentCreateRequest struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

// CommentResponse describes a comment returned by the API.
type CommentResponse struct {
	ID         string    `json:"id"`
	ActivityID string    `json:"activity_id"`
	UserID     string    `json:"user_id"`
	AuthorName string    `json:"author_name,omitempty"`
	AuthorRole string    `json:"author_role,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewCommentResponse converts a comment model to DTO.
func NewCommentResponse(model models.Comment) CommentResponse {
	resp := CommentResponse{
		ID:         model.ID,
		ActivityID: model.ActivityID,
		UserID:     model.UserID,
		Content:    model.Content,
		CreatedAt:  model.CreatedAt,
	}
	if model.Author != nil {
		resp.AuthorName = model.Author.FullName
		resp.AuthorRole = model.Author.Role
	}
	return resp
}

// NewCommentResponseSlice converts a slice to DTOs.
func NewCommentResponseSlice(items []models.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewCommentResponse(item))
	}
	return out
}
