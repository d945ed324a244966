package dto

import (
	"time"

	"github.com/noah-isme/lira-intern-api/internal/models"
)

// ProfileRegisterRequest creates the portal profile of a freshly authenticated identity.
type ProfileRegisterRequest struct {
	FullName  string  `json:"full_name" validate:"required,min=2,max=255"`
	StudentID *string `json:"student_id" validate:"omitempty,max=64"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
}

// ProfileUpdateRequest captures partial self-service profile updates.
type ProfileUpdateRequest struct {
	FullName  *string `json:"full_name" validate:"omitempty,min=2,max=255"`
	StudentID *string `json:"student_id" validate:"omitempty,max=64"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
}

// DepartmentSelectRequest is sent by interns choosing their department.
type DepartmentSelectRequest struct {
	DepartmentID string `json:"department_id" validate:"required,uuid"`
}

// ProfileResponse represents a profile returned to clients.
type ProfileResponse struct {
	ID             string    `json:"id"`
	FullName       string    `json:"full_name"`
	Role           string    `json:"role"`
	DepartmentID   *string   `json:"department_id,omitempty"`
	DepartmentName string    `json:"department_name,omitempty"`
	StudentID      *string   `json:"student_id,omitempty"`
	Phone          *string   `json:"phone,omitempty"`
	AvatarURL      *string   `json:"avatar_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewProfileResponse converts a profile model into a DTO.
func NewProfileResponse(model models.Profile) ProfileResponse {
	resp := ProfileResponse{
		ID:           model.ID,
		FullName:     model.FullName,
		Role:         model.Role,
		DepartmentID: model.DepartmentID,
		StudentID:    model.StudentID,
		Phone:        model.Phone,
		AvatarURL:    model.AvatarURL,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
	if model.Department != nil {
		resp.DepartmentName = model.Department.Name
	}
	return resp
}

// InternSummary pairs an intern with activity counts for staff views.
type InternSummary struct {
	Profile  ProfileResponse `json:"profile"`
	Total    int64           `json:"total_activities"`
	Pending  int64           `json:"pending"`
	Approved int64           `json:"approved"`
	Rejected int64           `json:"rejected"`
}

// DepartmentCreateRequest creates a department.
type DepartmentCreateRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// DepartmentResponse represents a department.
type DepartmentResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewDepartmentResponse converts a department into a DTO.
func NewDepartmentResponse(model models.Department) DepartmentResponse {
	return DepartmentResponse{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		CreatedAt:   model.CreatedAt,
	}
}

// NewDepartmentResponseSlice converts departments into DTOs.
func NewDepartmentResponseSlice(items []models.Department) []DepartmentResponse {
	out := make([]DepartmentResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewDepartmentResponse(item))
	}
	return out
}
