package models

import (
	"time"

	"gorm.io/gorm"
)

// Attendance status values.
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendancePartial = "partial"
)

// AttendanceRecord is the per-day attendance derived from activity submissions.
type AttendanceRecord struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	UserID          string    `gorm:"size:36;not null;uniqueIndex:idx_attendance_user_date" json:"user_id"`
	Date            time.Time `gorm:"type:date;not null;uniqueIndex:idx_attendance_user_date" json:"date"`
	Status          string    `gorm:"size:16;not null;default:present" json:"status"`
	ActivitiesCount int       `gorm:"not null;default:0" json:"activities_count"`
	Notes           *string   `gorm:"type:text" json:"notes,omitempty"`
	GeneratedBy     *string   `gorm:"size:36" json:"generated_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Profile         *Profile  `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

// BeforeCreate assigns the record identifier.
func (r *AttendanceRecord) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
