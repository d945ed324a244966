package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Activity status values. Transitions only ever leave pending.
const (
	ActivityStatusPending  = "pending"
	ActivityStatusApproved = "approved"
	ActivityStatusRejected = "rejected"
)

// Activity is a single internship work report submitted by an intern.
type Activity struct {
	ID               string         `gorm:"primaryKey;size:36" json:"id"`
	UserID           string         `gorm:"size:36;index;not null" json:"user_id"`
	Title            string         `gorm:"size:255;not null" json:"title"`
	Content          string         `gorm:"type:text;not null" json:"content"`
	GeneratedContent *string        `gorm:"type:text" json:"generated_content,omitempty"`
	Location         datatypes.JSON `json:"location,omitempty"`
	ActivityDate     *time.Time     `json:"activity_date,omitempty"`
	Status           string         `gorm:"size:16;index;not null;default:pending" json:"status"`
	SubmittedAt      time.Time      `gorm:"index" json:"submitted_at"`
	ReviewedAt       *time.Time     `json:"reviewed_at,omitempty"`
	ReviewedBy       *string        `gorm:"size:36" json:"reviewed_by,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Profile          *Profile       `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

// BeforeCreate assigns identifiers and submission defaults.
func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	if a.Status == "" {
		a.Status = ActivityStatusPending
	}
	if a.SubmittedAt.IsZero() {
		a.SubmittedAt = time.Now().UTC()
	}
	return nil
}

// IsReviewed reports whether a reviewer already decided on the activity.
func (a Activity) IsReviewed() bool {
	return a.Status == ActivityStatusApproved || a.Status == ActivityStatusRejected
}

// ReviewLog captures auditable review and administrative events.
type ReviewLog struct {
	ID         string            `gorm:"primaryKey;size:36" json:"id"`
	ActorID    string            `gorm:"size:36;index;not null" json:"actor_id"`
	ActorRole  string            `gorm:"size:32;not null" json:"actor_role"`
	Action     string            `gorm:"size:64;not null" json:"action"`
	EntityType string            `gorm:"size:64;not null" json:"entity_type"`
	EntityID   *string           `gorm:"size:36" json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
}

// BeforeCreate assigns the log identifier.
func (l *ReviewLog) BeforeCreate(tx *gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
