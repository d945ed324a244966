package models

import (
	"time"

	"gorm.io/gorm"
)

// Profile is the portal-side record of an authenticated identity.
type Profile struct {
	ID           string      `gorm:"primaryKey;size:36" json:"id"`
	FullName     string      `gorm:"size:255;not null" json:"full_name"`
	Role         string      `gorm:"size:16;index;not null;default:intern" json:"role"`
	DepartmentID *string     `gorm:"size:36;index" json:"department_id,omitempty"`
	StudentID    *string     `gorm:"size:64" json:"student_id,omitempty"`
	Phone        *string     `gorm:"size:32" json:"phone,omitempty"`
	AvatarURL    *string     `gorm:"size:512" json:"avatar_url,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	Department   *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
}

// BeforeCreate assigns identifiers and the default role.
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	if p.Role == "" {
		p.Role = RoleIntern
	}
	return nil
}

// Department is static reference data interns attach themselves to.
type Department struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate assigns the department identifier.
func (d *Department) BeforeCreate(tx *gorm.DB) error {
	ensureID(&d.ID)
	return nil
}
