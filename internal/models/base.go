package models

import "github.com/google/uuid"

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// Role constants shared by profiles, tokens and prompt assembly.
const (
	RoleIntern = "intern"
	RoleStaff  = "staff"
	RoleAdmin  = "admin"
)

// IsReviewerRole reports whether the role may review intern activities.
func IsReviewerRole(role string) bool {
	return role == RoleStaff || role == RoleAdmin
}

// IsValidRole reports whether the role is one a profile may carry.
func IsValidRole(role string) bool {
	return role == RoleIntern || IsReviewerRole(role)
}
