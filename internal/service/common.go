package service

import (
	"errors"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/noah-isme/lira-intern-api/internal/models"
)

const dateLayout = "2006-01-02"

// ErrForbidden indicates the actor's role does not allow the operation.
var ErrForbidden = errors.New("operation not permitted")

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	ID   string
	Role string
}

// IsReviewer reports whether the actor may review and supervise interns.
func (a Actor) IsReviewer() bool {
	return models.IsReviewerRole(a.Role)
}

// IsAdmin reports whether the actor is an administrator.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// newContentPolicy allows the light formatting the report editor produces.
func newContentPolicy() *bluemonday.Policy {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("b", "i", "em", "strong", "p", "br", "ul", "ol", "li")
	return policy
}

func parseDate(value string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, strings.TrimSpace(value), time.UTC)
}

func normalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == "" {
		return "system"
	}
	return r
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
