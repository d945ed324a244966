package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Role requirements understood by WithAuth and RequireRole.
const (
	AuthRoleAny      = "any"
	AuthRoleIntern   = "intern"
	AuthRoleReviewer = "reviewer"
	AuthRoleAdmin    = "admin"
)

// AuthOptions configures a per-route guard.
type AuthOptions struct {
	Role        string
	RequireUser bool
}

// WithAuth wraps a single handler with the caller checks its route needs.
// Any role other than AuthRoleAny implies RequireUser.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := strings.ToLower(strings.TrimSpace(opts.Role))

	var allowed map[string]struct{}
	switch {
	case role != "" && role != AuthRoleAny:
		allowed = expandRoles(role)
	case !opts.RequireUser:
		return handler
	}

	return func(c *fiber.Ctx) error {
		if err := authorize(c, allowed); err != nil {
			return reject(c, err)
		}
		return handler(c)
	}
}
