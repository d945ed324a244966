package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/lira-intern-api/internal/utils"
)

var (
	errUnauthenticated  = fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	errInsufficientRole = fiber.NewError(fiber.StatusForbidden, "insufficient permissions")
)

// roleGrants expands pseudo roles into the profile roles they admit.
var roleGrants = map[string][]string{
	AuthRoleReviewer: {"staff", "admin"},
}

// RequireRole guards a whole route group. It accepts profile roles and the reviewer pseudo role.
func RequireRole(roles ...string) fiber.Handler {
	allowed := expandRoles(roles...)

	return func(c *fiber.Ctx) error {
		if err := authorize(c, allowed); err != nil {
			return reject(c, err)
		}
		return c.Next()
	}
}

// authorize returns nil when the caller is signed in and holds one of the allowed roles.
// A nil set admits any signed-in caller.
func authorize(c *fiber.Ctx, allowed map[string]struct{}) *fiber.Error {
	if UserID(c) == "" {
		return errUnauthenticated
	}
	if allowed == nil {
		return nil
	}
	if _, ok := allowed[UserRole(c)]; !ok {
		return errInsufficientRole
	}
	return nil
}

func reject(c *fiber.Ctx, err *fiber.Error) error {
	return utils.Fail(c, err.Code, err.Message, nil)
}

func expandRoles(roles ...string) map[string]struct{} {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		normalized := strings.ToLower(strings.TrimSpace(role))
		if normalized == "" {
			continue
		}
		if granted, ok := roleGrants[normalized]; ok {
			for _, concrete := range granted {
				allowed[concrete] = struct{}{}
			}
			continue
		}
		allowed[normalized] = struct{}{}
	}
	return allowed
}

func normalizeRoleValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case fmt.Stringer:
		return strings.ToLower(strings.TrimSpace(v.String()))
	default:
		return strings.ToLower(strings.TrimSpace(fmt.Sprint(value)))
	}
}
