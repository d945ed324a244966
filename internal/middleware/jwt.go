package middleware

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/lira-intern-api/internal/utils"
)

const (
	userIDLocal   = "user_id"
	userRoleLocal = "user_role"
	clockSkew     = 30 * time.Second
)

// roleClaim accepts a role given as a string or as a list whose first
// non-empty entry wins. Any other shape reads as no role.
type roleClaim string

func (r *roleClaim) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*r = roleClaim(strings.ToLower(strings.TrimSpace(single)))
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		for _, role := range many {
			if role = strings.ToLower(strings.TrimSpace(role)); role != "" {
				*r = roleClaim(role)
				return nil
			}
		}
	}
	*r = ""
	return nil
}

// identityClaims is the part of the identity provider's access token the
// portal reads. Hosted providers nest the application role under app_metadata.
type identityClaims struct {
	jwt.RegisteredClaims
	UserID      string    `json:"user_id,omitempty"`
	LegacyID    string    `json:"id,omitempty"`
	Role        roleClaim `json:"role,omitempty"`
	UserRole    roleClaim `json:"user_role,omitempty"`
	Roles       roleClaim `json:"roles,omitempty"`
	AppMetadata struct {
		Role roleClaim `json:"role,omitempty"`
	} `json:"app_metadata"`
}

// subject returns the first identifier claim that is a valid uuid, canonicalised.
func (c identityClaims) subject() string {
	for _, candidate := range []string{c.Subject, c.UserID, c.LegacyID} {
		if parsed, err := uuid.Parse(strings.TrimSpace(candidate)); err == nil {
			return parsed.String()
		}
	}
	return ""
}

func (c identityClaims) role() string {
	for _, candidate := range []roleClaim{c.Role, c.UserRole, c.Roles, c.AppMetadata.Role} {
		if candidate != "" {
			return string(candidate)
		}
	}
	return ""
}

// JWTOption customises JWTProtected.
type JWTOption func(*jwtOptions)

type jwtOptions struct {
	unauthorized func(c *fiber.Ctx, reason string) error
}

// OnUnauthorized replaces the API envelope used for rejected tokens.
func OnUnauthorized(fn func(c *fiber.Ctx, reason string) error) JWTOption {
	return func(o *jwtOptions) {
		if fn != nil {
			o.unauthorized = fn
		}
	}
}

func sendUnauthorized(c *fiber.Ctx, reason string) error {
	return utils.SendError(c, fiber.StatusUnauthorized, reason)
}

// JWTProtected validates HMAC bearer tokens and stores the caller's id and
// role on the request. Websocket handshakes may pass the token as the
// access_token query parameter because browsers cannot set headers there.
func JWTProtected(secret string, opts ...JWTOption) fiber.Handler {
	options := jwtOptions{unauthorized: sendUnauthorized}
	for _, opt := range opts {
		opt(&options)
	}
	reject := options.unauthorized

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithLeeway(clockSkew),
	)
	key := func(*jwt.Token) (interface{}, error) { return []byte(secret), nil }

	return func(c *fiber.Ctx) error {
		raw, reason := bearerToken(c)
		if reason != "" {
			return reject(c, reason)
		}

		var claims identityClaims
		if _, err := parser.ParseWithClaims(raw, &claims, key); err != nil {
			return reject(c, "invalid token")
		}

		userID := claims.subject()
		if userID == "" {
			return reject(c, "invalid token subject")
		}
		c.Locals(userIDLocal, userID)
		if role := claims.role(); role != "" {
			c.Locals(userRoleLocal, role)
		}

		return c.Next()
	}
}

// bearerToken returns the raw token, or a rejection reason.
func bearerToken(c *fiber.Ctx) (string, string) {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if header == "" && strings.EqualFold(c.Get(fiber.HeaderUpgrade), "websocket") {
		if token := strings.TrimSpace(c.Query("access_token")); token != "" {
			return token, ""
		}
	}
	if header == "" {
		return "", "authorization header missing"
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", "invalid authorization header"
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", "invalid token"
	}
	return token, ""
}

// UserID returns the authenticated profile id, or an empty string.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDLocal).(string)
	return id
}

// UserRole returns the authenticated role, or an empty string.
func UserRole(c *fiber.Ctx) string {
	return normalizeRoleValue(c.Locals(userRoleLocal))
}
