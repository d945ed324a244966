package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/lira-intern-api/internal/utils"
)

// Limit describes a request budget per caller. Callers are keyed by profile id, falling back to IP.
type Limit struct {
	Name   string
	Max    int
	Window time.Duration
	// Exceeded writes the rejection. Nil sends the API envelope with 429.
	Exceeded fiber.Handler
}

// RateLimit enforces limit with fiber's in-memory limiter. Preflight requests are never counted.
func RateLimit(limit Limit) fiber.Handler {
	if limit.Max <= 0 {
		limit.Max = 10
	}
	if limit.Window <= 0 {
		limit.Window = time.Second
	}
	retryAfter := strconv.Itoa(int((limit.Window + time.Second - 1) / time.Second))

	exceeded := limit.Exceeded
	if exceeded == nil {
		exceeded = func(c *fiber.Ctx) error {
			return utils.SendError(c, fiber.StatusTooManyRequests, "too many requests")
		}
	}

	return limiter.New(limiter.Config{
		Max:        limit.Max,
		Expiration: limit.Window,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			caller := UserID(c)
			if caller == "" {
				caller = "ip:" + c.IP()
			}
			return limit.Name + ":" + caller
		},
		LimitReached: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderRetryAfter, retryAfter)
			return exceeded(c)
		},
	})
}
