package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/lira-intern-api/internal/config"
	"github.com/noah-isme/lira-intern-api/internal/handler"
	"github.com/noah-isme/lira-intern-api/internal/middleware"
	"github.com/noah-isme/lira-intern-api/internal/models"
	"github.com/noah-isme/lira-intern-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ActivityHandler     *handler.ActivityHandler
	ChannelHandler      *handler.ChannelHandler
	NotificationHandler *handler.NotificationHandler
	ProfileHandler      *handler.ProfileHandler
	DepartmentHandler   *handler.DepartmentHandler
	ReportHandler       *handler.ReportHandler
	ReviewLogHandler    *handler.ReviewLogHandler
	FunctionHandler     *handler.FunctionHandler
	SeedHandler         *handler.SeedHandler
	HealthProbes        []handler.HealthProbe
	JWTMiddleware       fiber.Handler
	// FunctionJWTMiddleware guards /functions/v1; it falls back to JWTMiddleware.
	FunctionJWTMiddleware fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())
	app.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes...))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Function endpoints keep their own path and JSON contract.
	if deps.FunctionHandler != nil {
		functionJWT := deps.FunctionJWTMiddleware
		if functionJWT == nil {
			functionJWT = jwtMiddleware
		}
		functions := app.Group("/functions/v1")
		deps.FunctionHandler.Register(functions, functionJWT, middleware.RateLimit(middleware.Limit{
			Name:     "ai",
			Max:      cfg.AIRateLimit,
			Window:   cfg.AIRateWindow,
			Exceeded: handler.FunctionRateLimited,
		}))
	}

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Seed tooling authenticates with its own token.
	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/seed"))
	}

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(api.Group("/activities", jwtMiddleware))
	}
	if deps.ChannelHandler != nil {
		deps.ChannelHandler.Register(api.Group("/channels", jwtMiddleware))
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(api.Group("/notifications", jwtMiddleware))
	}
	if deps.ProfileHandler != nil {
		deps.ProfileHandler.Register(api.Group("/profiles", jwtMiddleware))
	}
	if deps.DepartmentHandler != nil {
		deps.DepartmentHandler.Register(api.Group("/departments", jwtMiddleware))
	}
	if deps.ReportHandler != nil {
		deps.ReportHandler.Register(api.Group("/reports", jwtMiddleware))
	}
	if deps.ReviewLogHandler != nil {
		deps.ReviewLogHandler.Register(api.Group("/review-logs", jwtMiddleware, middleware.RequireRole(models.RoleAdmin)))
	}
}
