package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// portalHeaders are the request headers browser clients of the portal send.
var portalHeaders = []string{"authorization", "x-client-info", "apikey", "content-type", "x-seed-token", strings.ToLower(CorrelationHeader)}

// Config customises the shared middleware stack.
type Config struct {
	Logger       *zerolog.Logger
	AllowOrigins string
	// QuietPaths are served without request logs or metrics.
	QuietPaths []string
}

// Register attaches recovery, correlation, observability and CORS to every route.
func Register(app *fiber.App, cfg Config) {
	requestLogger := zerolog.Nop()
	if cfg.Logger != nil {
		requestLogger = cfg.Logger.With().Str("component", "http").Logger()
	}

	origins := strings.TrimSpace(cfg.AllowOrigins)
	if origins == "" {
		origins = "*"
	}

	quiet := cfg.QuietPaths
	if quiet == nil {
		quiet = []string{"/metrics", "/health"}
	}

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.Logger != nil}))
	app.Use(CorrelationID())
	app.Use(Observability(requestLogger, quiet...))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowHeaders:  strings.Join(portalHeaders, ", "),
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		ExposeHeaders: CorrelationHeader,
	}))
}
