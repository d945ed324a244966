package handler

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/lira-intern-api/internal/config"
	"github.com/noah-isme/lira-intern-api/internal/utils"
)

const healthProbeTimeout = 2 * time.Second

// HealthProbe checks one backing dependency.
type HealthProbe struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Service     string            `json:"service"`
	Environment string            `json:"environment"`
	Checks      map[string]string `json:"checks,omitempty"`
}

// HealthCheck runs every probe in parallel under one deadline. Any failure
// answers 503 with status "degraded".
func HealthCheck(cfg config.Config, probes ...HealthProbe) fiber.Handler {
	return func(c *fiber.Ctx) error {
		checks, healthy := runProbes(requestContext(c), probes)

		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Checks:      checks,
		}
		if !healthy {
			payload.Status = "degraded"
			return utils.SendSuccessWithStatus(c, fiber.StatusServiceUnavailable, "service degraded", payload)
		}
		return utils.SendSuccess(c, "service healthy", payload)
	}
}

func runProbes(parent context.Context, probes []HealthProbe) (map[string]string, bool) {
	if len(probes) == 0 {
		return nil, true
	}

	ctx, cancel := context.WithTimeout(parent, healthProbeTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		checks  = make(map[string]string, len(probes))
		healthy = true
		group   errgroup.Group
	)
	for _, probe := range probes {
		group.Go(func() error {
			result := "ok"
			if err := probe.Check(ctx); err != nil {
				result = err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			checks[probe.Name] = result
			healthy = healthy && result == "ok"
			return nil
		})
	}
	_ = group.Wait()
	return checks, healthy
}
