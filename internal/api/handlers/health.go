package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fmosquera77/Numeros-Quiniela/internal/config"
)

const version = "1.0.0"

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck returns the health status
func HealthCheck(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cacheStatus := "disabled"
		if cfg.Cache.Enabled {
			cacheStatus = string(cfg.Cache.Backend)
		}

		return c.JSON(fiber.Map{
			"status":     "healthy",
			"version":    version,
			"upstream":   cfg.Upstream.URL,
			"fetch_mode": cfg.Upstream.FetchMode,
			"cache":      cacheStatus,
		})
	}
}

// ReadinessCheck returns whether the service is ready to accept traffic.
// cache may be nil when caching is disabled.
func ReadinessCheck(cache Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cache != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()

			if err := cache.Ping(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "not_ready",
					"reason": "Cache not reachable",
				})
			}
		}

		return c.JSON(fiber.Map{
			"status": "ready",
		})
	}
}

// Root returns basic API info
func Root(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"name":    "Cabezas API",
			"version": version,
			"lottery": "/api/lottery",
			"proxy":   "/api/proxy",
			"health":  "/health",
			"ready":   "/ready",
			"debug":   cfg.Server.Debug,
		})
	}
}
