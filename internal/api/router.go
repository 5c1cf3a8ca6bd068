package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fmosquera77/Numeros-Quiniela/internal/api/handlers"
	"github.com/fmosquera77/Numeros-Quiniela/internal/config"
	"github.com/fmosquera77/Numeros-Quiniela/pkg/logger"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, cfg *config.Config, deps *Dependencies) {
	// Health check routes (no prefix)
	app.Get("/health", handlers.HealthCheck(cfg))
	app.Get("/ready", handlers.ReadinessCheck(deps.Cache))
	app.Get("/", handlers.Root(cfg))

	// API routes
	api := app.Group("/api")

	lotteryHandler := handlers.NewLotteryHandler(deps.Lottery)
	api.Get("/lottery", lotteryHandler.GetResults)

	proxyHandler := handlers.NewProxyHandler(deps.Pages, cfg.Proxy.Timeout, cfg.Proxy.CacheTTL, logger.Named("proxy"))
	api.Get("/proxy", proxyHandler.GetPage)
}

// Dependencies holds all service dependencies for handlers
type Dependencies struct {
	Lottery handlers.LotteryService
	Pages   handlers.PageFetcher
	// Cache is pinged by /ready; nil when caching is disabled
	Cache handlers.Pinger
}
