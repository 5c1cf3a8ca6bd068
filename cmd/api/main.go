package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fmosquera77/Numeros-Quiniela/internal/api"
	"github.com/fmosquera77/Numeros-Quiniela/internal/api/middleware"
	"github.com/fmosquera77/Numeros-Quiniela/internal/cache"
	"github.com/fmosquera77/Numeros-Quiniela/internal/config"
	"github.com/fmosquera77/Numeros-Quiniela/internal/scraper"
	"github.com/fmosquera77/Numeros-Quiniela/pkg/logger"
)

const (
	appVersion = "1.0.0"

	// extra time the lenient extractor grants the proxy on top of its upstream budget
	proxyClientMargin = 2 * time.Second
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Server.Debug)
	defer logger.Sync()

	logger.Info("Starting Cabezas API",
		zap.String("version", appVersion),
		zap.Bool("debug", cfg.Server.Debug),
		zap.String("upstream", cfg.Upstream.URL),
		zap.String("fetch_mode", string(cfg.Upstream.FetchMode)),
	)

	// Page cache behind /api/proxy
	store, err := cache.NewStore(cfg.Cache)
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer store.Close()

	cacheTTL := cfg.Proxy.CacheTTL
	if !cfg.Cache.Enabled {
		cacheTTL = 0
	}

	fetcher := scraper.NewFetcher(cfg.Upstream, logger.Named("fetcher"))

	var direct scraper.PageSource = fetcher
	var proxyLoader cache.Loader = fetcher.WithTimeout(cfg.Proxy.Timeout)
	if cfg.Upstream.FetchMode == config.FetchModeBrowser {
		browserCfg := scraper.DefaultBrowserConfig()
		browserCfg.UserAgent = cfg.Upstream.UserAgent
		browserCfg.Timeout = cfg.Upstream.Timeout
		pool := scraper.NewBrowserPool(logger.Named("browser"), browserCfg)
		defer pool.Close()

		direct = scraper.NewBrowserSource(pool, cfg.Upstream.URL, browserCfg.Timeout)
		proxyLoader = scraper.NewBrowserSource(pool, cfg.Upstream.URL, cfg.Proxy.Timeout)
	}

	pageKey := fmt.Sprintf("%s:page:%s", cfg.Cache.KeyPrefix, cfg.Upstream.URL)
	pages := cache.NewPageCache(store, proxyLoader, pageKey, cacheTTL, logger.Named("cache"))
	pages.SetLoadTimeout(cfg.Proxy.Timeout)

	// Fallback chain: strict (direct) -> lenient (through our own proxy) -> mock
	scraperLog := logger.Named("scraper")
	proxySource := scraper.NewProxySource(cfg.ProxyURL(), cfg.Proxy.Timeout+proxyClientMargin)
	chain := scraper.NewChain(scraperLog, []scraper.Scraper{
		scraper.NewStrictScraper(direct, scraperLog),
		scraper.NewLenientScraper(proxySource, scraperLog),
	}, scraper.MockScraper{})

	deps := &api.Dependencies{
		Lottery: chain,
		Pages:   pages,
	}
	if cfg.Cache.Enabled {
		deps.Cache = pages
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:               "Cabezas API v" + appVersion,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		DisableStartupMessage: !cfg.Server.Debug,
		ErrorHandler:          errorHandler,
	})

	// Setup middleware
	middleware.Setup(app, cfg)

	// Setup routes
	api.SetupRoutes(app, cfg, deps)

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Info("Shutting down gracefully...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("Shutdown did not complete", zap.Error(err))
		}
	}()

	// Start server
	addr := cfg.Server.Address()
	logger.Info("Server starting",
		zap.String("address", addr),
		zap.String("proxy_url", cfg.ProxyURL()),
		zap.String("cache_backend", string(cfg.Cache.Backend)),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	if err := app.Listen(addr); err != nil {
		logger.Fatal("Server failed to start", zap.Error(err))
	}
}

// errorHandler handles errors globally
func errorHandler(c *fiber.Ctx, err error) error {
	// Default to 500
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	logger.Error("Request error",
		zap.Int("status", code),
		zap.String("path", c.Path()),
		zap.Error(err),
	)

	return c.Status(code).JSON(fiber.Map{
		"error":   "request_failed",
		"message": message,
		"path":    c.Path(),
	})
}
