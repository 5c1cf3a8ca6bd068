package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fmosquera77/Numeros-Quiniela/internal/scraper"
)

// Error bodies returned by the proxy, kept in the page's language
const (
	ProxyTimeoutMessage = "La solicitud ha excedido el tiempo de espera"
	ProxyFailureMessage = "Error al obtener los datos"
)

// PageFetcher returns the upstream page and whether it was served from cache
type PageFetcher interface {
	Fetch(ctx context.Context) (page string, cached bool, err error)
}

// ProxyHandler relays the upstream results page
type ProxyHandler struct {
	pages   PageFetcher
	timeout time.Duration
	maxAge  time.Duration
	logger  *zap.Logger
}

// NewProxyHandler creates a proxy handler. timeout bounds each request;
// maxAge is advertised to clients in Cache-Control.
func NewProxyHandler(pages PageFetcher, timeout, maxAge time.Duration, logger *zap.Logger) *ProxyHandler {
	return &ProxyHandler{
		pages:   pages,
		timeout: timeout,
		maxAge:  maxAge,
		logger:  logger,
	}
}

// GetPage handles GET /api/proxy
func (h *ProxyHandler) GetPage(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	page, cached, err := h.pages.Fetch(ctx)
	if err != nil {
		if errors.Is(err, scraper.ErrFetchTimeout) || errors.Is(err, context.DeadlineExceeded) {
			h.logger.Warn("Upstream fetch timed out", zap.Duration("timeout", h.timeout), zap.Error(err))
			return c.Status(fiber.StatusRequestTimeout).JSON(fiber.Map{
				"error": ProxyTimeoutMessage,
			})
		}

		h.logger.Error("Upstream fetch failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": ProxyFailureMessage,
		})
	}

	if h.maxAge > 0 {
		c.Set(fiber.HeaderCacheControl, fmt.Sprintf("public, max-age=%d", int(h.maxAge.Seconds())))
	} else {
		c.Set(fiber.HeaderCacheControl, "no-store")
	}
	if cached {
		c.Set("X-Cache", "HIT")
	} else {
		c.Set("X-Cache", "MISS")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)

	return c.SendString(page)
}
