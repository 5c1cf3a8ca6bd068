package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/fmosquera77/Numeros-Quiniela/internal/domain"
)

// Response headers describing where a result set came from
const (
	HeaderDataSource   = "X-Data-Source"
	HeaderDataStrategy = "X-Data-Strategy"
)

// LotteryService produces the current result set. It must always return records.
type LotteryService interface {
	Collect(ctx context.Context) domain.ResultSet
}

// LotteryHandler handles lottery result requests
type LotteryHandler struct {
	service LotteryService
}

// NewLotteryHandler creates a new lottery handler
func NewLotteryHandler(service LotteryService) *LotteryHandler {
	return &LotteryHandler{service: service}
}

// GetResults handles GET /api/lottery.
// The body is always a JSON array of records with status 200; sample data is
// flagged through the X-Data-Source header only.
func (h *LotteryHandler) GetResults(c *fiber.Ctx) error {
	set := h.service.Collect(c.UserContext())

	results := set.Results
	if results == nil {
		results = []domain.Result{}
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Set(HeaderDataSource, string(set.Source))
	c.Set(HeaderDataStrategy, set.Strategy)

	return c.JSON(results)
}
