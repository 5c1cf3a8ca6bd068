package scraper

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fmosquera77/Numeros-Quiniela/internal/domain"
)

// Scraper is one extraction strategy for the results page
type Scraper interface {
	// Name returns the strategy name
	Name() string

	// Scrape fetches and extracts records. An empty result with a nil error
	// means the page was read but nothing matched.
	Scrape(ctx context.Context) ([]domain.Result, error)
}

// ScraperRegistry manages strategies by name
type ScraperRegistry struct {
	scrapers map[string]Scraper
}

// NewScraperRegistry creates a new registry
func NewScraperRegistry() *ScraperRegistry {
	return &ScraperRegistry{
		scrapers: make(map[string]Scraper),
	}
}

// Register adds a scraper to the registry
func (r *ScraperRegistry) Register(s Scraper) {
	r.scrapers[s.Name()] = s
}

// Get retrieves a scraper by name
func (r *ScraperRegistry) Get(name string) (Scraper, bool) {
	s, ok := r.scrapers[name]
	return s, ok
}

// Names returns the registered strategy names, sorted
func (r *ScraperRegistry) Names() []string {
	names := make([]string, 0, len(r.scrapers))
	for name := range r.scrapers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Chain runs strategies in order and returns the first non-empty result.
// When every strategy fails it returns the fallback's records.
type Chain struct {
	logger     *zap.Logger
	strategies []Scraper
	fallback   Scraper
}

// NewChain creates a chain. fallback defaults to MockScraper.
func NewChain(logger *zap.Logger, strategies []Scraper, fallback Scraper) *Chain {
	if fallback == nil {
		fallback = MockScraper{}
	}
	return &Chain{
		logger:     logger,
		strategies: strategies,
		fallback:   fallback,
	}
}

// Name returns the strategy name
func (c *Chain) Name() string {
	return "chain"
}

// Scrape implements Scraper. It never returns an error.
func (c *Chain) Scrape(ctx context.Context) ([]domain.Result, error) {
	return c.Collect(ctx).Results, nil
}

// Collect runs the chain and reports which strategy produced the records
func (c *Chain) Collect(ctx context.Context) domain.ResultSet {
	start := time.Now()

	for _, s := range c.strategies {
		results, err := runStrategy(ctx, s)
		if err == nil && len(results) == 0 {
			err = fmt.Errorf("%s: %w", s.Name(), ErrParseEmpty)
		}
		if err != nil {
			c.logger.Warn("Strategy failed, trying next",
				zap.String("strategy", s.Name()),
				zap.String("kind", string(Classify(err))),
				zap.Error(err),
			)
			continue
		}

		c.logger.Info("Lottery results extracted",
			zap.String("strategy", s.Name()),
			zap.Int("records", len(results)),
			zap.Duration("duration", time.Since(start)),
		)
		return domain.ResultSet{
			Results:  results,
			Source:   domain.DataSourceLive,
			Strategy: s.Name(),
		}
	}

	results, err := runStrategy(ctx, c.fallback)
	if err != nil || len(results) == 0 {
		// fallback must always answer
		c.logger.Error("Fallback strategy failed, serving built-in snapshot",
			zap.String("strategy", c.fallback.Name()),
			zap.Error(err),
		)
		results = MockResults()
	}

	c.logger.Warn("All live strategies failed, serving sample data",
		zap.String("strategy", c.fallback.Name()),
		zap.Int("records", len(results)),
		zap.Duration("duration", time.Since(start)),
	)
	return domain.ResultSet{
		Results:  results,
		Source:   domain.DataSourceMock,
		Strategy: c.fallback.Name(),
	}
}

// runStrategy calls s.Scrape, turning a panic into an UnexpectedError
func runStrategy(ctx context.Context, s Scraper) (results []domain.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = &UnexpectedError{Strategy: s.Name(), Value: r}
		}
	}()
	return s.Scrape(ctx)
}
