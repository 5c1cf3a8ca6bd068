package scraper

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/fmosquera77/Numeros-Quiniela/internal/domain"
)

// StrictScraper reads the results table by column position:
// city in the first cell, number in the third.
type StrictScraper struct {
	source PageSource
	logger *zap.Logger
}

// NewStrictScraper creates a strict extractor reading from source
func NewStrictScraper(source PageSource, logger *zap.Logger) *StrictScraper {
	return &StrictScraper{
		source: source,
		logger: logger,
	}
}

// Name returns the strategy name
func (s *StrictScraper) Name() string {
	return "strict"
}

// Scrape fetches the page and extracts records. An empty slice with a nil
// error means the page was read but no row matched.
func (s *StrictScraper) Scrape(ctx context.Context) ([]domain.Result, error) {
	page, err := s.source.FetchPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("strict: %w", err)
	}

	results, err := parseStrict(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("strict: %w", err)
	}

	s.logger.Debug("Strict extraction finished", zap.Int("records", len(results)))
	return results, nil
}

// parseStrict extracts records in document order
func parseStrict(r io.Reader) ([]domain.Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	results := make([]domain.Result, 0)

	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		city := labelOf(row.Find("td:nth-child(1)"))
		if city == "" {
			return
		}

		numberText := strings.TrimSpace(row.Find("td:nth-child(3)").Text())
		number := fourDigits.FindString(numberText)
		if number == "" {
			return
		}

		result, err := domain.NewResult(city, number)
		if err != nil {
			return
		}
		results = append(results, result)
	})

	return results, nil
}
