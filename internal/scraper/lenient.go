package scraper

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/fmosquera77/Numeros-Quiniela/internal/domain"
)

// LenientScraper finds any 4-digit token per row and guesses the city from
// the row's cells. When no row yields a record it falls back to every 4-digit
// token in the page body, labelled domain.UnknownCity.
type LenientScraper struct {
	source PageSource
	logger *zap.Logger
}

// NewLenientScraper creates a lenient extractor reading from source
// (normally a ProxySource)
func NewLenientScraper(source PageSource, logger *zap.Logger) *LenientScraper {
	return &LenientScraper{
		source: source,
		logger: logger,
	}
}

// Name returns the strategy name
func (s *LenientScraper) Name() string {
	return "lenient"
}

// Scrape fetches the page and extracts records
func (s *LenientScraper) Scrape(ctx context.Context) ([]domain.Result, error) {
	page, err := s.source.FetchPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("lenient: %w", err)
	}

	results, tier, err := parseLenient(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("lenient: %w", err)
	}

	s.logger.Debug("Lenient extraction finished",
		zap.Int("records", len(results)),
		zap.String("tier", tier),
	)
	return results, nil
}

// parseLenient returns the records and which pass ("rows" or "page") produced them
func parseLenient(r io.Reader) ([]domain.Result, string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, "", fmt.Errorf("parsing HTML: %w", err)
	}

	results := make([]domain.Result, 0)

	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		number := fourDigits.FindString(row.Text())
		if number == "" {
			return
		}

		city := inferCity(row, number)
		if city == "" {
			// no usable label: drop the row rather than invent one
			return
		}

		result, err := domain.NewResult(city, number)
		if err != nil {
			return
		}
		results = append(results, result)
	})

	if len(results) > 0 {
		return results, "rows", nil
	}

	for _, number := range fourDigits.FindAllString(doc.Find("body").Text(), -1) {
		result, err := domain.NewResult(domain.UnknownCity, number)
		if err != nil {
			continue
		}
		results = append(results, result)
	}

	return results, "page", nil
}

// inferCity returns the first cell whose text is longer than two characters
// and does not contain number
func inferCity(row *goquery.Selection, number string) string {
	var city string

	row.Find(cellSelector).EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		text := strings.TrimSpace(cell.Text())
		if text == "" || strings.Contains(text, number) || utf8.RuneCountInString(text) <= 2 {
			return true
		}
		city = labelOf(cell)
		return city == ""
	})

	return city
}
