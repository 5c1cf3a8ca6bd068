package scraper

import (
	"context"

	"github.com/fmosquera77/Numeros-Quiniela/internal/domain"
)

// MockScraper serves a fixed snapshot of a known-good page. It never fails.
type MockScraper struct{}

// Name returns the strategy name
func (MockScraper) Name() string {
	return "mock"
}

// Scrape returns MockResults
func (MockScraper) Scrape(context.Context) ([]domain.Result, error) {
	return MockResults(), nil
}

// MockResults returns a fresh copy of the 12-record snapshot
func MockResults() []domain.Result {
	return []domain.Result{
		domain.MustResult("Ciudad", "3331"),
		domain.MustResult("Provincia", "6317"),
		domain.MustResult("Córdoba", "4528"),
		domain.MustResult("Santa Fe", "9661"),
		domain.MustResult("Entre Ríos", "3334"),
		domain.MustResult("Montevideo", "0000"),
		domain.MustResult("Mendoza", "9092"),
		domain.MustResult("Corrientes", "8292"),
		domain.MustResult("Chaco", "7982"),
		domain.MustResult("Santiago", "1385"),
		domain.MustResult("Neuquén", "8873"),
		domain.MustResult("San Luis", "1378"),
	}
}
