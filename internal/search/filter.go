package search

import (
	"strings"

	"github.com/fmosquera77/Numeros-Quiniela/internal/domain"
)

// Cities of the built-in sample snapshot used to recognise it
var mockCities = []string{"Ciudad", "Provincia", "Córdoba", "Santa Fe", "Entre Ríos"}

const mockCityThreshold = 4

// Filter keeps the records whose LastTwoDigits contain term, in order.
// Only the empty term keeps everything; the term is matched as given.
func Filter(results []domain.Result, term string) []domain.Result {
	filtered := make([]domain.Result, 0, len(results))
	for _, r := range results {
		if term == "" || strings.Contains(r.LastTwoDigits, term) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// LooksLikeMock guesses from the city labels whether results are the sample
// snapshot: at least four of its five leading cities must be present.
func LooksLikeMock(results []domain.Result) bool {
	present := make(map[string]bool, len(results))
	for _, r := range results {
		present[r.City] = true
	}

	matches := 0
	for _, city := range mockCities {
		if present[city] {
			matches++
		}
	}
	return matches >= mockCityThreshold
}

// IsMock reports whether set is sample data. The server's tag wins; untagged
// sets fall back to LooksLikeMock.
func IsMock(set domain.ResultSet) bool {
	switch set.Source {
	case domain.DataSourceMock:
		return true
	case domain.DataSourceLive:
		return false
	default:
		return LooksLikeMock(set.Results)
	}
}
