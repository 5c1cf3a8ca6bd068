package domain

import (
	"fmt"
	"regexp"
)

// UnknownCity labels records whose city could not be inferred from the page
const UnknownCity = "Desconocido"

var numberPattern = regexp.MustCompile(`^[0-9]{4}$`)

// Result represents one drawn number ("cabeza") for a city
type Result struct {
	City          string `json:"city"`
	Number        string `json:"number"`
	LastTwoDigits string `json:"lastTwoDigits"`
}

// NewResult builds a Result, deriving LastTwoDigits from number.
// The number must be exactly four ASCII digits; leading zeros are kept.
func NewResult(city, number string) (Result, error) {
	if !numberPattern.MatchString(number) {
		return Result{}, fmt.Errorf("invalid number %q: want exactly 4 digits", number)
	}
	return Result{
		City:          city,
		Number:        number,
		LastTwoDigits: number[len(number)-2:],
	}, nil
}

// MustResult is like NewResult but panics on an invalid number.
// Intended for fixed data sets.
func MustResult(city, number string) Result {
	r, err := NewResult(city, number)
	if err != nil {
		panic(err)
	}
	return r
}

// Valid reports whether the record satisfies the number and suffix invariants
func (r Result) Valid() bool {
	return numberPattern.MatchString(r.Number) && r.LastTwoDigits == r.Number[len(r.Number)-2:]
}

// DataSource tells whether a result set came from the live page or the fallback snapshot
type DataSource string

const (
	DataSourceLive DataSource = "live"
	DataSourceMock DataSource = "mock"
)

// ResultSet is the outcome of one aggregation run
type ResultSet struct {
	Results  []Result   `json:"results"`
	Source   DataSource `json:"source"`
	Strategy string     `json:"strategy"`
}
