package scraper

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// Row-like elements: real table rows plus grid layouts built from "row" classes
const rowSelector = `tr, .row, [class*="row"]`

// Cell-like elements the lenient extractor looks at for a city label
const cellSelector = "td, div, span"

var fourDigits = regexp.MustCompile(`\d{4}`)

var labelPolicy = bluemonday.StrictPolicy()

// labelOf returns the plain text label of sel. It sanitizes the cells' markup
// rather than their decoded text, so escaped brackets stay part of the label.
func labelOf(sel *goquery.Selection) string {
	var b strings.Builder
	sel.Each(func(_ int, cell *goquery.Selection) {
		inner, err := cell.Html()
		if err != nil {
			return
		}
		b.WriteString(inner)
	})
	return cleanLabel(b.String())
}

// cleanLabel strips the tags from an HTML fragment and returns its plain, trimmed text
func cleanLabel(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(labelPolicy.Sanitize(s)))
}
