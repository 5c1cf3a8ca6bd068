// Package cli implements the cabezas command-line interface.
//
// The search command queries a running API and filters the result set by
// trailing digits; the scrape command runs the extraction strategies
// in-process without a server. Both print text tables or JSON.
package cli
