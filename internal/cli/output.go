package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fmosquera77/Numeros-Quiniela/internal/domain"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// MockBanner warns that the records are the built-in sample set
const MockBanner = "⚠ Datos de ejemplo: no se pudieron obtener los resultados en vivo."

// OutputResult contains data to be output
type OutputResult struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Source    string          `json:"source,omitempty"`
	Strategy  string          `json:"strategy,omitempty"`
	Mock      bool            `json:"mock"`
	Term      string          `json:"term,omitempty"`
	Count     int             `json:"count"`
	Results   []domain.Result `json:"results"`
}

// ParseFormat validates a --format value
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case FormatText, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func writeText(w io.Writer, result *OutputResult) error {
	if result.Mock {
		fmt.Fprintln(w, MockBanner)
		fmt.Fprintln(w)
	}

	if len(result.Results) == 0 {
		if result.Term != "" {
			fmt.Fprintf(w, "No hay números que contengan %q.\n", result.Term)
		} else {
			fmt.Fprintln(w, "No hay resultados.")
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CIUDAD\tNÚMERO\tÚLTIMAS DOS")
	for _, r := range result.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.City, r.Number, r.LastTwoDigits)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nTotal: %d\n", result.Count)
	return nil
}
