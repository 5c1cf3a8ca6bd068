package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fmosquera77/Numeros-Quiniela/internal/config"
	"github.com/fmosquera77/Numeros-Quiniela/internal/scraper"
	"github.com/fmosquera77/Numeros-Quiniela/internal/search"
	"github.com/fmosquera77/Numeros-Quiniela/pkg/logger"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// options are shared by every command
type options struct {
	configPath string
	format     string
	verbose    bool
}

// NewRootCmd creates the root command
func NewRootCmd(version string) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "cabezas",
		Short: "Cabezas de la quiniela del día",
		Long: `cabezas consulta las cabezas (primer premio) de las loterías del día.

Puede buscar contra un servidor en marcha o extraer los resultados
directamente de la página de origen.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file")
	cmd.PersistentFlags().StringVar(&opts.format, "format", "text", "Output format: text or json")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newScrapeCmd(opts))

	return cmd
}

// setup loads config and returns the logger for a command run
func (o *options) setup() (*config.Config, OutputFormat, *zap.Logger, error) {
	format, err := ParseFormat(strings.ToLower(o.format))
	if err != nil {
		return nil, "", nil, err
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, "", nil, fmt.Errorf("loading config: %w", err)
	}

	log := zap.NewNop()
	if o.verbose {
		logger.Init(true)
		log = logger.Get()
	}

	return cfg, format, log, nil
}

func newSearchCmd(opts *options) *cobra.Command {
	var (
		apiURL  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "search [digits]",
		Short: "Search today's numbers by their last two digits",
		Example: `  cabezas search 7
  cabezas search 31 --api-url http://localhost:8080 --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, format, log, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if apiURL == "" {
				apiURL = fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
			}

			term := ""
			if len(args) == 1 {
				term = args[0]
			}

			session := search.NewSession(search.NewClient(apiURL, timeout), log)
			if err := session.Refresh(cmd.Context()); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), search.LoadErrorMessage)
				return fmt.Errorf("fetching results from %s: %w", apiURL, err)
			}
			session.SetTerm(term)

			state := session.State()
			return WriteOutput(cmd.OutOrStdout(), &OutputResult{
				FetchedAt: time.Now().UTC(),
				Mock:      state.Mock,
				Term:      state.Term,
				Count:     len(state.Filtered),
				Results:   state.Filtered,
			}, format)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Base URL of the cabezas API (default: local server port)")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "HTTP timeout for the API call")

	return cmd
}

func newScrapeCmd(opts *options) *cobra.Command {
	var strategy string

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Extract results from the upstream page without a server",
		Long: `Runs one extraction strategy (or the full fallback chain) in-process
against the configured upstream page and prints the records found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, format, log, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			registry := newRegistry(cfg, log)
			s, ok := registry.Get(strategy)
			if !ok {
				return fmt.Errorf("unknown strategy %q (available: %s)", strategy, strings.Join(registry.Names(), ", "))
			}

			if opts.verbose {
				fmt.Fprintf(cmd.ErrOrStderr(), "Scraping %s with strategy %s\n", cfg.Upstream.URL, s.Name())
			}

			result := &OutputResult{FetchedAt: time.Now().UTC()}

			if chain, isChain := s.(*scraper.Chain); isChain {
				set := chain.Collect(cmd.Context())
				result.Source = string(set.Source)
				result.Strategy = set.Strategy
				result.Mock = search.IsMock(set)
				result.Results = set.Results
			} else {
				records, err := s.Scrape(cmd.Context())
				if err != nil {
					return fmt.Errorf("%s (%s): %w", s.Name(), scraper.Classify(err), err)
				}
				result.Strategy = s.Name()
				result.Mock = s.Name() == "mock"
				result.Results = records
			}
			result.Count = len(result.Results)

			return WriteOutput(cmd.OutOrStdout(), result, format)
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "chain", "Strategy to run: strict, lenient, mock or chain")

	return cmd
}

// newRegistry builds the strategies for in-process use. Without a server
// there is no proxy, so the lenient extractor reads the page directly.
func newRegistry(cfg *config.Config, log *zap.Logger) *scraper.ScraperRegistry {
	fetcher := scraper.NewFetcher(cfg.Upstream, log.Named("fetcher"))

	strict := scraper.NewStrictScraper(fetcher, log.Named("strict"))
	lenient := scraper.NewLenientScraper(fetcher, log.Named("lenient"))

	registry := scraper.NewScraperRegistry()
	registry.Register(strict)
	registry.Register(lenient)
	registry.Register(scraper.MockScraper{})
	registry.Register(scraper.NewChain(log.Named("chain"), []scraper.Scraper{strict, lenient}, scraper.MockScraper{}))
	return registry
}

// Execute runs the CLI
func Execute(version string) {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
