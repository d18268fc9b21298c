package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-scraper/internal/config"
	"github.com/jonathan/job-scraper/internal/logging"
	"github.com/jonathan/job-scraper/internal/observability"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <location>...",
	Short: "Resolve locations to countries",
	Long:  "Runs each location through the geocoder with the same fallbacks the crawl uses and prints the resulting country.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResolve,
}

var (
	resolveGeocodeURL string
	resolveGeocodeKey string
	resolveRedisURL   string
	resolveVerbose    bool
)

func init() {
	resolveCmd.Flags().StringVar(&resolveGeocodeURL, "geocode-url", "", "Geocoding endpoint (overrides GEOCODE_URL env var)")
	resolveCmd.Flags().StringVar(&resolveGeocodeKey, "geocode-key", "", "Geocoding API key (overrides GEOCODE_API_KEY env var)")
	resolveCmd.Flags().StringVar(&resolveRedisURL, "redis-url", "", "Redis URL for the country cache (overrides REDIS_URL env var)")
	resolveCmd.Flags().BoolVarP(&resolveVerbose, "verbose", "v", false, "Log every lookup")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg := config.Config{
		RedisURL: resolveRedisURL,
		Geocode:  config.GeocodeConfig{URL: resolveGeocodeURL, APIKey: resolveGeocodeKey},
	}
	cfg = cfg.MergeWithDefaults(config.FromEnv(os.Getenv))
	cfg = cfg.MergeWithDefaults(config.Default())

	logger, closeLog, err := logging.New(logging.Options{Verbose: resolveVerbose, Console: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	ctx := cmd.Context()
	resolver, cleanup, err := newResolver(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	results := make([]observability.Resolution, 0, len(args))
	for _, loc := range args {
		country, ok := resolver.Resolve(ctx, loc)
		results = append(results, observability.Resolution{Location: loc, Country: country, OK: ok})
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintResolutions(results)
	return nil
}
