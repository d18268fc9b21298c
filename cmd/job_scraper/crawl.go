package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-scraper/internal/config"
	"github.com/jonathan/job-scraper/internal/logging"
	"github.com/jonathan/job-scraper/internal/scheduler"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Scrape job postings into a CSV dataset",
	Long: `Walks the selected searches' result pages, extracts every posting (overview, company and rating tabs),
resolves the posting and headquarters countries and writes glassdoor_jobs_<timestamp>.csv.
With --database-url the dataset is also mirrored into PostgreSQL. With --schedule the crawl repeats on a cron schedule.`,
	RunE: runCrawl,
}

var (
	crawlSearches    []string
	crawlPages       int
	crawlPosts       int
	crawlOutDir      string
	crawlConfigPath  string
	crawlEngine      string
	crawlBrowserPath string
	crawlHeadless    bool
	crawlDatabaseURL string
	crawlRedisURL    string
	crawlGeocodeURL  string
	crawlGeocodeKey  string
	crawlLogFile     string
	crawlJSONLogs    bool
	crawlVerbose     bool
	crawlDedupe      bool
	crawlSchedule    string
)

func init() {
	f := crawlCmd.Flags()
	f.StringSliceVar(&crawlSearches, "search", nil, "Predefined search to run: il, dsus, uk or all (repeatable, default all)")
	f.IntVar(&crawlPages, "limit-search-pages", 0, "Result pages to walk per search (1-30)")
	f.IntVar(&crawlPosts, "limit-job-posts", 0, "Postings to extract in total (1-1000)")
	f.StringVarP(&crawlOutDir, "out", "o", "", "Output directory (default: current directory)")
	f.StringVarP(&crawlConfigPath, "config", "c", "", "Path to JSON or YAML config file")
	f.StringVar(&crawlEngine, "engine", "", "Browser engine: chromedp, rod or static (default: chromedp)")
	f.StringVar(&crawlBrowserPath, "browser-path", "", "Chrome/Chromium binary (overrides CHROME_PATH env var)")
	f.BoolVar(&crawlHeadless, "headless", true, "Run the browser without a window")
	f.StringVar(&crawlDatabaseURL, "database-url", "", "PostgreSQL URL to mirror the dataset into (overrides DATABASE_URL env var)")
	f.StringVar(&crawlRedisURL, "redis-url", "", "Redis URL for the country cache (overrides REDIS_URL env var)")
	f.StringVar(&crawlGeocodeURL, "geocode-url", "", "Geocoding endpoint (overrides GEOCODE_URL env var)")
	f.StringVar(&crawlGeocodeKey, "geocode-key", "", "Geocoding API key (overrides GEOCODE_API_KEY env var)")
	f.StringVar(&crawlLogFile, "log-file", "", "Log file (default: job_scraper_<timestamp>.log in the output directory)")
	f.BoolVar(&crawlJSONLogs, "json-logs", false, "Write logs as JSON lines")
	f.BoolVarP(&crawlVerbose, "verbose", "v", false, "Print debug logs and a crawl summary")
	f.BoolVar(&crawlDedupe, "dedupe", false, "Drop links repeated across searches")
	f.StringVar(&crawlSchedule, "schedule", "", "Repeat the crawl on a cron schedule, e.g. \"0 6 * * *\" or \"@every 12h\"")

	rootCmd.AddCommand(crawlCmd)
}

func checkRange(flag string, v, lo, hi int) error {
	if v < lo || v > hi {
		return fmt.Errorf("--%s must be between %d and %d, got %d", flag, lo, hi, v)
	}
	return nil
}

// crawlConfig layers flags over the config file over the environment over
// the built-in defaults.
func crawlConfig(cmd *cobra.Command) (config.Config, error) {
	f := cmd.Flags()

	var cfg config.Config
	if f.Changed("limit-search-pages") {
		if err := checkRange("limit-search-pages", crawlPages, 1, 30); err != nil {
			return cfg, err
		}
		cfg.LimitSearchPages = crawlPages
	}
	if f.Changed("limit-job-posts") {
		if err := checkRange("limit-job-posts", crawlPosts, 1, 1000); err != nil {
			return cfg, err
		}
		cfg.LimitJobPosts = crawlPosts
	}
	if f.Changed("headless") {
		headless := crawlHeadless
		cfg.Headless = &headless
	}
	cfg.Presets = crawlSearches
	cfg.OutDir = crawlOutDir
	cfg.Engine = crawlEngine
	cfg.BrowserPath = crawlBrowserPath
	cfg.DatabaseURL = crawlDatabaseURL
	cfg.RedisURL = crawlRedisURL
	cfg.Geocode.URL = crawlGeocodeURL
	cfg.Geocode.APIKey = crawlGeocodeKey
	cfg.LogFile = crawlLogFile
	cfg.Verbose = crawlVerbose
	cfg.JSONLogs = crawlJSONLogs
	cfg.Dedupe = crawlDedupe
	cfg.Schedule = crawlSchedule

	if crawlConfigPath != "" {
		fileCfg, err := config.LoadConfig(crawlConfigPath)
		if err != nil {
			return cfg, err
		}
		cfg = cfg.MergeWithDefaults(*fileCfg)
	}
	cfg = cfg.MergeWithDefaults(config.FromEnv(os.Getenv))
	cfg = cfg.MergeWithDefaults(config.Default())

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if cfg.Schedule != "" {
		if err := scheduler.ParseSpec(cfg.Schedule); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	cfg, err := crawlConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.OutDir, fmt.Sprintf("job_scraper_%s.log", time.Now().Format("2006-01-02_15-04-05")))
	}
	logger, closeLog, err := logging.New(logging.Options{File: cfg.LogFile, Verbose: cfg.Verbose, JSON: cfg.JSONLogs})
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	c := newCrawler(cfg, logger, cmd.OutOrStdout())
	ctx := cmd.Context()

	if cfg.Schedule == "" {
		return c.run(ctx)
	}

	s, err := scheduler.New(cfg.Schedule, c.run, logger)
	if err != nil {
		return err
	}
	if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
