package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jonathan/job-scraper/internal/browser"
	"github.com/jonathan/job-scraper/internal/config"
	"github.com/jonathan/job-scraper/internal/dataset"
	"github.com/jonathan/job-scraper/internal/db"
	"github.com/jonathan/job-scraper/internal/discovery"
	"github.com/jonathan/job-scraper/internal/extraction"
	"github.com/jonathan/job-scraper/internal/observability"
	"github.com/jonathan/job-scraper/internal/retry"
	"github.com/jonathan/job-scraper/internal/types"
)

const timeLayout = "2006-01-02 15:04:05"

// crawler runs one crawl: discover, extract, resolve, write.
type crawler struct {
	cfg         config.Config
	logger      logrus.FieldLogger
	out         io.Writer
	sessionOpts browser.Options
	newSession  func(ctx context.Context, opts browser.Options) (browser.Session, error)
	sleep       retry.Sleeper // nil uses real delays
	now         func() time.Time
}

func newCrawler(cfg config.Config, logger logrus.FieldLogger, out io.Writer) *crawler {
	opts := browser.DefaultOptions()
	opts.Engine = cfg.Engine
	opts.ExecPath = cfg.BrowserPath
	opts.Headless = cfg.HeadlessOrDefault()

	return &crawler{
		cfg:         cfg,
		logger:      logger,
		out:         out,
		sessionOpts: opts,
		newSession:  browser.New,
		now:         time.Now,
	}
}

func (c *crawler) run(ctx context.Context) error {
	log := c.logger.WithField("run_id", uuid.NewString())
	started := c.now()
	log.Infof("Started at %s", started.Format(timeLayout))

	searches, err := c.cfg.SearchQueries()
	if err != nil {
		return err
	}

	resolver, closeResolver, err := newResolver(ctx, c.cfg, log)
	if err != nil {
		return err
	}
	defer closeResolver()

	session, err := c.newSession(ctx, c.sessionOpts)
	if err != nil {
		return fmt.Errorf("cannot start %s browser session (install Chrome/Chromium or pass --browser-path): %w", c.sessionOpts.Engine, err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.WithError(err).Warn("Closing browser session failed")
		}
	}()

	links, counts, err := c.discover(ctx, session, searches, log)
	if err != nil {
		return err
	}
	if c.cfg.Verbose {
		observability.NewPrinter(c.out).PrintSearches(counts)
	}

	var extractOpts []extraction.Option
	if c.sleep != nil {
		extractOpts = append(extractOpts, extraction.WithSleeper(c.sleep))
	}
	builder := dataset.NewBuilder(extraction.New(session, log, extractOpts...), resolver, log, dataset.WithClock(c.now))

	table, buildErr := builder.Build(ctx, links, c.cfg.LimitJobPosts)
	if errors.Is(buildErr, dataset.ErrNoLinks) {
		log.Warn("No job links were gathered")
		_, _ = fmt.Fprintln(c.out, "No job postings found; nothing written.")
		return nil
	}
	if buildErr != nil && table.Len() == 0 {
		return fmt.Errorf("crawl interrupted: %w", buildErr)
	}

	path, err := table.SaveCSV(c.cfg.OutDir, dataset.FileName(started))
	if err != nil {
		return err
	}
	log.WithField("rows", table.Len()).Infof("Dataset written to %s", path)

	mirrored := false
	if c.cfg.DatabaseURL != "" && buildErr == nil {
		if err := c.mirror(ctx, table, log); err != nil {
			return err
		}
		mirrored = true
	}

	ended := c.now()
	log.Infof("Ended at %s", ended.Format(timeLayout))

	if c.cfg.Verbose {
		observability.NewPrinter(c.out).PrintCrawlSummary(observability.CrawlSummary{
			Started:  started,
			Ended:    ended,
			Table:    table,
			CSVPath:  path,
			Mirrored: mirrored,
		})
	}
	_, _ = fmt.Fprintf(c.out, "Wrote %d postings to %s\n", table.Len(), path)

	if buildErr != nil {
		return fmt.Errorf("crawl interrupted after %d postings: %w", table.Len(), buildErr)
	}
	return nil
}

// discover walks every search in order. A search that fails part way keeps
// the links it produced; only cancellation stops the crawl.
func (c *crawler) discover(ctx context.Context, session browser.Session, searches []types.SearchQuery, log logrus.FieldLogger) ([]types.JobLink, []observability.SearchCount, error) {
	var opts []discovery.Option
	if c.sleep != nil {
		opts = append(opts, discovery.WithSleeper(c.sleep))
	}
	d := discovery.New(session, log, opts...)

	var (
		links  []types.JobLink
		counts []observability.SearchCount
	)
	for _, q := range searches {
		found, err := d.Discover(ctx, q)
		links = append(links, found...)
		counts = append(counts, observability.SearchCount{Search: q, Links: len(found)})
		if err != nil {
			if ctx.Err() != nil {
				return nil, counts, fmt.Errorf("crawl interrupted: %w", ctx.Err())
			}
			log.WithError(err).WithField("search", q.Label()).Error("Search failed")
		}
	}
	log.Infof("Total of %d links were gathered", len(links))

	if c.cfg.Dedupe {
		before := len(links)
		links = types.DedupeLinks(links)
		log.WithField("removed", before-len(links)).Info("Duplicate links removed")
	}
	return links, counts, nil
}

func (c *crawler) mirror(ctx context.Context, table *dataset.Table, log logrus.FieldLogger) error {
	store, err := db.Connect(ctx, c.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ApplySchema(ctx); err != nil {
		return err
	}
	stats, err := store.SaveMirror(ctx, db.Reduce(table))
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"locations": stats.Locations,
		"companies": stats.Companies,
		"jobs":      stats.Jobs,
	}).Info("Dataset mirrored to PostgreSQL")
	return nil
}
