package dataset

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/job-scraper/internal/types"
)

// ErrNoLinks is returned by Build when there is nothing to extract.
var ErrNoLinks = errors.New("no job links to process")

// Extractor reads one posting. The record is returned even when err is set.
type Extractor interface {
	Extract(ctx context.Context, link types.JobLink) (*types.PostingRecord, error)
}

// Resolver maps a location string to a country.
type Resolver interface {
	Resolve(ctx context.Context, location string) (string, bool)
}

// Builder drives an Extractor over a link list and resolves countries.
type Builder struct {
	extractor Extractor
	resolver  Resolver
	now       func() time.Time
	logger    logrus.FieldLogger
}

// Option customizes a Builder.
type Option func(*Builder)

// WithClock overrides the scrape timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// NewBuilder returns a Builder. A nil resolver leaves country columns empty.
func NewBuilder(extractor Extractor, resolver Resolver, logger logrus.FieldLogger, opts ...Option) *Builder {
	b := &Builder{
		extractor: extractor,
		resolver:  resolver,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build extracts up to limit links (limit <= 0 means all) in order and
// returns the table. Empty input returns an empty table and ErrNoLinks.
// Extraction errors are logged and the partial row is kept. On cancellation
// the rows gathered so far are returned with the context error.
func (b *Builder) Build(ctx context.Context, links []types.JobLink, limit int) (*Table, error) {
	table := NewTable()
	if limit > 0 && len(links) > limit {
		links = links[:limit]
	}
	if len(links) == 0 {
		return table, ErrNoLinks
	}

	total := len(links)
	for i, link := range links {
		if err := ctx.Err(); err != nil {
			return table, err
		}
		b.logger.WithField("url", link.String()).Infof("link %d out of %d, %d left", i+1, total, total-i-1)

		rec, err := b.extractor.Extract(ctx, link)
		if rec == nil {
			rec = types.NewPostingRecord(link)
		}
		rec.ScrapedAt = b.now()
		table.Append(rec)

		if err != nil {
			if ctx.Err() != nil {
				return table, ctx.Err()
			}
			b.logger.WithError(err).WithField("url", link.String()).Error("Posting extracted partially")
		}
	}

	b.resolveCountries(ctx, table)
	return table, ctx.Err()
}

func (b *Builder) resolveCountries(ctx context.Context, table *Table) {
	if b.resolver == nil {
		return
	}
	for _, rec := range table.records {
		if ctx.Err() != nil {
			return
		}
		if rec.Location != nil {
			if c, ok := b.resolver.Resolve(ctx, *rec.Location); ok {
				rec.Country = &c
			}
		}
		if hq, ok := rec.Headquarters(); ok {
			if c, ok := b.resolver.Resolve(ctx, hq); ok {
				rec.HQCountry = &c
			}
		}
	}
	b.logger.WithField("rows", table.Len()).Debug("Countries resolved")
}
