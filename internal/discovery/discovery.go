// Package discovery walks paginated search results and collects job-posting links.
package discovery

import (
	"context"
	"iter"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/job-scraper/internal/browser"
	"github.com/jonathan/job-scraper/internal/retry"
	"github.com/jonathan/job-scraper/internal/types"
)

// DefaultNextTimeout bounds the wait for the "next page" control.
const DefaultNextTimeout = 20 * time.Second

// Selectors locate the parts of a search-results page.
type Selectors struct {
	JobHeader  string // one per posting on the results page
	JobLink    string // inside JobHeader, carries the href
	NextPage   string // pagination control
	PopupClose string // interstitial pop-up close button
}

// GlassdoorSelectors returns the selectors for Glassdoor search pages.
func GlassdoorSelectors() Selectors {
	return Selectors{
		JobHeader:  ".jobHeader",
		JobLink:    "a",
		NextPage:   "li.next a",
		PopupClose: "#prefix__icon-close-1",
	}
}

// Discoverer drives one browser session across search-result pages.
type Discoverer struct {
	session     browser.Session
	sel         Selectors
	clickDelay  retry.Delay
	nextTimeout time.Duration
	sleep       retry.Sleeper
	logger      logrus.FieldLogger
}

// Option customizes a Discoverer.
type Option func(*Discoverer)

// WithSelectors overrides the page selectors.
func WithSelectors(sel Selectors) Option {
	return func(d *Discoverer) { d.sel = sel }
}

// WithClickDelay overrides the courtesy delay after each pagination click.
func WithClickDelay(delay retry.Delay) Option {
	return func(d *Discoverer) { d.clickDelay = delay }
}

// WithNextTimeout overrides how long to wait for the next-page control.
func WithNextTimeout(timeout time.Duration) Option {
	return func(d *Discoverer) { d.nextTimeout = timeout }
}

// WithSleeper replaces the sleeper used for delays.
func WithSleeper(sleep retry.Sleeper) Option {
	return func(d *Discoverer) { d.sleep = sleep }
}

// New returns a Discoverer using Glassdoor selectors and a 2-4s click delay.
func New(session browser.Session, logger logrus.FieldLogger, opts ...Option) *Discoverer {
	d := &Discoverer{
		session:     session,
		sel:         GlassdoorSelectors(),
		clickDelay:  retry.Seconds(2, 4),
		nextTimeout: DefaultNextTimeout,
		sleep:       retry.Sleep,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Links returns a lazy, single-use sequence of the posting links found by
// walking q's result pages. Pages are loaded as the sequence is consumed.
// An infrastructure failure is yielded once, with an empty link, and ends
// the sequence. Running out of pages is not an error.
func (d *Discoverer) Links(ctx context.Context, q types.SearchQuery) iter.Seq2[types.JobLink, error] {
	used := false
	return func(yield func(types.JobLink, error) bool) {
		if used {
			return
		}
		used = true
		if err := d.walk(ctx, q, yield); err != nil {
			yield("", err)
		}
	}
}

func (d *Discoverer) walk(ctx context.Context, q types.SearchQuery, yield func(types.JobLink, error) bool) error {
	log := d.logger.WithField("search", q.Label())

	if err := d.session.Navigate(ctx, q.URL); err != nil {
		return err
	}
	d.dismissPopup(ctx)

	var previous []types.JobLink
	for page := 1; ; page++ {
		links, err := d.pageLinks(ctx)
		if err != nil {
			return err
		}
		if page > 1 && len(links) > 0 && slices.Equal(links, previous) {
			log.WithField("page", page).Warn("Page repeats the previous one, last page assumed")
			return nil
		}
		for _, l := range links {
			if !yield(l, nil) {
				return nil
			}
		}
		previous = links
		log.WithFields(logrus.Fields{"page": page, "links": len(links)}).Infof("Page %d of %s is done", page, q.Label())

		if q.PageCap > 0 && page >= q.PageCap {
			return nil
		}

		advanced, err := d.nextPage(ctx)
		if err != nil {
			return err
		}
		if !advanced {
			log.WithField("page", page).Warn("Next page couldn't be clicked, last page assumed")
			return nil
		}
	}
}

// pageLinks reads the href of every job header on the loaded page.
func (d *Discoverer) pageLinks(ctx context.Context) ([]types.JobLink, error) {
	headers, err := d.session.FindAll(ctx, d.sel.JobHeader)
	if err != nil {
		return nil, err
	}
	links := make([]types.JobLink, 0, len(headers))
	for i, h := range headers {
		a, err := h.Find(ctx, d.sel.JobLink)
		if err != nil {
			if browser.IsMiss(err) {
				d.logger.WithField("header", i).Debug("Job header without link skipped")
				continue
			}
			return nil, err
		}
		href, ok, err := a.Attribute(ctx, "href")
		if err != nil {
			if browser.IsMiss(err) {
				continue
			}
			return nil, err
		}
		if !ok || href == "" {
			continue
		}
		links = append(links, types.JobLink(href))
	}
	return links, nil
}

// nextPage clicks the pagination control. It reports false when the control
// is absent or never becomes interactable, which ends the walk.
func (d *Discoverer) nextPage(ctx context.Context) (bool, error) {
	next, err := d.session.WaitVisible(ctx, d.sel.NextPage, d.nextTimeout)
	if err != nil {
		if browser.IsMiss(err) {
			return false, nil
		}
		return false, err
	}
	if err := next.Click(ctx); err != nil {
		if browser.IsMiss(err) {
			return false, nil
		}
		return false, err
	}
	if err := d.clickDelay.Wait(ctx, d.sleep); err != nil {
		return false, err
	}
	d.dismissPopup(ctx)
	return true, nil
}

// dismissPopup closes the interstitial pop-up if one is showing.
func (d *Discoverer) dismissPopup(ctx context.Context) {
	if d.sel.PopupClose == "" {
		return
	}
	clicked, err := browser.TryClick(ctx, d.session, d.sel.PopupClose)
	switch {
	case err != nil:
		d.logger.WithError(err).Debug("Pop-up dismissal failed")
	case !clicked:
		d.logger.Debug("No pop-up")
	default:
		d.logger.Debug("Pop-up dismissed")
	}
}

// Discover collects every link for q.
func (d *Discoverer) Discover(ctx context.Context, q types.SearchQuery) ([]types.JobLink, error) {
	var links []types.JobLink
	for l, err := range d.Links(ctx, q) {
		if err != nil {
			return links, err
		}
		links = append(links, l)
	}
	return links, nil
}

// DiscoverAll runs Discover for each query in order and concatenates the
// results. Duplicates across queries are kept.
func (d *Discoverer) DiscoverAll(ctx context.Context, queries []types.SearchQuery) ([]types.JobLink, error) {
	var all []types.JobLink
	for _, q := range queries {
		links, err := d.Discover(ctx, q)
		all = append(all, links...)
		if err != nil {
			return all, err
		}
	}
	d.logger.WithField("links", len(all)).Infof("Total of %d links were gathered", len(all))
	return all, nil
}
