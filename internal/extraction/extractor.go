package extraction

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/job-scraper/internal/browser"
	"github.com/jonathan/job-scraper/internal/retry"
	"github.com/jonathan/job-scraper/internal/types"
)

// DefaultLocationPrefixLen is the length of the icon/label sequence the site
// puts in front of the location text.
const DefaultLocationPrefixLen = 3

// Extractor reads postings through a browser session.
type Extractor struct {
	session        browser.Session
	sel            Selectors
	policy         retry.Policy
	tabDelay       retry.Delay
	sleep          retry.Sleeper
	locationPrefix int
	logger         logrus.FieldLogger
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithSelectors overrides the page selectors.
func WithSelectors(sel Selectors) Option {
	return func(e *Extractor) { e.sel = sel }
}

// WithPolicy overrides the retry policy used for the job id and title.
func WithPolicy(p retry.Policy) Option {
	return func(e *Extractor) { e.policy = p }
}

// WithSleeper replaces the sleeper for every delay, including the retry policy's.
func WithSleeper(sleep retry.Sleeper) Option {
	return func(e *Extractor) {
		e.sleep = sleep
		e.policy.Sleep = sleep
	}
}

// WithLocationPrefix overrides the number of leading runes cut from the location.
func WithLocationPrefix(n int) Option {
	return func(e *Extractor) { e.locationPrefix = n }
}

// New returns an Extractor with Glassdoor selectors, a 3-trial retry policy
// and 2-4s settle delays.
func New(session browser.Session, logger logrus.FieldLogger, opts ...Option) *Extractor {
	e := &Extractor{
		session:        session,
		sel:            GlassdoorSelectors(),
		policy:         retry.DefaultPolicy(isTransient),
		tabDelay:       retry.Seconds(2, 4),
		sleep:          retry.Sleep,
		locationPrefix: DefaultLocationPrefixLen,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.policy.Transient == nil {
		e.policy.Transient = isTransient
	}
	return e
}

func isTransient(err error) bool {
	return errors.Is(err, browser.ErrElementNotFound)
}

// stage is one tab of the posting. Stages run strictly in order, once each,
// and a failing stage does not stop the next one.
type stage struct {
	name string
	run  func(ctx context.Context, rec *types.PostingRecord, log logrus.FieldLogger) error
}

func (e *Extractor) stages() []stage {
	return []stage{
		{name: "overview", run: e.overview},
		{name: "company", run: e.company},
		{name: "rating", run: e.rating},
	}
}

// Extract loads link and reads every tab. The returned record is never nil:
// fields that could not be read are left absent. The error is non-nil only
// for infrastructure failures (navigation, a dead session, cancellation).
func (e *Extractor) Extract(ctx context.Context, link types.JobLink) (*types.PostingRecord, error) {
	rec := types.NewPostingRecord(link)
	log := e.logger.WithField("url", link.String())

	if err := e.session.Navigate(ctx, link.String()); err != nil {
		return rec, &ExtractionError{URL: link.String(), Stage: "navigate", Cause: err}
	}
	if err := e.tabDelay.Wait(ctx, e.sleep); err != nil {
		return rec, err
	}
	e.dismissPopup(ctx, log)

	var errs []error
	for _, st := range e.stages() {
		err := st.run(ctx, rec, log.WithField("stage", st.name))
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return rec, ctx.Err()
		}
		log.WithError(err).WithField("stage", st.name).Warn("Stage failed, continuing with next tab")
		errs = append(errs, &ExtractionError{URL: link.String(), Stage: st.name, Cause: err})
	}
	return rec, errors.Join(errs...)
}

func (e *Extractor) dismissPopup(ctx context.Context, log logrus.FieldLogger) {
	if e.sel.PopupClose == "" {
		return
	}
	clicked, err := browser.TryClick(ctx, e.session, e.sel.PopupClose)
	switch {
	case err != nil:
		log.WithError(err).Debug("Pop-up dismissal failed")
	case !clicked:
		log.Debug("No pop-up")
	}
}

// overview reads the fields of the default tab. Each field is read on its
// own: a failure on one is collected and the rest are still attempted.
func (e *Extractor) overview(ctx context.Context, rec *types.PostingRecord, log logrus.FieldLogger) error {
	reload := func(ctx context.Context) error {
		return e.session.Navigate(ctx, rec.URL.String())
	}

	var errs []error
	collect := func(err error) bool {
		if err != nil {
			errs = append(errs, err)
		}
		return ctx.Err() == nil
	}

	var err error
	rec.JobID, err = e.retried(ctx, "job_id", e.jobID, reload, log)
	if !collect(err) {
		return ctx.Err()
	}
	rec.Title, err = e.retried(ctx, "title", e.textOf(e.sel.Title), reload, log)
	if !collect(err) {
		return ctx.Err()
	}
	rec.CompanyName, err = e.single(ctx, "company_name", e.sel.Company, strings.TrimSpace, log)
	if !collect(err) {
		return ctx.Err()
	}
	rec.Location, err = e.single(ctx, "location", e.sel.Location, e.stripLocationPrefix, log)
	if !collect(err) {
		return ctx.Err()
	}
	rec.Description, err = e.single(ctx, "description", e.sel.Description, flattenNewlines, log)
	if !collect(err) {
		return ctx.Err()
	}

	if len(errs) == 0 {
		log.Debug("Main tab fetched")
	}
	return errors.Join(errs...)
}

// retried runs query under the bounded retry-with-reload policy. Exhausting
// the trials leaves the field absent and is not an error.
func (e *Extractor) retried(ctx context.Context, field string, query func(context.Context) (string, error), reload func(context.Context) error, log logrus.FieldLogger) (*string, error) {
	p := e.policy
	p.OnMiss = func(attempt int, err error) {
		log.WithFields(logrus.Fields{"field": field, "trial": attempt}).Warnf("%s not collected on trial %d", field, attempt)
	}
	out, err := retry.Do(ctx, p, query, reload)
	if err != nil {
		return nil, err
	}
	if !out.OK {
		log.WithFields(logrus.Fields{"field": field, "attempts": out.Attempts}).Warn("Field left empty after retries")
		return nil, nil
	}
	return &out.Value, nil
}

// single queries selector once. A miss leaves the field absent.
func (e *Extractor) single(ctx context.Context, field, selector string, clean func(string) string, log logrus.FieldLogger) (*string, error) {
	text, err := e.textOf(selector)(ctx)
	if err != nil {
		if browser.IsMiss(err) {
			log.WithField("field", field).Warnf("%s was not collected", field)
			return nil, nil
		}
		return nil, err
	}
	v := clean(text)
	return &v, nil
}

func (e *Extractor) textOf(selector string) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		el, err := e.session.Find(ctx, selector)
		if err != nil {
			return "", err
		}
		text, err := el.Text(ctx)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(text), nil
	}
}

// jobID reads the id attribute of the job view container, e.g.
// "JobView_1007630119183" -> "1007630119183". An id without "_" is kept whole.
func (e *Extractor) jobID(ctx context.Context) (string, error) {
	el, err := e.session.Find(ctx, e.sel.JobView)
	if err != nil {
		return "", err
	}
	id, ok, err := el.Attribute(ctx, "id")
	if err != nil {
		return "", err
	}
	if !ok || id == "" {
		return "", browser.ErrElementNotFound
	}
	parts := strings.Split(id, "_")
	if len(parts) < 2 {
		return id, nil
	}
	return parts[1], nil
}

func (e *Extractor) stripLocationPrefix(s string) string {
	r := []rune(s)
	if len(r) <= e.locationPrefix {
		return ""
	}
	return strings.TrimSpace(string(r[e.locationPrefix:]))
}

func flattenNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

// switchTab clicks the tab control labelled name. It reports false, with a
// nil error, when the control is missing or cannot be clicked.
func (e *Extractor) switchTab(ctx context.Context, name string, log logrus.FieldLogger) (bool, error) {
	tab, err := browser.FindByText(ctx, e.session, e.sel.TabLink, name)
	if err != nil {
		if browser.IsMiss(err) {
			log.WithField("tab", name).Info("Tab not available")
			return false, nil
		}
		return false, err
	}
	if err := tab.Click(ctx); err != nil {
		if browser.IsMiss(err) {
			log.WithField("tab", name).Info("Tab could not be opened")
			return false, nil
		}
		return false, err
	}
	if err := e.tabDelay.Wait(ctx, e.sleep); err != nil {
		return false, err
	}
	return true, nil
}

// company pairs every field label on the Company tab with the value at the
// same position. Whatever labels are present become attribute keys.
func (e *Extractor) company(ctx context.Context, rec *types.PostingRecord, log logrus.FieldLogger) error {
	ok, err := e.switchTab(ctx, e.sel.CompanyTab, log)
	if err != nil || !ok {
		return err
	}

	labels, err := e.session.FindAll(ctx, e.sel.FieldLabel)
	if err != nil {
		return err
	}
	values, err := e.session.FindAll(ctx, e.sel.FieldValue)
	if err != nil {
		return err
	}
	if len(labels) != len(values) {
		log.WithFields(logrus.Fields{"labels": len(labels), "values": len(values)}).Info("Partial data collected from company tab")
	}

	for i := 0; i < min(len(labels), len(values)); i++ {
		name, err := labels[i].Text(ctx)
		if err != nil {
			if browser.IsMiss(err) {
				continue
			}
			return err
		}
		value, err := values[i].Text(ctx)
		if err != nil {
			if browser.IsMiss(err) {
				continue
			}
			return err
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		rec.Attributes.Set(name, strings.TrimSpace(value))
	}

	log.WithField("fields", rec.Attributes.Len()).Debug("Company tab fetched")
	return nil
}

// rating reads the company rating from the Rating tab.
func (e *Extractor) rating(ctx context.Context, rec *types.PostingRecord, log logrus.FieldLogger) error {
	ok, err := e.switchTab(ctx, e.sel.RatingTab, log)
	if err != nil || !ok {
		return err
	}

	text, err := e.textOf(e.sel.Rating)(ctx)
	if err != nil {
		if browser.IsMiss(err) {
			log.Warn("Rating was not found on page, and not collected")
			return nil
		}
		return err
	}

	r, ok := parseRating(text)
	if !ok {
		log.WithField("text", text).Warn("Rating could not be parsed")
		return nil
	}
	rec.Rating = &r
	log.Debug("Rating tab fetched")
	return nil
}

// parseRating accepts "4.1" and "4.1 ★" style text.
func parseRating(text string) (float64, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, false
	}
	r, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], "★"), 64)
	if err != nil {
		return 0, false
	}
	return r, true
}
