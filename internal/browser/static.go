package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/jonathan/job-scraper/internal/fetch"
)

// StaticSession serves queries from server-rendered HTML fetched over plain
// HTTP. Clicking an element follows its href; any other click reports
// ErrNotInteractable since no script runs.
type StaticSession struct {
	fetchOpts *fetch.Options
	limiter   *rate.Limiter
	doc       *goquery.Document
	base      *url.URL
}

// NewStaticSession returns a session that loads pages with net/http and goquery.
func NewStaticSession(opts Options) *StaticSession {
	fo := fetch.DefaultOptions()
	if opts.NavigateTimeout > 0 {
		fo.Timeout = opts.NavigateTimeout
	}
	if opts.UserAgent != "" {
		fo.UserAgent = opts.UserAgent
	}
	limit := rate.Inf
	if opts.RequestsPerSec > 0 {
		limit = rate.Limit(opts.RequestsPerSec)
	}
	return &StaticSession{
		fetchOpts: fo,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Navigate implements Session.
func (s *StaticSession) Navigate(ctx context.Context, rawURL string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	res, err := fetch.URL(ctx, rawURL, s.fetchOpts)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &SessionError{Engine: EngineStatic, Message: "navigate to " + rawURL, Cause: err}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.HTML))
	if err != nil {
		return &SessionError{Engine: EngineStatic, Message: "parse " + rawURL, Cause: err}
	}
	base, err := url.Parse(res.URL)
	if err != nil {
		return &SessionError{Engine: EngineStatic, Message: "parse URL " + res.URL, Cause: err}
	}
	s.doc, s.base = doc, base
	return nil
}

func (s *StaticSession) loaded() error {
	if s.doc == nil {
		return &SessionError{Engine: EngineStatic, Message: "no page loaded"}
	}
	return nil
}

// Find implements Session.
func (s *StaticSession) Find(ctx context.Context, selector string) (Element, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	return s.first(s.doc.Selection, selector)
}

func (s *StaticSession) first(from *goquery.Selection, selector string) (Element, error) {
	sel := from.Find(selector)
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%s: %w", selector, ErrElementNotFound)
	}
	return &staticElement{s: s, sel: sel.First()}, nil
}

// FindAll implements Session.
func (s *StaticSession) FindAll(ctx context.Context, selector string) ([]Element, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	var out []Element
	s.doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		out = append(out, &staticElement{s: s, sel: sel})
	})
	return out, nil
}

// WaitVisible implements Session. A static document never changes, so this
// is a plain lookup.
func (s *StaticSession) WaitVisible(ctx context.Context, selector string, _ time.Duration) (Element, error) {
	return s.Find(ctx, selector)
}

// Close implements Session.
func (s *StaticSession) Close() error {
	s.doc = nil
	return nil
}

type staticElement struct {
	s   *StaticSession
	sel *goquery.Selection
}

func (e *staticElement) Text(context.Context) (string, error) {
	return strings.TrimSpace(e.sel.Text()), nil
}

// Attribute resolves href and src against the page URL, as a browser does.
func (e *staticElement) Attribute(_ context.Context, name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	if !ok {
		return "", false, nil
	}
	if name == "href" || name == "src" {
		return e.s.resolve(v), true, nil
	}
	return v, true, nil
}

func (e *staticElement) Click(ctx context.Context) error {
	href, ok := e.sel.Attr("href")
	if !ok || href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return fmt.Errorf("static click on <%s>: %w", goquery.NodeName(e.sel), ErrNotInteractable)
	}
	return e.s.Navigate(ctx, e.s.resolve(href))
}

func (e *staticElement) Find(_ context.Context, selector string) (Element, error) {
	return e.s.first(e.sel, selector)
}

func (s *StaticSession) resolve(ref string) string {
	if s.base == nil {
		return ref
	}
	u, err := s.base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}
