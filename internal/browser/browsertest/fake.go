// Package browsertest provides an in-memory browser.Session for tests.
package browsertest

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/job-scraper/internal/browser"
)

// Page is a fake document: selector -> matching elements.
type Page map[string][]*Element

// Element is a fake DOM node.
type Element struct {
	TextValue string
	Attrs     map[string]string
	Children  Page
	// OnClick runs when the element is clicked. Nil clicks report ErrNotInteractable.
	OnClick func(s *Session) error
}

// Link returns an element wrapping an <a href>.
func Link(href string) *Element {
	return &Element{Attrs: map[string]string{"href": href}}
}

// Text returns an element with the given text.
func Text(text string) *Element {
	return &Element{TextValue: text}
}

// Session is a scripted browser.Session. Pages are keyed by URL.
type Session struct {
	Pages map[string]Page

	current    Page
	currentURL string

	// FailFirst makes the first n lookups of a selector report ErrElementNotFound.
	FailFirst map[string]int
	// NavigateErr, when set, is returned by every Navigate call.
	NavigateErr error

	Navigations []string
	Clicks      []string
	lookups     map[string]int
	closed      bool
}

// NewSession returns a session over the given pages.
func NewSession(pages map[string]Page) *Session {
	return &Session{
		Pages:     pages,
		FailFirst: map[string]int{},
		lookups:   map[string]int{},
	}
}

// Lookups returns how many times selector was queried with Find or FindAll.
func (s *Session) Lookups(selector string) int {
	return s.lookups[selector]
}

// CurrentURL returns the URL of the loaded page.
func (s *Session) CurrentURL() string {
	return s.currentURL
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	return s.closed
}

// Show replaces the loaded document without recording a navigation,
// as a client-side tab switch does.
func (s *Session) Show(url string) error {
	p, ok := s.Pages[url]
	if !ok {
		return fmt.Errorf("browsertest: no page %q", url)
	}
	s.current, s.currentURL = p, url
	return nil
}

// Navigate implements browser.Session.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Navigations = append(s.Navigations, url)
	if s.NavigateErr != nil {
		return s.NavigateErr
	}
	if err := s.Show(url); err != nil {
		return &browser.SessionError{Engine: "fake", Message: "navigate", Cause: err}
	}
	return nil
}

func (s *Session) lookup(selector string) []*Element {
	s.lookups[selector]++
	if s.lookups[selector] <= s.FailFirst[selector] {
		return nil
	}
	if s.current == nil {
		return nil
	}
	return s.current[selector]
}

// Find implements browser.Session.
func (s *Session) Find(ctx context.Context, selector string) (browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	els := s.lookup(selector)
	if len(els) == 0 {
		return nil, fmt.Errorf("%s: %w", selector, browser.ErrElementNotFound)
	}
	return &handle{s: s, el: els[0], selector: selector}, nil
}

// FindAll implements browser.Session.
func (s *Session) FindAll(ctx context.Context, selector string) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	els := s.lookup(selector)
	out := make([]browser.Element, len(els))
	for i, el := range els {
		out[i] = &handle{s: s, el: el, selector: selector}
	}
	return out, nil
}

// WaitVisible implements browser.Session.
func (s *Session) WaitVisible(ctx context.Context, selector string, _ time.Duration) (browser.Element, error) {
	return s.Find(ctx, selector)
}

// Close implements browser.Session.
func (s *Session) Close() error {
	s.closed = true
	return nil
}

type handle struct {
	s        *Session
	el       *Element
	selector string
}

func (h *handle) Text(context.Context) (string, error) {
	return h.el.TextValue, nil
}

func (h *handle) Attribute(_ context.Context, name string) (string, bool, error) {
	v, ok := h.el.Attrs[name]
	return v, ok, nil
}

func (h *handle) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.s.Clicks = append(h.s.Clicks, h.selector)
	if h.el.OnClick == nil {
		return fmt.Errorf("%s: %w", h.selector, browser.ErrNotInteractable)
	}
	return h.el.OnClick(h.s)
}

func (h *handle) Find(_ context.Context, selector string) (browser.Element, error) {
	els := h.el.Children[selector]
	if len(els) == 0 {
		return nil, fmt.Errorf("%s: %w", selector, browser.ErrElementNotFound)
	}
	return &handle{s: h.s, el: els[0], selector: selector}, nil
}

// GoTo returns an OnClick that navigates to url.
func GoTo(url string) func(s *Session) error {
	return func(s *Session) error {
		return s.Navigate(context.Background(), url)
	}
}

// ShowPage returns an OnClick that swaps the document to url without a navigation.
func ShowPage(url string) func(s *Session) error {
	return func(s *Session) error {
		return s.Show(url)
	}
}
