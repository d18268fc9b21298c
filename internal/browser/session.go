// Package browser defines the scriptable browser session used by the crawler
// and provides chromedp, rod and static-HTML implementations of it.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrElementNotFound is returned when a query matches nothing.
var ErrElementNotFound = errors.New("element not found")

// ErrNotInteractable is returned when an element exists but cannot be clicked.
var ErrNotInteractable = errors.New("element not interactable")

// IsMiss reports whether err is an expected query miss rather than an
// infrastructure failure.
func IsMiss(err error) bool {
	return errors.Is(err, ErrElementNotFound) || errors.Is(err, ErrNotInteractable)
}

// Session is a single browser tab driven by one caller at a time.
// Every query reads the page currently loaded by the last Navigate or Click.
type Session interface {
	// Navigate loads url and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error
	// Find returns the first element matching the CSS selector or ErrElementNotFound.
	Find(ctx context.Context, selector string) (Element, error)
	// FindAll returns every element matching the CSS selector. No match is not an error.
	FindAll(ctx context.Context, selector string) ([]Element, error)
	// WaitVisible waits up to timeout for a visible element matching selector.
	// It returns ErrElementNotFound when the wait runs out.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	// Close releases the browser.
	Close() error
}

// Element is a node of the currently loaded document.
type Element interface {
	Text(ctx context.Context) (string, error)
	// Attribute returns the named attribute and whether it is present.
	Attribute(ctx context.Context, name string) (string, bool, error)
	Click(ctx context.Context) error
	// Find returns the first descendant matching selector or ErrElementNotFound.
	Find(ctx context.Context, selector string) (Element, error)
}

// SessionError reports a failure to establish or drive a browser session.
type SessionError struct {
	Engine  string
	Message string
	Cause   error
}

func (e *SessionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s session: %s: %v", e.Engine, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s session: %s", e.Engine, e.Message)
}

func (e *SessionError) Unwrap() error {
	return e.Cause
}

// FindByText returns the first element matching selector whose trimmed text
// equals text, or ErrElementNotFound.
func FindByText(ctx context.Context, s Session, selector, text string) (Element, error) {
	els, err := s.FindAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	for _, el := range els {
		t, err := el.Text(ctx)
		if err != nil {
			if IsMiss(err) {
				continue
			}
			return nil, err
		}
		if normalizeSpace(t) == text {
			return el, nil
		}
	}
	return nil, fmt.Errorf("%s with text %q: %w", selector, text, ErrElementNotFound)
}

// TryClick clicks the first element matching selector if there is one.
// It reports whether a click happened; a missing element is not an error.
func TryClick(ctx context.Context, s Session, selector string) (bool, error) {
	el, err := s.Find(ctx, selector)
	if err != nil {
		if IsMiss(err) {
			return false, nil
		}
		return false, err
	}
	if err := el.Click(ctx); err != nil {
		if IsMiss(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
