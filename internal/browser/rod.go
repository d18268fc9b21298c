package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodSession drives a Chrome tab through go-rod.
type RodSession struct {
	browser    *rod.Browser
	page       *rod.Page
	launcher   *launcher.Launcher
	navTimeout time.Duration
}

// NewRodSession launches a browser with go-rod's launcher and opens one page.
// Without ExecPath the launcher looks for a system browser and downloads one
// if none is found.
func NewRodSession(ctx context.Context, opts Options) (*RodSession, error) {
	if err := checkExecPath(EngineRod, opts.ExecPath); err != nil {
		return nil, err
	}

	l := launcher.New().
		Headless(opts.Headless).
		NoSandbox(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage")
	if opts.ExecPath != "" {
		l = l.Bin(opts.ExecPath)
	}
	if opts.UserAgent != "" {
		l = l.Set("user-agent", opts.UserAgent)
	}

	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, &SessionError{
			Engine:  EngineRod,
			Message: "failed to launch browser; install Chrome/Chromium or pass --browser-path",
			Cause:   err,
		}
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, &SessionError{Engine: EngineRod, Message: "failed to connect to browser", Cause: err}
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, &SessionError{Engine: EngineRod, Message: "failed to open page", Cause: err}
	}

	return &RodSession{
		browser:    b,
		page:       page,
		launcher:   l,
		navTimeout: opts.NavigateTimeout,
	}, nil
}

// classifyRod maps rod failures onto the session error vocabulary.
func classifyRod(ctx context.Context, miss error, op string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var (
		notFound       *rod.ErrElementNotFound
		covered        *rod.ErrCovered
		invisible      *rod.ErrInvisibleShape
		notInteract    *rod.ErrNotInteractable
		noPointerEvent *rod.ErrNoPointerEvents
	)
	switch {
	case errors.As(err, &notFound):
		return fmt.Errorf("%s: %w", op, ErrElementNotFound)
	case errors.As(err, &covered), errors.As(err, &invisible), errors.As(err, &notInteract),
		errors.As(err, &noPointerEvent), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, miss)
	default:
		return &SessionError{Engine: EngineRod, Message: op, Cause: err}
	}
}

// Navigate implements Session.
func (s *RodSession) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx).Timeout(s.navTimeout)
	defer p.CancelTimeout()

	err := p.Navigate(url)
	if err == nil {
		err = p.WaitLoad()
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &SessionError{Engine: EngineRod, Message: "navigate to " + url, Cause: err}
	}
	return nil
}

// Find implements Session.
func (s *RodSession) Find(ctx context.Context, selector string) (Element, error) {
	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, classifyRod(ctx, ErrElementNotFound, "query "+selector, err)
	}
	if els.Empty() {
		return nil, fmt.Errorf("%s: %w", selector, ErrElementNotFound)
	}
	return &rodElement{el: els.First()}, nil
}

// FindAll implements Session.
func (s *RodSession) FindAll(ctx context.Context, selector string) ([]Element, error) {
	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, classifyRod(ctx, ErrElementNotFound, "query "+selector, err)
	}
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = &rodElement{el: el}
	}
	return out, nil
}

// WaitVisible implements Session.
func (s *RodSession) WaitVisible(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	p := s.page.Context(ctx).Timeout(timeout)
	el, err := p.Element(selector)
	if err == nil {
		err = el.WaitVisible()
	}
	p.CancelTimeout()
	if err != nil {
		return nil, classifyRod(ctx, ErrElementNotFound, "wait for "+selector, err)
	}
	return &rodElement{el: el.Context(s.page.GetContext())}, nil
}

// Close implements Session.
func (s *RodSession) Close() error {
	err := s.browser.Close()
	s.launcher.Kill()
	return err
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) bound(ctx context.Context) *rod.Element {
	return e.el.Context(ctx).Timeout(elementTimeout)
}

func (e *rodElement) Text(ctx context.Context) (string, error) {
	el := e.bound(ctx)
	defer el.CancelTimeout()
	t, err := el.Text()
	if err != nil {
		return "", classifyRod(ctx, ErrElementNotFound, "text", err)
	}
	return t, nil
}

func (e *rodElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	el := e.bound(ctx)
	defer el.CancelTimeout()
	v, err := el.Attribute(name)
	if err != nil {
		return "", false, classifyRod(ctx, ErrElementNotFound, "attribute "+name, err)
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e *rodElement) Click(ctx context.Context) error {
	el := e.bound(ctx)
	defer el.CancelTimeout()
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return classifyRod(ctx, ErrNotInteractable, "click", err)
	}
	return nil
}

func (e *rodElement) Find(ctx context.Context, selector string) (Element, error) {
	els, err := e.el.Context(ctx).Elements(selector)
	if err != nil {
		return nil, classifyRod(ctx, ErrElementNotFound, "query "+selector, err)
	}
	if els.Empty() {
		return nil, fmt.Errorf("%s: %w", selector, ErrElementNotFound)
	}
	return &rodElement{el: els.First()}, nil
}
