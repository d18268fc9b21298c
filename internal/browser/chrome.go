package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// elementTimeout bounds a single element read or click.
const elementTimeout = 10 * time.Second

// ChromeSession drives a Chrome tab through the DevTools protocol.
type ChromeSession struct {
	ctx         context.Context // tab context returned by chromedp.NewContext
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	navTimeout  time.Duration
}

// NewChromeSession launches Chrome/Chromium and opens one tab.
// Requires Chrome/Chromium to be installed on the system or ExecPath to point at it.
func NewChromeSession(ctx context.Context, opts Options) (*ChromeSession, error) {
	if err := checkExecPath(EngineChrome, opts.ExecPath); err != nil {
		return nil, err
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(opts.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	// The allocator outlives the caller's setup context; Close tears it down.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// Run with no actions starts the browser so a missing binary fails here.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, &SessionError{
			Engine:  EngineChrome,
			Message: "failed to start browser; install Chrome/Chromium or pass --browser-path",
			Cause:   err,
		}
	}

	return &ChromeSession{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		navTimeout:  opts.NavigateTimeout,
	}, nil
}

// opCtx derives a bounded context from the tab that also ends when the
// caller's ctx does.
func (s *ChromeSession) opCtx(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	c, cancel := context.WithTimeout(s.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return c, func() {
		stop()
		cancel()
	}
}

// Navigate implements Session.
func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, cancel := s.opCtx(ctx, s.navTimeout)
	defer cancel()

	if err := chromedp.Run(c, chromedp.Navigate(url), chromedp.WaitReady("body")); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &SessionError{Engine: EngineChrome, Message: "navigate to " + url, Cause: err}
	}
	return nil
}

func (s *ChromeSession) nodes(ctx context.Context, selector string, from *cdp.Node) ([]*cdp.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, cancel := s.opCtx(ctx, elementTimeout)
	defer cancel()

	var nodes []*cdp.Node
	queryOpts := []chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}
	if from != nil {
		queryOpts = append(queryOpts, chromedp.FromNode(from))
	}
	if err := chromedp.Run(c, chromedp.Nodes(selector, &nodes, queryOpts...)); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &SessionError{Engine: EngineChrome, Message: "query " + selector, Cause: err}
	}
	return nodes, nil
}

// Find implements Session.
func (s *ChromeSession) Find(ctx context.Context, selector string) (Element, error) {
	nodes, err := s.nodes(ctx, selector, nil)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s: %w", selector, ErrElementNotFound)
	}
	return &chromeElement{s: s, node: nodes[0]}, nil
}

// FindAll implements Session.
func (s *ChromeSession) FindAll(ctx context.Context, selector string) ([]Element, error) {
	nodes, err := s.nodes(ctx, selector, nil)
	if err != nil {
		return nil, err
	}
	els := make([]Element, len(nodes))
	for i, n := range nodes {
		els[i] = &chromeElement{s: s, node: n}
	}
	return els, nil
}

// WaitVisible implements Session.
func (s *ChromeSession) WaitVisible(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	c, cancel := s.opCtx(ctx, timeout)
	defer cancel()

	var nodes []*cdp.Node
	err := chromedp.Run(c,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Nodes(selector, &nodes, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s not visible after %s: %w", selector, timeout, ErrElementNotFound)
		}
		return nil, &SessionError{Engine: EngineChrome, Message: "wait for " + selector, Cause: err}
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s: %w", selector, ErrElementNotFound)
	}
	return &chromeElement{s: s, node: nodes[0]}, nil
}

// Close implements Session.
func (s *ChromeSession) Close() error {
	s.cancelTab()
	s.cancelAlloc()
	return nil
}

type chromeElement struct {
	s    *ChromeSession
	node *cdp.Node
}

func (e *chromeElement) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

// run executes action against this node, mapping a timeout to miss.
func (e *chromeElement) run(ctx context.Context, miss error, action chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, cancel := e.s.opCtx(ctx, elementTimeout)
	defer cancel()

	if err := chromedp.Run(c, action); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return miss
		}
		return &SessionError{Engine: EngineChrome, Message: "element action", Cause: err}
	}
	return nil
}

// Text returns the rendered innerText of the element.
func (e *chromeElement) Text(ctx context.Context) (string, error) {
	var text string
	err := e.run(ctx, ErrElementNotFound,
		chromedp.JavascriptAttribute(e.ids(), "innerText", &text, chromedp.ByNodeID))
	return text, err
}

func (e *chromeElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := e.run(ctx, ErrElementNotFound,
		chromedp.AttributeValue(e.ids(), name, &value, &ok, chromedp.ByNodeID))
	return value, ok, err
}

func (e *chromeElement) Click(ctx context.Context) error {
	return e.run(ctx, ErrNotInteractable, chromedp.Click(e.ids(), chromedp.ByNodeID))
}

func (e *chromeElement) Find(ctx context.Context, selector string) (Element, error) {
	nodes, err := e.s.nodes(ctx, selector, e.node)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s: %w", selector, ErrElementNotFound)
	}
	return &chromeElement{s: e.s, node: nodes[0]}, nil
}
