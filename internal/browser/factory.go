package browser

import (
	"context"
	"fmt"
)

// New starts a session for the engine named in opts. A failure here is fatal
// for a crawl: nothing can be scraped without a working session.
func New(ctx context.Context, opts Options) (Session, error) {
	if opts.NavigateTimeout <= 0 {
		opts.NavigateTimeout = DefaultNavigateTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	switch opts.Engine {
	case EngineChrome, "":
		return NewChromeSession(ctx, opts)
	case EngineRod:
		return NewRodSession(ctx, opts)
	case EngineStatic:
		return NewStaticSession(opts), nil
	default:
		return nil, fmt.Errorf("unknown browser engine %q (want %s, %s or %s)", opts.Engine, EngineChrome, EngineRod, EngineStatic)
	}
}
