package browser

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Engine names accepted by New.
const (
	EngineChrome = "chromedp"
	EngineRod    = "rod"
	EngineStatic = "static"
)

// DefaultNavigateTimeout bounds a single page load.
const DefaultNavigateTimeout = 60 * time.Second

// DefaultUserAgent is sent by the static engine.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Options configures a browser session.
type Options struct {
	Engine          string
	ExecPath        string // browser binary; empty uses the engine's lookup
	Headless        bool
	NavigateTimeout time.Duration
	UserAgent       string
	RequestsPerSec  float64 // static engine only; 0 disables throttling
}

// DefaultOptions returns headless chromedp defaults.
func DefaultOptions() Options {
	return Options{
		Engine:          EngineChrome,
		Headless:        true,
		NavigateTimeout: DefaultNavigateTimeout,
		UserAgent:       DefaultUserAgent,
		RequestsPerSec:  1,
	}
}

// checkExecPath fails early with operator guidance when a configured browser
// binary does not exist.
func checkExecPath(engine, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return &SessionError{
			Engine:  engine,
			Message: fmt.Sprintf("browser executable not found at %s; install Chrome/Chromium or pass --browser-path", path),
			Cause:   err,
		}
	}
	return nil
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
