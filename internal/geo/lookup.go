// Package geo resolves freeform location strings to country names through
// a geocoding service, with fallback heuristics and memoization.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonathan/job-scraper/internal/fetch"
)

// Result is one geocoding match.
type Result struct {
	Name    string  `json:"name"` // display name, e.g. "Tel Aviv, Tel Aviv District, Israel"
	Country string  `json:"c"`    // country code
	Lat     float64 `json:"lat,omitempty"`
	Lon     float64 `json:"lon,omitempty"`
}

// Lookup queries a geocoding service. An empty result is not an error.
type Lookup interface {
	Lookup(ctx context.Context, location string) ([]Result, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, location string) ([]Result, error)

// Lookup implements Lookup.
func (f LookupFunc) Lookup(ctx context.Context, location string) ([]Result, error) {
	return f(ctx, location)
}

// NoLookup finds nothing. With it the resolver falls back to the location text.
var NoLookup Lookup = LookupFunc(func(context.Context, string) ([]Result, error) {
	return nil, nil
})

type lookupResponse struct {
	Results []Result `json:"Results"`
}

// HTTPLookupOptions configures an HTTPLookup.
type HTTPLookupOptions struct {
	Endpoint       string // e.g. https://geocoder.example.com/locations/search
	APIKey         string // sent as x-rapidapi-key when set
	APIHost        string // sent as x-rapidapi-host when set; defaults to the endpoint host
	RequestsPerSec float64
	Timeout        time.Duration
	Client         *http.Client
}

// HTTPLookup calls a JSON geocoding endpoint with a "location" query parameter.
type HTTPLookup struct {
	endpoint string
	fetch    *fetch.Options
	limiter  *rate.Limiter
}

// NewHTTPLookup validates opts and returns a rate-limited lookup.
func NewHTTPLookup(opts HTTPLookupOptions) (*HTTPLookup, error) {
	u, err := url.Parse(opts.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid geocode endpoint %q", opts.Endpoint)
	}

	headers := map[string]string{"Accept": "application/json"}
	if opts.APIKey != "" {
		headers["x-rapidapi-key"] = opts.APIKey
		host := opts.APIHost
		if host == "" {
			host = u.Host
		}
		headers["x-rapidapi-host"] = host
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = fetch.DefaultTimeout
	}

	limit := rate.Inf
	if opts.RequestsPerSec > 0 {
		limit = rate.Limit(opts.RequestsPerSec)
	}

	return &HTTPLookup{
		endpoint: opts.Endpoint,
		fetch: &fetch.Options{
			Timeout:   timeout,
			UserAgent: fetch.DefaultUserAgent,
			Headers:   headers,
			Client:    opts.Client,
		},
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// Lookup implements Lookup.
func (l *HTTPLookup) Lookup(ctx context.Context, location string) ([]Result, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u, _ := url.Parse(l.endpoint)
	q := u.Query()
	q.Set("location", location)
	u.RawQuery = q.Encode()

	res, err := fetch.URL(ctx, u.String(), l.fetch)
	if err != nil {
		return nil, err
	}

	var body lookupResponse
	if err := json.Unmarshal([]byte(res.HTML), &body); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}
	return body.Results, nil
}
