// Package types provides type definitions for structured data used throughout the job-scraper system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "github.com/go-playground/validator/v10"

// SearchQuery is a starting search-results URL plus an optional cap on the
// number of result pages to walk. A zero PageCap means no cap.
type SearchQuery struct {
	Name    string `json:"name" yaml:"name"`
	URL     string `json:"url" yaml:"url" validate:"required,url"`
	PageCap int    `json:"page_cap,omitempty" yaml:"page_cap,omitempty" validate:"gte=0"`
}

// WithPageCap returns a copy of q with the page cap replaced.
func (q SearchQuery) WithPageCap(n int) SearchQuery {
	q.PageCap = n
	return q
}

// Validate validates the SearchQuery using the validator.
func (q SearchQuery) Validate() error {
	validate := validator.New()
	return validate.Struct(q)
}

// Label returns the query name, falling back to its URL.
func (q SearchQuery) Label() string {
	if q.Name != "" {
		return q.Name
	}
	return q.URL
}

// JobLink is the URL of a single job posting.
type JobLink string

// String implements fmt.Stringer.
func (l JobLink) String() string {
	return string(l)
}

// DedupeLinks removes repeated links, keeping the first occurrence of each.
func DedupeLinks(links []JobLink) []JobLink {
	seen := make(map[JobLink]bool, len(links))
	out := make([]JobLink, 0, len(links))
	for _, l := range links {
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
