package config

import (
	"fmt"
	"slices"

	"github.com/jonathan/job-scraper/internal/types"
)

// Preset names.
const (
	PresetIsrael         = "il"
	PresetDataScientists = "dsus"
	PresetUK             = "uk"
	PresetAll            = "all"
)

var presets = map[string]types.SearchQuery{
	PresetIsrael: {
		Name: "jobs in Israel",
		URL:  "https://www.glassdoor.com/Job/israel-jobs-SRCH_IL.0,6_IN119.htm?fromAge=1&radius=25",
	},
	PresetDataScientists: {
		Name: "data scientists in the USA",
		URL:  "https://www.glassdoor.com/Job/us-data-scientist-jobs-SRCH_IL.0,2_IN1_KO3,17.htm?fromAge=1&radius=25",
	},
	PresetUK: {
		Name: "jobs in the UK",
		URL:  "https://www.glassdoor.com/Job/uk-jobs-SRCH_IL.0,2_IN2.htm?fromAge=1&radius=25",
	},
}

// PresetNames returns the predefined search names in run order.
func PresetNames() []string {
	return []string{PresetIsrael, PresetDataScientists, PresetUK}
}

// Preset returns the predefined search called name.
func Preset(name string) (types.SearchQuery, bool) {
	q, ok := presets[name]
	return q, ok
}

// SearchQueries expands the configured presets and appends the custom searches.
// With neither set, every preset runs. A positive LimitSearchPages caps each
// search that has no tighter cap of its own.
func (c *Config) SearchQueries() ([]types.SearchQuery, error) {
	names := c.Presets
	if len(names) == 0 && len(c.Searches) == 0 {
		names = []string{PresetAll}
	}

	var out []types.SearchQuery
	var picked []string
	for _, name := range names {
		expanded := []string{name}
		if name == PresetAll {
			expanded = PresetNames()
		}
		for _, n := range expanded {
			q, ok := Preset(n)
			if !ok {
				return nil, fmt.Errorf("unknown search preset %q (choose from il, dsus, uk, all)", n)
			}
			if slices.Contains(picked, n) {
				continue
			}
			picked = append(picked, n)
			out = append(out, q)
		}
	}
	out = append(out, c.Searches...)

	if c.LimitSearchPages > 0 {
		for i, q := range out {
			if q.PageCap == 0 || q.PageCap > c.LimitSearchPages {
				out[i] = q.WithPageCap(c.LimitSearchPages)
			}
		}
	}
	return out, nil
}
