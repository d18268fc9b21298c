package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-scraper/internal/types"
)

func urls(qs []types.SearchQuery) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.URL
	}
	return out
}

func TestSearchQueries_DefaultsToAllPresets(t *testing.T) {
	cfg := Config{}

	qs, err := cfg.SearchQueries()
	require.NoError(t, err)
	require.Len(t, qs, 3)

	il, _ := Preset(PresetIsrael)
	ds, _ := Preset(PresetDataScientists)
	uk, _ := Preset(PresetUK)
	assert.Equal(t, []string{il.URL, ds.URL, uk.URL}, urls(qs))
	for _, q := range qs {
		assert.Zero(t, q.PageCap)
	}
}

func TestSearchQueries_AllAndDuplicatesCollapse(t *testing.T) {
	cfg := Config{Presets: []string{"uk", "all", "uk"}}

	qs, err := cfg.SearchQueries()
	require.NoError(t, err)

	uk, _ := Preset(PresetUK)
	require.Len(t, qs, 3)
	assert.Equal(t, uk.URL, qs[0].URL)
}

func TestSearchQueries_CustomOnly(t *testing.T) {
	custom := types.SearchQuery{Name: "berlin", URL: "https://example.com/berlin"}
	cfg := Config{Searches: []types.SearchQuery{custom}}

	qs, err := cfg.SearchQueries()
	require.NoError(t, err)
	assert.Equal(t, []types.SearchQuery{custom}, qs)
}

func TestSearchQueries_PageLimit(t *testing.T) {
	cfg := Config{
		Presets:          []string{"il"},
		Searches:         []types.SearchQuery{{Name: "tight", URL: "https://example.com/a", PageCap: 2}, {Name: "loose", URL: "https://example.com/b", PageCap: 20}},
		LimitSearchPages: 5,
	}

	qs, err := cfg.SearchQueries()
	require.NoError(t, err)
	require.Len(t, qs, 3)
	assert.Equal(t, 5, qs[0].PageCap)
	assert.Equal(t, 2, qs[1].PageCap)
	assert.Equal(t, 5, qs[2].PageCap)
}

func TestSearchQueries_UnknownPreset(t *testing.T) {
	cfg := Config{Presets: []string{"fr"}}

	_, err := cfg.SearchQueries()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown search preset")
}

func TestPresetNames(t *testing.T) {
	for _, name := range PresetNames() {
		q, ok := Preset(name)
		require.True(t, ok, name)
		assert.NoError(t, q.Validate(), name)
	}
}
