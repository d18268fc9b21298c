package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig_Valid(t *testing.T) {
	doc := map[string]any{
		"presets":            []any{"il", "uk"},
		"limit_search_pages": 5,
		"limit_job_posts":    100,
		"engine":             "rod",
		"searches": []any{
			map[string]any{"name": "berlin", "url": "https://www.glassdoor.com/Job/berlin-jobs.htm", "page_cap": 2},
		},
		"geocode": map[string]any{"url": "https://geo.example.com/search", "requests_per_sec": 2.5},
	}
	assert.NoError(t, ValidateConfig(doc))
}

func TestValidateConfig_EmptyDocument(t *testing.T) {
	assert.NoError(t, ValidateConfig(map[string]any{}))
}

func TestValidateConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		doc   map[string]any
		field string
	}{
		{"unknown preset", map[string]any{"presets": []any{"fr"}}, "presets.0"},
		{"page limit too high", map[string]any{"limit_search_pages": 31}, "limit_search_pages"},
		{"post limit zero", map[string]any{"limit_job_posts": 0}, "limit_job_posts"},
		{"unknown engine", map[string]any{"engine": "selenium"}, "engine"},
		{"search without url", map[string]any{"searches": []any{map[string]any{"name": "x"}}}, "searches.0"},
		{"unknown key", map[string]any{"api_key": "x"}, "(root)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.doc)
			require.Error(t, err)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			require.NotEmpty(t, ve.Errors)
			assert.Equal(t, tt.field, ve.Errors[0].Field)
		})
	}
}

func TestValidateJSONString(t *testing.T) {
	schema := `{"type":"object","required":["name"],"properties":{"name":{"type":"string"}}}`

	assert.NoError(t, ValidateJSONString(schema, `{"name":"x"}`))

	err := ValidateJSONString(schema, `{}`)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Error(), "name is required")
}

func TestValidateJSONString_BadSchema(t *testing.T) {
	err := ValidateJSONString(`{"type": 12}`, `{}`)
	var le *SchemaLoadError
	assert.ErrorAs(t, err, &le)
}

func TestValidationError_Error(t *testing.T) {
	ve := &ValidationError{Errors: []FieldError{{Field: "engine", Message: "bad"}, {Field: "(root)", Message: "worse"}}}
	assert.Equal(t, "validation failed:\n  1. engine: bad\n  2. (root): worse\n", ve.Error())
}
