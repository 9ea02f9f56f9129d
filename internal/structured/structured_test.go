package structured

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidObjects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"single field", `{"name": "Ekene"}`},
		{"empty object", `{}`},
		{"nested values", `{"age": 8, "tags": ["a", "b"], "meta": {"ok": true, "none": null}}`},
		{"surrounding whitespace", "\n  {\"city\": \"Lagos\"}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			require.NoError(t, err)

			var want map[string]any
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &want))
			assert.Equal(t, want, got)
			assert.NotNil(t, got)
		})
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"plain text", "NOT JSON"},
		{"empty", ""},
		{"null", "null"},
		{"array", `[{"a": 1}]`},
		{"scalar", `42`},
		{"string", `"text"`},
		{"trailing content", `{"a": 1} extra`},
		{"two objects", `{"a": 1}{"b": 2}`},
		{"truncated", `{"a": `},
		{"fenced", "```json\n{\"a\": 1}\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			assert.ErrorIs(t, err, ErrJSONParse)
			assert.Nil(t, got)
		})
	}
}

func TestParseFenced(t *testing.T) {
	got, err := ParseFenced("```json\n{\"name\": \"Ekene\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Ekene"}, got)

	got, err = ParseFenced(`{"name": "Ekene"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Ekene"}, got)

	_, err = ParseFenced("```\nNOT JSON\n```")
	assert.ErrorIs(t, err, ErrJSONParse)
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, "plain", StripFence("plain"))
	assert.Equal(t, "```", StripFence("```"))
	assert.Equal(t, `{"a":1}`, StripFence("```\n{\"a\":1}\n```"))
}
