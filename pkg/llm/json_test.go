package llm

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestDecodeJSON(t *testing.T) {
	type plan struct {
		Queries    []string `json:"queries"`
		IsComplete bool     `json:"is_complete"`
	}

	tests := []struct {
		name string
		text string
	}{
		{"bare", `{"queries":["a"],"is_complete":false}`},
		{"fenced", "```json\n{\"queries\":[\"a\"],\"is_complete\":false}\n```"},
		{"plain fence", "```\n{\"queries\":[\"a\"]}\n```\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p plan
			require.NoError(t, DecodeJSON(tt.text, &p))
			assert.Equal(t, []string{"a"}, p.Queries)
		})
	}
}

func TestDecodeJSONErrors(t *testing.T) {
	var v map[string]any
	assert.ErrorIs(t, DecodeJSON("  ", &v), ErrEmptyResponse)
	assert.ErrorIs(t, DecodeJSON("```json\n```", &v), ErrEmptyResponse)
	assert.Error(t, DecodeJSON("not json", &v))
}

func TestAPIStatus(t *testing.T) {
	err := fmt.Errorf("gemini generate failed: %w", genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"})
	code, ok := APIStatus(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, code)

	_, ok = APIStatus(errors.New("boom"))
	assert.False(t, ok)
}

func TestJSONConfig(t *testing.T) {
	cfg := JSONConfig("be terse", &genai.Schema{Type: genai.TypeObject})
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, "be terse", cfg.SystemInstruction.Parts[0].Text)

	assert.Nil(t, JSONConfig("", nil).SystemInstruction)
}
