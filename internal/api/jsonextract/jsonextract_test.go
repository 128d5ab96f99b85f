package jsonextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	QueryType string   `json:"query_type"`
	Keywords  []string `json:"keywords"`
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		strategies []Strategy
		wantName   string
		wantType   string
	}{
		{
			name:     "fenced json block",
			text:     "Here you go:\n```json\n{\"query_type\": \"nearby_search\", \"keywords\": [\"cafe\"]}\n```\nThanks",
			wantName: "fenced_block",
			wantType: "nearby_search",
		},
		{
			name:     "bare object with prose",
			text:     `Sure! {"query_type": "general", "keywords": []} hope it helps`,
			wantName: "bare_object",
			wantType: "general",
		},
		{
			name:     "brace scan when a second object follows",
			text:     `{"query_type": "specific_search", "keywords": ["phở"]} and also {"x": 1}`,
			wantName: "brace_scan",
			wantType: "specific_search",
		},
		{
			name:       "direct document",
			text:       `{"query_type": "itinerary_request"}`,
			strategies: DocumentStrategies,
			wantName:   "direct",
			wantType:   "itinerary_request",
		},
		{
			name:       "trailing comma repair",
			text:       `{"query_type": "general", "keywords": ["a", "b",],}`,
			strategies: DocumentStrategies,
			wantName:   "trailing_comma_repair",
			wantType:   "general",
		},
		{
			name:     "braces inside strings",
			text:     `note {"query_type": "gen{er}al", "keywords": ["}"]} trailing }`,
			wantName: "brace_scan",
			wantType: "gen{er}al",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got payload
			name, err := Decode(tt.text, &got, tt.strategies...)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantType, got.QueryType)
		})
	}
}

func TestExtractFailure(t *testing.T) {
	t.Run("plain prose", func(t *testing.T) {
		_, _, err := Extract("I could not understand the request.")
		assert.ErrorIs(t, err, ErrNoJSON)
	})

	t.Run("unbalanced object", func(t *testing.T) {
		_, _, err := Extract(`{"query_type": "general"`, DocumentStrategies...)
		assert.ErrorIs(t, err, ErrNoJSON)
	})

	t.Run("top-level array is not an object", func(t *testing.T) {
		_, _, err := Extract(`[1, 2, 3]`, DocumentStrategies...)
		assert.ErrorIs(t, err, ErrNoJSON)
	})
}
