package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	type payload struct {
		Company string `json:"company_name"`
		Score   int    `json:"fit_score"`
	}

	tests := []struct {
		name     string
		response string
		want     payload
	}{
		{
			name:     "bare object",
			response: `{"company_name":"Acme","fit_score":8}`,
			want:     payload{Company: "Acme", Score: 8},
		},
		{
			name:     "fenced",
			response: "```json\n{\"company_name\":\"Acme\",\"fit_score\":8}\n```",
			want:     payload{Company: "Acme", Score: 8},
		},
		{
			name:     "prose around the object",
			response: "Here is the analysis you asked for:\n{\"company_name\":\"Acme\",\"fit_score\":8}\nLet me know if you need more.",
			want:     payload{Company: "Acme", Score: 8},
		},
		{
			name:     "null bytes inside",
			response: "{\"company_name\":\"Ac\x00me\",\"fit_score\":8}",
			want:     payload{Company: "Acme", Score: 8},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got payload
			require.NoError(t, ExtractJSON(tt.response, &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONErrors(t *testing.T) {
	var dst map[string]any
	assert.Error(t, ExtractJSON("the model refused to answer", &dst))
	assert.Error(t, ExtractJSON("{not valid json}", &dst))
	assert.Error(t, ExtractJSON("", &dst))
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "hello world", SanitizeText("hello\x00 world"))
	assert.Equal(t, "line1\nline2\ttabbed", SanitizeText("line1\nline2\ttabbed"))
	assert.Equal(t, "ab", SanitizeText("a\x01\x02\x1fb"))
}
