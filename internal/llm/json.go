package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SanitizeText strips null bytes and control characters that break JSON
// encoding and SQLite storage; newlines and tabs survive.
func SanitizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == 0 {
			continue
		}
		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ExtractJSON pulls a JSON object out of a model response and decodes it
// into dst. Models wrap output in markdown fences or prose more often than
// not, so everything outside the outermost braces is discarded.
func ExtractJSON(response string, dst any) error {
	cleaned := strings.TrimSpace(response)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end < start {
		return fmt.Errorf("no JSON object in model response")
	}

	if err := json.Unmarshal([]byte(SanitizeText(cleaned[start:end+1])), dst); err != nil {
		return fmt.Errorf("failed to decode model response: %w", err)
	}
	return nil
}
