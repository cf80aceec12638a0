// Package formatting extracts structured values from free-form model output
// and parses human-readable sizes used in configuration.
package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrParseFailed is returned when no JSON object can be recovered from content.
var ErrParseFailed = errors.New("failed to parse response")

var fenceMarkers = []string{"```json", "```JSON", "```"}

// Extract returns the candidate JSON text from model output. Code fence
// markers are removed and the span from the first '{' to the last '}' is
// taken. When no such span exists the trimmed text is returned and ok is false.
func Extract(content string) (candidate string, ok bool) {
	cleaned := content
	for _, marker := range fenceMarkers {
		cleaned = strings.ReplaceAll(cleaned, marker, "")
	}
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return cleaned, false
	}

	return cleaned[start : end+1], true
}

// Parse recovers a JSON object from content and decodes it into T.
// It never panics; any failure is reported as ErrParseFailed.
func Parse[T any](content string) (T, error) {
	var result T

	candidate, _ := Extract(content)
	if candidate == "" {
		return result, fmt.Errorf("%w: empty content", ErrParseFailed)
	}

	if err := json.Unmarshal([]byte(candidate), &result); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrParseFailed, truncate(candidate, 120))
	}

	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
