package legal

import (
	"encoding/json"
	"fmt"
	"strings"

	errorskg "github.com/sweetpotato0/nyaya/errors"
)

// decodeJSON tries to unmarshal the raw model output into T after stripping fences
// and any prose around the outermost JSON value.
func decodeJSON[T any](raw string) (*T, error) {
	clean := sanitizeJSON(raw)
	if clean == "" {
		return nil, fmt.Errorf("decode JSON: %w", errorskg.ErrEmptyGeneration)
	}
	var out T
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return nil, fmt.Errorf("decode JSON: %w: %v", errorskg.ErrInvalidOutput, err)
	}
	return &out, nil
}

func sanitizeJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = trimmed[3:]
		trimmed = strings.TrimPrefix(trimmed, "json")
		trimmed = strings.TrimPrefix(trimmed, "JSON")
		if idx := strings.Index(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
	}
	trimmed = strings.TrimSpace(trimmed)
	if trimmed == "" {
		return ""
	}
	open := strings.IndexAny(trimmed, "[{")
	if open < 0 {
		return trimmed
	}
	closer := byte('}')
	if trimmed[open] == '[' {
		closer = ']'
	}
	if end := strings.LastIndexByte(trimmed, closer); end > open {
		return trimmed[open : end+1]
	}
	return trimmed[open:]
}

// clip returns at most limit runes of s.
func clip(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

func trimForLog(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 || len([]rune(text)) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "..."
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
