package parse

import (
	"encoding/json"
	"errors"
)

// JSONObject decodes the first well-formed JSON object embedded in raw.
// Prose around the object is ignored. Each '{' is tried in turn until one
// opens a balanced object that decodes.
func JSONObject(raw string) (map[string]any, error) {
	var lastErr error
	for start := 0; start < len(raw); start++ {
		if raw[start] != '{' {
			continue
		}
		end := matchBrace(raw, start)
		if end < 0 {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(raw[start:end+1]), &obj); err != nil {
			lastErr = err
			continue
		}
		return obj, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no JSON object")
	}
	return nil, &MalformedOutputError{Raw: raw, Err: lastErr}
}

// matchBrace returns the index of the '}' closing the '{' at start, skipping
// braces inside quoted strings, or -1.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
