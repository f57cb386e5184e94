package verify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fairyhunter13/cv-ranking-engine/internal/domain"
)

// ExtractJSONObject pulls the first top-level {...} block out of a model
// response that may be wrapped in prose or markdown fences, and verifies it
// parses. Malformed content yields ErrAnalysis.
func ExtractJSONObject(response string) (string, error) {
	response = stripMarkdownFences(response)

	start := strings.Index(response, "{")
	if start == -1 {
		return "", fmt.Errorf("op=verify.ExtractJSONObject: %w: no JSON object in response", domain.ErrAnalysis)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		c := response[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				candidate := response[start : i+1]
				if !json.Valid([]byte(candidate)) {
					return "", fmt.Errorf("op=verify.ExtractJSONObject: %w: invalid JSON object", domain.ErrAnalysis)
				}
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("op=verify.ExtractJSONObject: %w: unterminated JSON object", domain.ErrAnalysis)
}

// ParseRaw extracts and decodes the model response into a RawExtraction.
func ParseRaw(response string) (RawExtraction, error) {
	obj, err := ExtractJSONObject(response)
	if err != nil {
		return RawExtraction{}, err
	}
	var raw RawExtraction
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return RawExtraction{}, fmt.Errorf("op=verify.ParseRaw: %w: %v", domain.ErrAnalysis, err)
	}
	return raw, nil
}

func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
