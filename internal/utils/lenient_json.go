package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrEmptyBody is returned when there is nothing to decode
var ErrEmptyBody = errors.New("empty body")

var (
	fencedJSON    = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	controlChars  = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
)

// DecodeLenient decodes JSON written by a remote assistant or proxy that
// may not return a clean body. It tries, in order:
//   - the raw body
//   - the contents of a markdown code fence
//   - the first balanced {...} object in the text
//   - the body with trailing commas and control characters removed
func DecodeLenient(body []byte, target any) error {
	input := strings.TrimSpace(strings.TrimPrefix(string(body), "\ufeff"))
	if input == "" {
		return ErrEmptyBody
	}

	if err := json.Unmarshal([]byte(input), target); err == nil {
		return nil
	}

	candidates := []string{}
	if m := fencedJSON.FindStringSubmatch(input); len(m) > 1 {
		candidates = append(candidates, m[1])
	}
	if start := strings.IndexByte(input, '{'); start >= 0 {
		if obj := balancedObject(input[start:]); obj != "" {
			candidates = append(candidates, obj)
		}
	}
	candidates = append(candidates, cleanJSON(input))

	for _, c := range candidates {
		if err := json.Unmarshal([]byte(c), target); err == nil {
			return nil
		}
		if err := json.Unmarshal([]byte(cleanJSON(c)), target); err == nil {
			return nil
		}
	}

	return fmt.Errorf("failed to decode JSON from body: %s", truncate(input, 100))
}

// balancedObject returns the prefix of input holding one complete object,
// skipping braces inside strings. input must start with '{'.
func balancedObject(input string) string {
	depth := 0
	inString := false
	escape := false

	for i := 0; i < len(input); i++ {
		ch := input[i]
		switch {
		case escape:
			escape = false
		case ch == '\\' && inString:
			escape = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return input[:i+1]
			}
		}
	}
	return ""
}

func cleanJSON(input string) string {
	s := trailingComma.ReplaceAllString(input, "$1")
	return controlChars.ReplaceAllString(s, "")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// IsJSONObject reports whether body looks like a JSON object after trimming.
func IsJSONObject(body []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(body), []byte("{"))
}
