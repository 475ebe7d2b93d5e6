// Package llmjson pulls structured payloads out of free-form model output.
package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoJSONObject is returned when the text holds no balanced {...} block.
var ErrNoJSONObject = errors.New("no JSON object found in response")

// ExtractObject returns the first balanced brace-delimited substring of text.
// Braces inside JSON string literals are ignored, so code fences, prose before
// the object and trailing commentary are all tolerated.
func ExtractObject(text string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if start < 0 {
			if c == '{' {
				start = i
				depth = 1
			}
			continue
		}

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	return "", ErrNoJSONObject
}

// Unmarshal extracts the first JSON object from text and decodes it into v.
func Unmarshal(text string, v interface{}) error {
	raw, err := ExtractObject(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("failed to decode JSON object: %w", err)
	}
	return nil
}
