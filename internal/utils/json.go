// Package utils holds small cross-cutting helpers (JSON extraction, input
// sanitization) shared by the enrichment engine, orchestrator, and
// coordinator.
package utils

import "encoding/json"

// ToJSON converts a value to a JSON string, returning "" on failure.
func ToJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// ExtractJSON returns the first balanced {...} substring of s, tolerating a
// language model that wraps its JSON object in prose (spec.md §4.6 "the
// engine extracts the first {…} substring if the model returned surrounding
// prose"). ok is false if no balanced object is found.
func ExtractJSON(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range s {
		if start == -1 {
			if r == '{' {
				start = i
				depth = 1
			}
			continue
		}

		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// UnmarshalLoose extracts the first {...} substring of s and unmarshals it
// into out, per spec.md §4.6 / §8 "LM returning prose instead of JSON".
func UnmarshalLoose(s string, out interface{}) error {
	extracted, ok := ExtractJSON(s)
	if !ok {
		extracted = s
	}
	return json.Unmarshal([]byte(extracted), out)
}
