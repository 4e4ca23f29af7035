package utils

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// xssPatterns catches the common script-injection shapes that can arrive in
// a user message or an upstream article snippet before either is echoed
// back in a response or written to a log.
var xssPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script[^>]*>.*?</script>`),
	regexp.MustCompile(`(?i)<iframe[^>]*>.*?</iframe>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on(load|error|click|mouseover|focus|blur)\s*=`),
}

// SanitizeHTML escapes input if it contains a recognized XSS pattern,
// otherwise returns it unchanged.
func SanitizeHTML(input string) string {
	if input == "" {
		return ""
	}
	if len(input) > 10000 {
		input = input[:10000]
	}
	for _, pattern := range xssPatterns {
		if pattern.MatchString(input) {
			return html.EscapeString(input)
		}
	}
	return input
}

// ValidateInput rejects a user message containing control characters,
// invalid UTF-8, or an XSS pattern, and otherwise returns it trimmed. Used
// by the agent orchestrator (spec.md §4.9) before the message reaches a
// language-model prompt.
func ValidateInput(input string) (string, bool) {
	if input == "" {
		return "", true
	}
	for _, r := range input {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return "", false
		}
	}
	if !utf8.ValidString(input) {
		return "", false
	}
	for _, pattern := range xssPatterns {
		if pattern.MatchString(input) {
			return "", false
		}
	}
	return strings.TrimSpace(input), true
}

// SanitizeForLog strips newlines, tabs, and other control characters from
// input so a hostile user message or article title cannot forge adjacent
// log entries (log injection).
func SanitizeForLog(input string) string {
	if input == "" {
		return ""
	}
	replaced := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(input)
	var b strings.Builder
	for _, r := range replaced {
		if r >= 32 || r == ' ' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
