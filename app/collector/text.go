package collector

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// StripHTML removes every tag and returns unescaped text with collapsed
// whitespace.
func StripHTML(raw string) string {
	if raw == "" {
		return ""
	}
	text := html.UnescapeString(strictPolicy.Sanitize(raw))
	return strings.Join(strings.Fields(text), " ")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
