package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeText strips all HTML from user-provided text fields (descriptions,
// template names) and returns the trimmed plain text. bluemonday escapes
// entities on the way out, so unescape to keep "R&D" readable.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}
