package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Posts and comments are plain text; any markup is stripped.
var sanitizer = bluemonday.StrictPolicy()

// SanitizeText strips HTML from user input and trims surrounding whitespace.
func SanitizeText(input string) string {
	return strings.TrimSpace(sanitizer.Sanitize(input))
}
