package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy  = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

// SanitizeRich keeps user generated markup such as links and emphasis and drops scripts and handlers.
func SanitizeRich(input string) string {
	return richPolicy.Sanitize(input)
}

// SanitizePlain strips every tag. Used for titles and names.
func SanitizePlain(input string) string {
	return strings.TrimSpace(plainPolicy.Sanitize(input))
}
