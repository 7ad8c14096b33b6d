package actor

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var strict = bluemonday.StrictPolicy()

// Sanitize strips markup from post text and decodes entities, so the CSV
// carries plain text.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
