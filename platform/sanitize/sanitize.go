// Package sanitize cleans free text received from upstream systems before it
// is used as a chart label or activity feed line.
package sanitize

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes tags, decodes entities and removes tags again so that
// entity-encoded markup does not survive.
func StripHTML(s string) string {
	out := htmlTag.ReplaceAllString(s, "")
	out = html.UnescapeString(out)
	out = htmlTag.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// Text strips markup, drops control characters and collapses whitespace runs
// to a single space.
func Text(s string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, StripHTML(s))
	return strings.Join(strings.Fields(stripped), " ")
}
