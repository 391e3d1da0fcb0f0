package domain

import (
	"regexp"
	"strings"
)

var (
	extensionPattern  = regexp.MustCompile(`\.(?:[A-Za-z][A-Za-z0-9]{0,4}|[0-9][A-Za-z][A-Za-z0-9]{0,3})$`)
	annotationPattern = regexp.MustCompile(`\[.*?\]|\(.*?\)|\{.*?\}`)
	yearPattern       = regexp.MustCompile(`^[\[({]\s*((?:19|20)\d{2})\s*[\])}]$`)
	nonWordPattern    = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s-]`)
	spacePattern      = regexp.MustCompile(`\s+`)
)

// SanitizeTitle turns a raw media title into a clean file base name.
// The extension and bracketed annotations such as [1080p] are dropped, a
// group holding only a release year keeps the year, punctuation becomes
// spaces and whitespace is collapsed.
func SanitizeTitle(raw string) string {
	name := extensionPattern.ReplaceAllString(strings.TrimSpace(raw), "")

	name = annotationPattern.ReplaceAllStringFunc(name, func(group string) string {
		if m := yearPattern.FindStringSubmatch(group); m != nil {
			return " " + m[1] + " "
		}
		return " "
	})

	name = nonWordPattern.ReplaceAllString(name, " ")
	name = spacePattern.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
