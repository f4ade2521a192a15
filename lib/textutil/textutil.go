package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// reports whether any of the markers occurs in the text,
// case-insensitively. markers are matched verbatim otherwise, so
// whitespace inside a marker is significant (unlike MatchName).
func ContainsAnyFold(text string, markers []string) bool {
	text = strings.ToLower(text)
	for _, m := range markers {
		if strings.Contains(text, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// collapses runs of whitespace (including full-width spaces) down to
// a single regular space and trims the ends.
func CollapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.ReplaceAll(s, "　", " ")
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return strings.Trim(s, " \n\t")
}
