package admincolumns

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	stripPolicy   = bluemonday.StrictPolicy()
	percentOctets = regexp.MustCompile(`%[a-fA-F0-9]{2}`)
)

// StripTags removes all markup from s and returns the decoded plain text, trimmed.
// The contents of script and style elements are dropped.
func StripTags(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}

// SanitizeText reduces s to a single line of plain text: markup is stripped,
// percent-encoded octets are removed and runs of whitespace collapse to one space.
func SanitizeText(s string) string {
	s = strings.ToValidUTF8(s, "")
	if strings.ContainsRune(s, '<') {
		s = StripTags(s)
	}
	s = percentOctets.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// SanitizeKey lowercases s and keeps only ASCII letters, digits, dashes and underscores.
func SanitizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SanitizeContentType returns the key form of a raw content type identifier.
func SanitizeContentType(raw string) ContentType {
	return ContentType(SanitizeKey(raw))
}
