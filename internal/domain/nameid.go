package domain

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const nameIDSep = "-i-"

var reSlugJunk = regexp.MustCompile(`[^a-z0-9]+`)

// NameID builds the product path segment "<slug>-i-<id>".
func NameID(name, id string) string {
	t := norm.NFD.String(strings.ReplaceAll(strings.ReplaceAll(name, "đ", "d"), "Đ", "D"))
	var b strings.Builder
	for _, r := range t {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	slug := strings.Trim(reSlugJunk.ReplaceAllString(strings.ToLower(b.String()), "-"), "-")
	if slug == "" {
		return id
	}
	return slug + nameIDSep + id
}

// IDFromNameID returns the id part of a NameID, or s itself when there is none.
func IDFromNameID(s string) string {
	if i := strings.LastIndex(s, nameIDSep); i >= 0 {
		return s[i+len(nameIDSep):]
	}
	return s
}
