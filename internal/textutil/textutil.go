// Package textutil has the string transforms shared across the site
// generators: slugs for URLs and filenames, LaTeX-to-Unicode cleanup,
// and HTML stripping for feed descriptions.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripDiacritics decomposes with NFKD and drops combining marks, so
// é becomes e and full-width forms fold to ASCII.
var stripDiacritics = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

var (
	nonAlnumPattern = regexp.MustCompile(`[^0-9a-z]+`)
	htmlTagPattern  = regexp.MustCompile(`<[^>]+>`)
	spaceRunPattern = regexp.MustCompile(`\s+`)
)

// Slugify converts text to a lowercase, dash-separated slug containing only
// [a-z0-9]. Diacritics are removed, punctuation becomes separators, and the
// filler words "and", "the", "an", "a" are dropped when they appear between
// other words. Words are packed left to right without exceeding maxWidth;
// a word that would push past the limit is skipped whole rather than cut.
func Slugify(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}

	folded, _, err := transform.String(stripDiacritics, text)
	if err != nil {
		folded = text
	}

	lowered := nonAlnumPattern.ReplaceAllString(strings.ToLower(folded), " ")
	for _, filler := range []string{" and ", " the ", " an ", " a "} {
		lowered = strings.ReplaceAll(lowered, filler, " ")
	}

	var parts []string
	length := 0
	for _, w := range strings.Fields(lowered) {
		proposed := length + len(w)
		if len(parts) > 0 {
			proposed++
		}
		if proposed > maxWidth {
			continue
		}
		parts = append(parts, w)
		length = proposed
	}

	return strings.Join(parts, "-")
}

// LatexToUnicode converts LaTeX typography to Unicode. Only the triple
// dash needs handling in practice; titles carry no other markup by the
// time they reach the site generators.
func LatexToUnicode(text string) string {
	return strings.ReplaceAll(text, "---", "—")
}

// StripHTMLTags removes HTML tags and collapses whitespace runs into
// single spaces.
func StripHTMLTags(text string) string {
	clean := htmlTagPattern.ReplaceAllString(text, "")
	clean = spaceRunPattern.ReplaceAllString(clean, " ")
	return strings.TrimSpace(clean)
}
