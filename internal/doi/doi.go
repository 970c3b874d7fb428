// Package doi generates and validates anthology DOIs.
package doi

import (
	"math/rand"
	"regexp"
	"strings"
)

const (
	// Prefix is the registered DOI prefix for the anthology.
	Prefix = "10.63744"

	// SuffixLength is the length of the random suffix of a generated DOI.
	SuffixLength = 12
)

// letters excludes O and l to avoid confusion with 0 and 1.
const (
	letters = "ABCDEFGHIJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
	digits  = "0123456789"
)

var fillerPattern = regexp.MustCompile(`^[0/@]+$`)

// IsPlaceholder reports whether a DOI is a placeholder that still needs to
// be replaced with a real one: an empty or whitespace-only string, a known
// placeholder value, or a string made up only of zeros, slashes, and @ signs.
func IsPlaceholder(doi string) bool {
	s := strings.TrimSpace(doi)
	if s == "" {
		return true
	}

	switch s {
	case "00000/00000", "0", "00000", "XXXXX":
		return true
	}

	return fillerPattern.MatchString(s)
}

// Generate returns a new DOI under Prefix with a random suffix of
// SuffixLength characters. The suffix starts with a letter and continues
// with letters and digits.
func Generate() string {
	return GenerateWith(Prefix, SuffixLength)
}

// GenerateWith returns a new DOI in prefix/suffix form with a random suffix
// of the given length.
func GenerateWith(prefix string, suffixLength int) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('/')
	b.WriteByte(letters[rand.Intn(len(letters))])

	const alphanumeric = letters + digits
	for i := 1; i < suffixLength; i++ {
		b.WriteByte(alphanumeric[rand.Intn(len(alphanumeric))])
	}

	return b.String()
}
