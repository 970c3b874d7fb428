// Package bibtex generates citation files for published articles.
package bibtex

import (
	"fmt"
	"os"
	"strings"
)

// Article holds the fields of an @article entry. Authors and Editors are
// joined with " and " per BibTeX convention; empty fields are omitted from
// the output.
type Article struct {
	Title   string
	Volume  string
	Authors []string
	Year    string
	Journal string
	Editors []string
	Pages   string
	DOI     string
}

// CitationKey returns the entry's citation key: the DOI with every slash
// replaced by @, so the key stays a single token inside \cite commands.
func (a Article) CitationKey() string {
	return strings.ReplaceAll(a.DOI, "/", "@")
}

// Format renders the entry as a BibTeX @article record.
func (a Article) Format() string {
	fields := []struct {
		key string
		val string
	}{
		{"title", EscapeLatex(a.Title)},
		{"author", EscapeLatex(joinPeople(a.Authors))},
		{"year", a.Year},
		{"journal", EscapeLatex(a.Journal)},
		{"volume", a.Volume},
		{"pages", EscapeLatex(a.Pages)},
		{"editor", EscapeLatex(joinPeople(a.Editors))},
		{"doi", a.DOI},
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("@article{%s,", a.CitationKey()))
	for _, f := range fields {
		if f.val != "" {
			lines = append(lines, fmt.Sprintf("  %s = {%s},", f.key, f.val))
		}
	}

	// The last field line carries no trailing comma.
	if n := len(lines); n > 1 {
		lines[n-1] = strings.TrimSuffix(lines[n-1], ",")
	}
	lines = append(lines, "}")

	return strings.Join(lines, "\n")
}

// WriteFile renders the entry and writes it to path, returning the
// rendered record.
func (a Article) WriteFile(path string) (string, error) {
	entry := a.Format()
	if err := os.WriteFile(path, []byte(entry), 0o644); err != nil {
		return "", fmt.Errorf("writing bibtex file: %w", err)
	}
	return entry, nil
}

// joinPeople joins names with " and ", dropping blank entries.
func joinPeople(people []string) string {
	var kept []string
	for _, p := range people {
		if s := strings.TrimSpace(p); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, " and ")
}

// EscapeLatex escapes special LaTeX characters so titles and names survive
// a round trip through BibTeX.
func EscapeLatex(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
