package latexmeta

import (
	"regexp"
	"strings"
)

// bracedArg matches a braced macro argument, tolerating exactly one level
// of nested braces. The bounded nesting is deliberate: it keeps simple
// macro extraction a single regexp instead of a balanced scan, and one
// level is all the supported metadata macros ever use.
const bracedArg = `\{([^{}]*(?:\{[^{}]*\}[^{}]*)*)\}`

var (
	authorPattern      = regexp.MustCompile(`\\author(?:\[([^\]]*)\])?\s*` + bracedArg)
	affiliationPattern = regexp.MustCompile(`\\affiliation\s*\{([^}]*)\}\s*` + bracedArg)
	commentedPattern   = regexp.MustCompile(`%\\(\w+)\s*` + bracedArg)
)

// DefaultMacroNames are the simple macros extracted when no explicit set is
// given: the title, keywords, and the publication fields.
var DefaultMacroNames = []string{
	"title",
	"keywords",
	"pubyear",
	"pubvolume",
	"pagestart",
	"pageend",
	"doi",
	"addbibresource",
}

// publicationFields are the simple macros copied into PublicationInfo.
var publicationFields = []string{
	"pubyear",
	"pubvolume",
	"pagestart",
	"pageend",
	"doi",
	"addbibresource",
}

// ExtractSimpleMacros finds every \name{...} occurrence for each of the
// given macro names (DefaultMacroNames when nil) and returns a map from
// name to trimmed content. Names with no occurrence are absent from the
// result; one occurrence yields a scalar-shaped MacroValue, repeats yield
// an ordered list in source order.
func ExtractSimpleMacros(text string, names []string) map[string]MacroValue {
	if names == nil {
		names = DefaultMacroNames
	}

	results := make(map[string]MacroValue)
	for _, name := range names {
		pattern := regexp.MustCompile(`\\` + regexp.QuoteMeta(name) + `\s*` + bracedArg)
		matches := pattern.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}

		value := make(MacroValue, len(matches))
		for i, m := range matches {
			value[i] = strings.TrimSpace(m[1])
		}
		results[name] = value
	}

	return results
}

// ExtractAuthors finds every \author macro and returns the author records
// in document order. The pattern is \author[tokens]{name}[key=value, flag]:
// the leading bracket carries comma-separated affiliation tokens, the name
// may contain one level of nested braces, and a bracket following the name
// (after optional whitespace) is parsed as an author metadata block.
func ExtractAuthors(text string) []Author {
	matches := authorPattern.FindAllStringSubmatchIndex(text, -1)

	var authors []Author
	for _, m := range matches {
		author := Author{
			Name:               strings.TrimSpace(slice(text, m, 2)),
			AffiliationNumbers: []string{},
			Metadata:           map[string]Value{},
		}

		if tokens := strings.TrimSpace(slice(text, m, 1)); tokens != "" {
			for _, num := range strings.Split(tokens, ",") {
				author.AffiliationNumbers = append(author.AffiliationNumbers, strings.TrimSpace(num))
			}
		}

		// An optional metadata block may follow the closing brace.
		pos := m[1]
		for pos < len(text) && isSpace(text[pos]) {
			pos++
		}
		if pos < len(text) && text[pos] == '[' {
			if content, _, ok := ScanBrackets(text, pos); ok && content != "" {
				author.Metadata = ParseKeyValues(content)
			}
		}

		authors = append(authors, author)
	}

	return authors
}

// ExtractAffiliations finds every \affiliation{number}{text} macro and
// returns the entries trimmed, in document order. The number is captured as
// a raw token so non-numeric labels pass through unchanged.
func ExtractAffiliations(text string) []Affiliation {
	matches := affiliationPattern.FindAllStringSubmatch(text, -1)

	var affiliations []Affiliation
	for _, m := range matches {
		affiliations = append(affiliations, Affiliation{
			Number: strings.TrimSpace(m[1]),
			Text:   strings.TrimSpace(m[2]),
		})
	}

	return affiliations
}

// ExtractCommentedMacros finds every %\name{content} occurrence (a macro
// invocation immediately after a comment marker) and returns name to
// trimmed content. Unlike the other extractors this keeps only the last
// occurrence of a repeated name.
func ExtractCommentedMacros(text string) map[string]string {
	commented := make(map[string]string)
	for _, m := range commentedPattern.FindAllStringSubmatch(text, -1) {
		commented[m[1]] = strings.TrimSpace(m[2])
	}
	return commented
}

// ExtractAll runs every extractor over the document and assembles the
// combined metadata record. This is the main entry point. The record is
// built fresh per call and never mutated afterwards.
func ExtractAll(text string) *Metadata {
	md := &Metadata{
		Authors:         []Author{},
		Affiliations:    []Affiliation{},
		PublicationInfo: make(map[string]MacroValue),
		CommentedMacros: make(map[string]string),
	}

	simple := ExtractSimpleMacros(text, nil)
	md.Title = simple["title"]
	md.Keywords = simple["keywords"]

	for _, field := range publicationFields {
		if v, ok := simple[field]; ok {
			md.PublicationInfo[field] = v
		}
	}

	if authors := ExtractAuthors(text); authors != nil {
		md.Authors = authors
	}
	if affiliations := ExtractAffiliations(text); affiliations != nil {
		md.Affiliations = affiliations
	}
	md.CommentedMacros = ExtractCommentedMacros(text)

	return md
}

// slice returns the capture group n of a FindAllStringSubmatchIndex match,
// or "" when the group did not participate.
func slice(text string, m []int, n int) string {
	if m[2*n] < 0 {
		return ""
	}
	return text[m[2*n]:m[2*n+1]]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}
