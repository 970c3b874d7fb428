// Package latexmeta extracts bibliographic metadata from LaTeX sources.
//
// It recovers titles, authors, affiliations, keywords, publication fields,
// and commented-out directives by scanning the raw source text. Nested
// delimiters are handled with balanced scanning rather than a full parser;
// macros are never expanded and the document is never validated.
//
// All extraction functions are pure functions of their input text, so they
// may be called concurrently across distinct documents without locking.
package latexmeta

import (
	"encoding/json"
	"fmt"
)

// Metadata is the full record extracted from one document.
type Metadata struct {
	Title           MacroValue            `json:"title,omitempty"`
	Authors         []Author              `json:"authors"`
	Affiliations    []Affiliation         `json:"affiliations"`
	Keywords        MacroValue            `json:"keywords,omitempty"`
	PublicationInfo map[string]MacroValue `json:"publication_info"`
	CommentedMacros map[string]string     `json:"commented_macros"`
}

// Author is a single \author entry. AffiliationNumbers holds the raw tokens
// from the leading optional bracket; they are opaque strings, not guaranteed
// numeric. Metadata holds the trailing [key=value, flag] block.
type Author struct {
	Name               string           `json:"name"`
	AffiliationNumbers []string         `json:"affiliation_numbers"`
	Metadata           map[string]Value `json:"metadata"`
}

// Affiliation is a single \affiliation{number}{text} entry. Number is kept
// as a raw token so non-numeric labels survive; it is the join key used by
// JoinAuthorsAffiliations.
type Affiliation struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

// ResolvedAuthor is an author with affiliation numbers replaced by the
// affiliations they reference.
type ResolvedAuthor struct {
	Name         string           `json:"name"`
	Affiliations []Affiliation    `json:"affiliations"`
	Metadata     map[string]Value `json:"metadata"`
}

// Value is one entry from an optional-parameter block: either a string
// value ("orcid=0000-...") or a bare boolean flag ("corresponding").
type Value struct {
	Str  string
	Flag bool
}

// String returns the string form of a value; flags render as "true".
func (v Value) String() string {
	if v.Flag {
		return "true"
	}
	return v.Str
}

// MarshalJSON emits a JSON string for string values and true for flags.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Flag {
		return []byte("true"), nil
	}
	return json.Marshal(v.Str)
}

// UnmarshalJSON accepts either a JSON string or a boolean.
func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Value{Str: s}
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = Value{Flag: b}
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into Value", string(data))
}

// MacroValue holds the content of a simple macro. A macro occurring once
// yields a single-element value that serializes as a scalar; a macro
// occurring more than once yields an ordered list in source order. Callers
// must handle both shapes.
type MacroValue []string

// Scalar reports the value of a macro that occurred exactly once.
func (m MacroValue) Scalar() (string, bool) {
	if len(m) == 1 {
		return m[0], true
	}
	return "", false
}

// IsList reports whether the macro occurred more than once.
func (m MacroValue) IsList() bool { return len(m) > 1 }

// First returns the first occurrence, or "" when the macro is absent.
func (m MacroValue) First() string {
	if len(m) == 0 {
		return ""
	}
	return m[0]
}

// MarshalJSON emits a scalar for single occurrences and an array otherwise.
func (m MacroValue) MarshalJSON() ([]byte, error) {
	if len(m) == 1 {
		return json.Marshal(m[0])
	}
	return json.Marshal([]string(m))
}

// UnmarshalJSON accepts either a scalar string or an array of strings.
func (m *MacroValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = MacroValue{s}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*m = MacroValue(list)
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into MacroValue", string(data))
}
