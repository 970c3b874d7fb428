package latexmeta

import "strings"

// ParseKeyValues parses optional-parameter content such as
// "orcid=0000-0001-2345-6789, corresponding" into a map. Segments are split
// on commas at nesting depth 0 only, where a single shared counter tracks
// "(", "[", "{" against their closers. A segment containing "=" is split on
// the first "=" into a trimmed key and value; a bare segment becomes a
// boolean flag. Empty or whitespace-only content yields an empty map.
func ParseKeyValues(content string) map[string]Value {
	pairs := make(map[string]Value)
	if content == "" {
		return pairs
	}

	var parts []string
	var cur strings.Builder
	depth := 0

	for _, r := range content {
		if r == ',' && depth == 0 {
			parts = append(parts, strings.TrimSpace(cur.String()))
			cur.Reset()
			continue
		}
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
		cur.WriteRune(r)
	}
	if last := strings.TrimSpace(cur.String()); last != "" {
		parts = append(parts, last)
	}

	for _, part := range parts {
		if key, value, found := strings.Cut(part, "="); found {
			pairs[strings.TrimSpace(key)] = Value{Str: strings.TrimSpace(value)}
		} else if part != "" {
			pairs[part] = Value{Flag: true}
		}
	}

	return pairs
}
