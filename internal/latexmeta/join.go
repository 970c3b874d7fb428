package latexmeta

// JoinAuthorsAffiliations resolves each author's affiliation numbers
// against the document's affiliations and returns the combined records in
// author order. Resolution is exact string match on the number token.
// Tokens with no matching affiliation are silently dropped, with no error
// and no placeholder: authoring mistakes must not break downstream
// rendering. Resolved affiliations keep the order of the author's tokens.
func JoinAuthorsAffiliations(md *Metadata) []ResolvedAuthor {
	lookup := make(map[string]string, len(md.Affiliations))
	for _, aff := range md.Affiliations {
		lookup[aff.Number] = aff.Text
	}

	resolved := make([]ResolvedAuthor, 0, len(md.Authors))
	for _, author := range md.Authors {
		ra := ResolvedAuthor{
			Name:         author.Name,
			Affiliations: []Affiliation{},
			Metadata:     author.Metadata,
		}
		for _, num := range author.AffiliationNumbers {
			if text, ok := lookup[num]; ok {
				ra.Affiliations = append(ra.Affiliations, Affiliation{Number: num, Text: text})
			}
		}
		resolved = append(resolved, ra)
	}

	return resolved
}
