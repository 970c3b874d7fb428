package latexmeta

// ScanBraces extracts the content between balanced braces starting at pos,
// which must point at the opening "{". It returns the inner content, the
// index just past the matching "}", and whether a balanced group was found.
// On failure (pos not at a brace, or no matching close before end of text)
// it returns ("", pos, false) and never an error: malformed input is the
// caller's decision to skip.
func ScanBraces(text string, pos int) (string, int, bool) {
	return scanDelimited(text, pos, '{', '}')
}

// ScanBrackets is ScanBraces for "[" and "]". Content may span lines.
func ScanBrackets(text string, pos int) (string, int, bool) {
	return scanDelimited(text, pos, '[', ']')
}

// scanDelimited walks the text with an iterative depth counter, so deeply
// nested input cannot grow the call stack. A backslash removes the next
// character from depth accounting regardless of what it is.
func scanDelimited(text string, pos int, open, close byte) (string, int, bool) {
	if pos < 0 || pos >= len(text) || text[pos] != open {
		return "", pos, false
	}

	depth := 0
	for i := pos; i < len(text); i++ {
		switch text[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[pos+1 : i], i + 1, true
			}
		case '\\':
			i++ // skip escaped character
		}
	}

	// Unterminated: depth never returned to zero.
	return "", pos, false
}
