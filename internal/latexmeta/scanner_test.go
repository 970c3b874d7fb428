package latexmeta

import (
	"strings"
	"testing"
)

func TestScanBraces(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		pos      int
		want     string
		wantNext int
		wantOK   bool
	}{
		{"simple", "{hello}", 0, "hello", 7, true},
		{"empty group", "{}", 0, "", 2, true},
		{"nested", "{a{b}c}", 0, "a{b}c", 7, true},
		{"double nested", "{a{b{c}d}e}", 0, "a{b{c}d}e", 11, true},
		{"offset start", "xx{y}zz", 2, "y", 5, true},
		{"trailing text ignored", "{a}{b}", 0, "a", 3, true},
		{"multiline content", "{line one\nline two}", 0, "line one\nline two", 19, true},
		{"escaped close brace", `{a\}b}`, 0, `a\}b`, 6, true},
		{"escaped open brace", `{a\{b}`, 0, `a\{b`, 6, true},
		{"escaped backslash content", `{a\\}`, 0, `a\\`, 5, true},
		{"not at open delimiter", "abc", 0, "", 0, false},
		{"close delimiter at pos", "}x{", 0, "", 0, false},
		{"unterminated", "{hello", 0, "", 0, false},
		{"unterminated nested", "{a{b}", 0, "", 0, false},
		{"pos past end", "{a}", 5, "", 5, false},
		{"bracket is not a brace", "[x]", 0, "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, next, ok := ScanBraces(tt.text, tt.pos)
			if got != tt.want || next != tt.wantNext || ok != tt.wantOK {
				t.Errorf("ScanBraces(%q, %d) = (%q, %d, %v), want (%q, %d, %v)",
					tt.text, tt.pos, got, next, ok, tt.want, tt.wantNext, tt.wantOK)
			}
		})
	}
}

func TestScanBrackets(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		pos      int
		want     string
		wantNext int
		wantOK   bool
	}{
		{"simple", "[1,2]", 0, "1,2", 5, true},
		{"nested", "[a[b]c]", 0, "a[b]c", 7, true},
		{"multiline", "[orcid=1,\nemail=x]", 0, "orcid=1,\nemail=x", 18, true},
		{"escaped close", `[a\]b]`, 0, `a\]b`, 6, true},
		{"unterminated", "[open", 0, "", 0, false},
		{"brace is not a bracket", "{x}", 0, "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, next, ok := ScanBrackets(tt.text, tt.pos)
			if got != tt.want || next != tt.wantNext || ok != tt.wantOK {
				t.Errorf("ScanBrackets(%q, %d) = (%q, %d, %v), want (%q, %d, %v)",
					tt.text, tt.pos, got, next, ok, tt.want, tt.wantNext, tt.wantOK)
			}
		})
	}
}

func TestScanBraces_DeepNesting(t *testing.T) {
	// Depth-n groups must round-trip for large n; the scanner counts depth
	// iteratively so this cannot overflow the call stack.
	const depth = 50
	inner := strings.Repeat("{", depth-1) + "x" + strings.Repeat("}", depth-1)
	text := "{" + inner + "}"

	got, next, ok := ScanBraces(text, 0)
	if !ok {
		t.Fatalf("ScanBraces() failed on depth-%d input", depth)
	}
	if got != inner {
		t.Errorf("ScanBraces() = %q, want %q", got, inner)
	}
	if next != len(text) {
		t.Errorf("ScanBraces() next = %d, want %d", next, len(text))
	}
}

func TestScanBraces_EscapeDoesNotCount(t *testing.T) {
	// A backslash before a delimiter must leave the depth untouched: the
	// escaped close brace here would otherwise terminate the group early.
	text := `{before \} after}`
	got, _, ok := ScanBraces(text, 0)
	if !ok {
		t.Fatalf("ScanBraces() failed on escaped delimiter input")
	}
	if want := `before \} after`; got != want {
		t.Errorf("ScanBraces() = %q, want %q", got, want)
	}
}

func TestScanBraces_TrailingBackslash(t *testing.T) {
	// A backslash as the final character must not read past the end.
	if _, next, ok := ScanBraces(`{abc\`, 0); ok || next != 0 {
		t.Errorf("ScanBraces() = (_, %d, %v), want (_, 0, false)", next, ok)
	}
}
