package pdfutil

import "testing"

func TestMatchDOI(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain", "doi: 10.63744/aBcDeF123456 in text", "10.63744/aBcDeF123456"},
		{"trailing punctuation trimmed", "see 10.1234/abcd. next", "10.1234/abcd"},
		{"no doi", "no identifier here", ""},
		{"prefix without suffix", "10.1234/ trailing", ""},
		{"first valid wins", "10.1/x then 10.63744/real01234", "10.63744/real01234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchDOI(tt.text); got != tt.want {
				t.Errorf("matchDOI(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestValidDOI(t *testing.T) {
	tests := []struct {
		doi  string
		want bool
	}{
		{"10.63744/aBcDeF123456", true},
		{"10.1234/xy", true},
		{"10.1234/x", false},
		{"10.1/x", false},
		{"11.1234/abcd", false},
		{"10.1234abcd", false},
		{"10.123456/", false},
	}

	for _, tt := range tests {
		if got := validDOI(tt.doi); got != tt.want {
			t.Errorf("validDOI(%q) = %v, want %v", tt.doi, got, tt.want)
		}
	}
}

func TestNumPages_MissingFile(t *testing.T) {
	if _, err := NumPages("does-not-exist.pdf"); err == nil {
		t.Fatal("NumPages() error = nil, want open error")
	}
}
