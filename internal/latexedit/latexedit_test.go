package latexedit

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestSetMacroValue(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		command string
		value   string
		want    string
		wantErr bool
	}{
		{
			name:    "simple replacement",
			text:    `\title{Old}`,
			command: "title",
			value:   "New",
			want:    `\title{New}`,
		},
		{
			name:    "only first occurrence replaced",
			text:    `\doi{a} and \doi{b}`,
			command: "doi",
			value:   "c",
			want:    `\doi{c} and \doi{b}`,
		},
		{
			name:    "surrounding text preserved",
			text:    "pre \\pubyear{2024} post",
			command: "pubyear",
			value:   "2026",
			want:    "pre \\pubyear{2026} post",
		},
		{
			name:    "command absent",
			text:    `\title{Old}`,
			command: "doi",
			value:   "x",
			wantErr: true,
		},
		{
			name:    "empty braces do not match",
			text:    `\doi{}`,
			command: "doi",
			value:   "x",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SetMacroValue(tt.text, tt.command, tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("SetMacroValue() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("SetMacroValue() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SetMacroValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMoveFloatLabels(t *testing.T) {
	in := `\begin{figure}[ht]
\includegraphics{fig.png}
\caption{A figure}
\centering
\label{fig:one}
\end{figure}`
	want := `\begin{figure}[ht]
\includegraphics{fig.png}
\caption{A figure}
  \label{fig:one}
\centering

\end{figure}`

	if got := MoveFloatLabels(in); got != want {
		t.Errorf("MoveFloatLabels() =\n%s\nwant:\n%s", got, want)
	}
}

func TestMoveFloatLabels_AlreadyAdjacent(t *testing.T) {
	in := `\begin{table}[h]
\caption{A table}
\label{tab:one}
data
\end{table}`

	if got := MoveFloatLabels(in); got != in {
		t.Errorf("MoveFloatLabels() changed already-correct input:\n%s", got)
	}
}

func TestMoveFloatLabels_NoFloats(t *testing.T) {
	in := "plain text with \\caption{stray} only"
	if got := MoveFloatLabels(in); got != in {
		t.Errorf("MoveFloatLabels() = %q, want unchanged", got)
	}
}

const biberWarning = `Some output
Package biblatex Warning: The following entry could not be found
(biblatex)                in the database:
(biblatex)                casties_2019_17353345
(biblatex)                Please verify the spelling and rerun
(biblatex)                LaTeX afterwards.
More output
Package biblatex Warning: The following entry could not be found
(biblatex)                in the database:
(biblatex)                smith_2021_999
Package biblatex Warning: The following entry could not be found
(biblatex)                in the database:
(biblatex)                casties_2019_17353345
`

func TestMissingBibEntries(t *testing.T) {
	got := MissingBibEntries(biberWarning)
	want := []string{"casties_2019_17353345", "smith_2021_999"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MissingBibEntries() = %v, want %v", got, want)
	}
}

func TestMissingBibEntries_NoWarnings(t *testing.T) {
	if got := MissingBibEntries("clean compilation\nno warnings here\n"); got != nil {
		t.Errorf("MissingBibEntries() = %v, want nil", got)
	}
}

func TestMissingBibEntries_TruncatedWarning(t *testing.T) {
	out := "Package biblatex Warning: The following entry could not be found\n(biblatex) in the database:"
	if got := MissingBibEntries(out); got != nil {
		t.Errorf("MissingBibEntries() = %v, want nil for truncated output", got)
	}
}

func TestCleanAux(t *testing.T) {
	dir := t.TempDir()

	keep := []string{"paper.tex", "paper.pdf", "refs.bib", "figure.png"}
	remove := []string{"paper.aux", "paper.log", "paper.bbl", "paper.run.xml", "PAPER.LOG", "paper-blx.bib", "paper.synctex.gz"}
	for _, name := range append(append([]string{}, keep...), remove...) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "_minted", "cache"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "figures"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := CleanAux(dir); err != nil {
		t.Fatalf("CleanAux() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	left := strings.Join(names, " ")

	for _, name := range keep {
		if !strings.Contains(left, name) {
			t.Errorf("kept file %s was removed", name)
		}
	}
	for _, name := range remove {
		if strings.Contains(left, name) {
			t.Errorf("auxiliary file %s survived", name)
		}
	}
	if strings.Contains(left, "_minted") {
		t.Errorf("_minted directory survived")
	}
	if !strings.Contains(left, "figures") {
		t.Errorf("figures directory was removed")
	}
}

func TestCompilerEnv_AbsoluteTexinputs(t *testing.T) {
	c := &Compiler{DataDir: "data"}

	var texinputs string
	for _, kv := range c.env() {
		if strings.HasPrefix(kv, "TEXINPUTS=") {
			texinputs = strings.TrimPrefix(kv, "TEXINPUTS=")
		}
	}
	if texinputs == "" {
		t.Fatal("TEXINPUTS not set in environment")
	}
	if !strings.HasSuffix(texinputs, "//:") {
		t.Errorf("TEXINPUTS = %q, want trailing //:", texinputs)
	}
	dir := strings.TrimSuffix(texinputs, "//:")
	if !filepath.IsAbs(dir) {
		t.Errorf("TEXINPUTS directory %q is relative, tools run from the paper directory", dir)
	}
}

func TestRunXeLaTeX_RunsAllPasses(t *testing.T) {
	bin := t.TempDir()
	work := t.TempDir()
	callLog := filepath.Join(work, "calls.txt")

	// Stub tools that record each invocation and fail, so an early
	// failure would be visible as a short call log.
	script := "#!/bin/sh\necho \"${0##*/}\" >> " + callLog + "\nexit 1\n"
	for _, name := range []string{"xelatex", "biber"} {
		if err := os.WriteFile(filepath.Join(bin, name), []byte(script), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("PATH", bin)

	c := &Compiler{DataDir: work}
	_, err := c.RunXeLaTeX(context.Background(), work)
	if err == nil {
		t.Fatal("RunXeLaTeX() error = nil, want failure from pipeline")
	}
	if !strings.Contains(err.Error(), "xelatex") {
		t.Errorf("RunXeLaTeX() error = %v, want first failing tool reported", err)
	}

	data, readErr := os.ReadFile(callLog)
	if readErr != nil {
		t.Fatalf("reading call log: %v", readErr)
	}
	calls := strings.Fields(string(data))
	want := []string{"xelatex", "biber", "xelatex", "xelatex"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("pipeline calls = %v, want %v", calls, want)
	}
}
