// Package latexedit edits LaTeX sources in place and drives the
// xelatex/biber compilation pipeline.
package latexedit

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

// SetMacroValue replaces the value of the first \command{value} occurrence
// in text. It returns an error when the command does not appear, so callers
// notice a template that drifted from the expected shape.
func SetMacroValue(text, command, newValue string) (string, error) {
	pattern := regexp.MustCompile(`\\` + regexp.QuoteMeta(command) + `\{[^{}]+\}`)
	if !pattern.MatchString(text) {
		return "", fmt.Errorf("no occurrence of \\%s{...} found", command)
	}

	replaced := false
	out := pattern.ReplaceAllStringFunc(text, func(m string) string {
		if replaced {
			return m
		}
		replaced = true
		return `\` + command + `{` + newValue + `}`
	})
	return out, nil
}

// floatPattern matches a table or figure environment whose \label does not
// immediately follow its \caption. Pandoc's crossref filter numbers floats
// only when the label sits right after the caption.
var floatPattern = regexp.MustCompile(
	`(?s)(\\begin\{(?:table|figure)\}[^\n]*\n)(.*?)(\\caption\{(?:[^{}]|\{[^{}]*\})*\})\s*(.*?)(\\label\{[^}]+\})(.*?)(\\end\{(?:table|figure)\})`)

// MoveFloatLabels rewrites table and figure environments so each \label
// immediately follows its \caption, keeping any content that sat between
// them after the label. Applied repeatedly until the content settles.
func MoveFloatLabels(content string) string {
	for {
		next := replaceFloats(content)
		if next == content {
			return next
		}
		content = next
	}
}

func replaceFloats(content string) string {
	matches := floatPattern.FindAllStringSubmatchIndex(content, -1)
	if matches == nil {
		return content
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		group := func(n int) string { return content[m[2*n]:m[2*n+1]] }

		b.WriteString(content[last:m[0]])
		last = m[1]

		between := group(4)
		if strings.TrimSpace(between) == "" {
			b.WriteString(content[m[0]:m[1]])
			continue
		}

		b.WriteString(group(1))
		b.WriteString(group(2))
		b.WriteString(group(3))
		b.WriteString("\n  ")
		b.WriteString(group(5))
		b.WriteString("\n")
		b.WriteString(between)
		b.WriteString(group(6))
		b.WriteString(group(7))
	}
	b.WriteString(content[last:])

	return b.String()
}

var biblatexKeyPattern = regexp.MustCompile(`\(biblatex\)\s+(\S+)`)

// MissingBibEntries parses xelatex output for biblatex warnings about
// entries missing from the bibliography database and returns the citation
// keys in first-seen order. The key sits two lines below the warning line
// in biblatex's continuation format.
func MissingBibEntries(latexOutput string) []string {
	var missing []string
	seen := make(map[string]bool)

	lines := strings.Split(latexOutput, "\n")
	for i, line := range lines {
		if !strings.Contains(line, "The following entry could not be found") {
			continue
		}
		if i+2 >= len(lines) {
			continue
		}
		m := biblatexKeyPattern.FindStringSubmatch(lines[i+2])
		if m == nil {
			continue
		}
		if key := m[1]; !seen[key] {
			seen[key] = true
			missing = append(missing, key)
		}
	}

	return missing
}

// Compiler runs the LaTeX toolchain over a paper directory.
type Compiler struct {
	// DataDir is added to TEXINPUTS with a trailing // so style files in
	// subdirectories are found.
	DataDir string

	// Verbose passes tool output through to our stdout and stderr.
	Verbose bool
}

// env returns the process environment with TEXINPUTS pointing at DataDir.
// The path is made absolute because the tools run with the paper directory
// as their working directory. The trailing colon keeps the default search
// paths appended.
func (c *Compiler) env() []string {
	dataDir := c.DataDir
	if abs, err := filepath.Abs(dataDir); err == nil {
		dataDir = abs
	}
	return append(os.Environ(), fmt.Sprintf("TEXINPUTS=%s//:", dataDir))
}

func (c *Compiler) run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = c.env()
	if c.Verbose {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// RunXeLaTeX compiles paper.tex in dir through the full pipeline: an
// initial xelatex pass, biber, then two more xelatex passes to settle
// citations and cross-references. Every pass runs even when an earlier
// one fails, since in nonstopmode a later pass often recovers problems
// a previous one left behind. It returns the citation keys biblatex
// reported missing on the final pass, and the first pipeline error.
func (c *Compiler) RunXeLaTeX(ctx context.Context, dir string) ([]string, error) {
	firstErr := c.run(ctx, dir, "xelatex", "-interaction=nonstopmode", "paper.tex")
	if err := c.run(ctx, dir, "biber", "paper"); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.run(ctx, dir, "xelatex", "-interaction=nonstopmode", "paper.tex"); err != nil && firstErr == nil {
		firstErr = err
	}

	// Final pass captures output so missing-entry warnings can be reported
	// even when not verbose.
	cmd := exec.CommandContext(ctx, "xelatex", "-interaction=nonstopmode", "paper.tex")
	cmd.Dir = dir
	cmd.Env = c.env()
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	runErr := cmd.Run()

	if c.Verbose {
		os.Stdout.Write(buf.Bytes())
	}

	missing := MissingBibEntries(buf.String())
	if runErr != nil && firstErr == nil {
		firstErr = fmt.Errorf("xelatex: %w", runErr)
	}
	return missing, firstErr
}

// auxExtensions are the file suffixes left behind by a LaTeX run.
var auxExtensions = []string{
	".aux", ".log", ".out", ".toc", ".lof", ".lot",
	".bbl", ".bcf", ".blg", ".run.xml", ".fls",
	".fdb_latexmk", ".synctex.gz", ".dvi", ".bak",
	"-blx.bib", ".spl",
}

// CleanAux removes LaTeX auxiliary files and the _minted cache directory
// from dir.
func CleanAux(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory: %w", err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if entry.Name() == "_minted" {
				os.RemoveAll(path)
			}
			continue
		}
		name := strings.ToLower(entry.Name())
		for _, ext := range auxExtensions {
			if strings.HasSuffix(name, ext) {
				if err := os.Remove(path); err != nil {
					return fmt.Errorf("removing %s: %w", entry.Name(), err)
				}
				break
			}
		}
	}

	return nil
}
