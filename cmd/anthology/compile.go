package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/achorg/anthology/internal/latexedit"
	"github.com/achorg/anthology/internal/paper"
	"github.com/spf13/cobra"
)

var compilePaperDir string

func init() {
	compileCmd.Flags().StringVar(&compilePaperDir, "paper", "", "Compile a specific prepared paper directory")
	rootCmd.AddCommand(compileCmd)
}

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile papers to PDF using XeLaTeX",
	RunE:  runCompile,
}

// mustLoadOutputPaper rebuilds a single paper from its prepared
// directory, exiting with a hint when the directory carries no record.
func mustLoadOutputPaper(dir string) *paper.Paper {
	p, err := paper.FromOutputDir(dir)
	if err != nil {
		exitWithError(ExitDataError, "loading paper from %s: %v", dir, err)
	}
	if p == nil {
		fmt.Fprintf(os.Stderr, "error: could not load paper from %s\n", dir)
		fmt.Fprintln(os.Stderr, "Make sure the paper has been prepared first with 'anthology prepare'")
		os.Exit(ExitDataError)
	}
	return p
}

// compilePaper cleans, compiles, and reports missing bibliography entries
// for one paper. Returns false on compilation failure.
func compilePaper(ctx context.Context, c *latexedit.Compiler, p *paper.Paper) bool {
	if err := p.CleanAux(); err != nil && verbose {
		fmt.Fprintf(os.Stderr, "  cleaning %s: %v\n", p.OutputDir, err)
	}

	missing, err := p.Compile(ctx, c)
	if err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "  compiling %s: %v\n", p.OutputDir, err)
		}
		return false
	}
	if len(missing) > 0 {
		fmt.Fprintf(os.Stderr, "  warning: missing bibliography entries in %s: %s\n",
			p.Slug(), strings.Join(missing, ", "))
	}
	return true
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	compiler := &latexedit.Compiler{DataDir: cfg.DataDir, Verbose: verbose}
	ctx := context.Background()

	if compilePaperDir != "" {
		p := mustLoadOutputPaper(compilePaperDir)
		fmt.Printf("Compiling: %s\n", p.Slug())
		if !compilePaper(ctx, compiler, p) {
			exitWithError(ExitDataError, "compilation failed")
		}
		fmt.Println("✓ Compilation successful")
		return nil
	}

	papers := mustDiscoverOutput(cfg)
	if verbose {
		fmt.Printf("Found %d papers\n", len(papers))
	}

	var failed []string
	for _, p := range papers {
		fmt.Printf("Compiling: %s", p.Slug())
		if compilePaper(ctx, compiler, p) {
			fmt.Println(" ✓")
		} else {
			fmt.Println(" ✗")
			failed = append(failed, p.Slug())
		}
	}

	if len(failed) > 0 {
		fmt.Fprintf(os.Stderr, "\n✗ %d paper(s) failed to compile:\n", len(failed))
		for _, name := range failed {
			fmt.Fprintf(os.Stderr, "  - %s\n", name)
		}
		os.Exit(ExitDataError)
	}

	fmt.Println("\n✓ All papers compiled successfully")
	return nil
}
