package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/achorg/anthology/internal/latexedit"
	"github.com/spf13/cobra"
)

var (
	generatePDFPaper string
	generatePDFPages string
)

func init() {
	generatePDFCmd.Flags().StringVar(&generatePDFPaper, "paper", "", "Prepared paper directory to compile")
	generatePDFCmd.Flags().StringVar(&generatePDFPages, "pages", "", "Page range to stamp into the paper, e.g. '10-25'")
	_ = generatePDFCmd.MarkFlagRequired("paper")
	generateCmd.AddCommand(generatePDFCmd)
}

var generatePDFCmd = &cobra.Command{
	Use:   "pdf",
	Short: "Compile a single paper to its final DOI-named PDF",
	RunE:  runGeneratePDF,
}

// parsePageRange parses a page range given as 'start-end'.
func parsePageRange(s string) (start, end int, err error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("page range must be 'start-end', got %q", s)
	}
	start, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start page %q", parts[0])
	}
	end, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid end page %q", parts[1])
	}
	if start > end {
		return 0, 0, fmt.Errorf("start page %d is after end page %d", start, end)
	}
	return start, end, nil
}

func runGeneratePDF(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	compiler := &latexedit.Compiler{DataDir: cfg.DataDir, Verbose: verbose}
	ctx := context.Background()

	p := mustLoadOutputPaper(generatePDFPaper)
	fmt.Printf("Compiling: %s\n", p.Slug())
	if !compilePaper(ctx, compiler, p) {
		exitWithError(ExitDataError, "compilation failed")
	}

	if generatePDFPages != "" {
		start, end, err := parsePageRange(generatePDFPages)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if err := p.AddMetadata(start, end); err != nil {
			exitWithError(ExitDataError, "setting page numbers: %v", err)
		}
		fmt.Println("Recompiling with page numbers")
		if !compilePaper(ctx, compiler, p) {
			exitWithError(ExitDataError, "recompilation failed")
		}
	}

	if err := p.CleanAux(); err != nil && verbose {
		fmt.Fprintf(os.Stderr, "  cleaning %s: %v\n", p.OutputDir, err)
	}
	if err := p.MovePDF(); err != nil {
		exitWithError(ExitError, "renaming pdf: %v", err)
	}
	if err := p.CheckPDFDOI(); err != nil {
		fmt.Printf("Warning: %v\n", err)
	}

	stem := strings.ReplaceAll(p.DOI(), "/", "@")
	fmt.Printf("✓ PDF written to %s\n", filepath.Join(p.OutputDir, stem+".pdf"))
	return nil
}
