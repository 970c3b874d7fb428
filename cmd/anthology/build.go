package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/achorg/anthology/internal/latexedit"
	"github.com/achorg/anthology/internal/paper"
	"github.com/spf13/cobra"
)

var buildVolume string

func init() {
	buildCmd.Flags().StringVar(&buildVolume, "volume", "", "Build only a specific volume (e.g. 'vol0001' or '1')")
	rootCmd.AddCommand(buildCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build papers from the output directory (compile, generate outputs)",
	Long: `Phase 2: build papers from the output directory.

This command works entirely from the output directory and does not
require access to the input directory. Run 'anthology prepare' first.

Steps:
  1. Discover papers in the output directory
  2. Update paper ordering in LaTeX files and metadata
  3. Compile papers with XeLaTeX
  4. Add metadata (page numbers, volume info)
  5. Recompile with final metadata
  6. Clean auxiliary files and rename PDFs
  7. Generate BibTeX, HTML, volume pages, Crossref XML, sitemap, RSS, and TOC`,
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	fmt.Println("Phase 2: Building papers from output directory...")
	fmt.Println()

	cfg := mustLoadConfig()
	allPapers := mustDiscoverOutput(cfg)

	// Sitemap, RSS, and TOC always cover every paper; the volume filter
	// only narrows what gets compiled and regenerated.
	papers := filterVolumeOrExit(allPapers, buildVolume)
	fmt.Printf("Found %d papers\n\n", len(papers))

	fmt.Println("Step 1: Updating paper ordering...")
	orders := paperOrders(papers)
	for i, p := range papers {
		if err := p.UpdatePaperOrder(orders[i]); err != nil {
			exitWithError(ExitDataError, "updating order for %s: %v", p.Slug(), err)
		}
	}
	fmt.Println("✓ Paper ordering updated")
	fmt.Println()

	fmt.Println("Step 2: Compiling papers and adding metadata...")
	compiler := &latexedit.Compiler{DataDir: cfg.DataDir, Verbose: verbose}
	ctx := context.Background()

	pageStart := 1
	curVolume := 0
	var failed []string

	for _, p := range papers {
		// Page numbering restarts with each volume.
		if curVolume != p.VolumeID {
			pageStart = 1
			curVolume = p.VolumeID
		}

		fmt.Printf("Processing: %s", p.Slug())

		if !compilePaper(ctx, compiler, p) {
			fmt.Println(" ✗ (compilation failed)")
			failed = append(failed, p.Slug())
			continue
		}

		numPages, err := p.NumPages()
		if err != nil {
			fmt.Println(" ✗ (page count failed)")
			failed = append(failed, p.Slug())
			continue
		}

		pageStart, err = assignPages(p, pageStart, numPages)
		if err != nil {
			fmt.Println(" ✗ (metadata failed)")
			failed = append(failed, p.Slug())
			continue
		}

		if !compilePaper(ctx, compiler, p) {
			fmt.Println(" ✗ (recompilation failed)")
			failed = append(failed, p.Slug())
			continue
		}

		if err := p.CleanAux(); err != nil {
			exitWithError(ExitError, "cleaning %s: %v", p.OutputDir, err)
		}
		if err := p.MovePDF(); err != nil {
			exitWithError(ExitError, "renaming pdf for %s: %v", p.Slug(), err)
		}
		if err := p.CheckPDFDOI(); err != nil {
			fmt.Printf("\n  Warning: %s: %v", p.Slug(), err)
		}
		fmt.Println(" ✓")
	}

	if len(failed) > 0 {
		fmt.Fprintf(os.Stderr, "\n✗ %d paper(s) failed:\n", len(failed))
		for _, name := range failed {
			fmt.Fprintf(os.Stderr, "  - %s\n", name)
		}
		fmt.Println("\nContinuing with successful papers...")
		papers = withoutFailed(papers, failed)
	} else {
		fmt.Println("\n✓ All papers compiled successfully")
	}
	fmt.Println()

	fmt.Println("Step 3: Generating BibTeX citations...")
	generateBibTeXFiles(cfg, papers)
	fmt.Println()

	fmt.Println("Step 4: Generating HTML...")
	generateHTMLPages(ctx, cfg, papers)
	fmt.Println()

	fmt.Println("Step 5: Generating volume pages...")
	generateVolumePages(cfg, papers)
	fmt.Println()

	fmt.Println("Step 6: Generating Crossref XML...")
	generateCrossrefXML(cfg, papers)
	fmt.Println()

	fmt.Println("Step 7: Generating sitemap...")
	generateSitemap(cfg, allPapers)
	fmt.Println()

	fmt.Println("Step 8: Generating RSS feed...")
	generateRSSFeed(cfg, allPapers)
	fmt.Println()

	fmt.Println("Step 9: Generating table of contents...")
	generateTOCPage(cfg, allPapers)
	fmt.Println()

	fmt.Println("✓ Build pipeline complete!")
	return nil
}

// assignPages fills the volume metadata and page numbers into the paper
// and returns the next free page number. Frozen volumes keep the page
// numbers already present in their sources; a frozen paper without page
// numbers is renumbered like an unfrozen one.
func assignPages(p *paper.Paper, pageStart, numPages int) (int, error) {
	if p.VolumeMeta.Frozen {
		md, err := p.Metadata()
		if err != nil {
			return 0, err
		}
		start, _ := md.PublicationInfo["pagestart"].Scalar()
		end, _ := md.PublicationInfo["pageend"].Scalar()
		existingStart, err1 := strconv.Atoi(start)
		existingEnd, err2 := strconv.Atoi(end)

		if err1 == nil && err2 == nil {
			if err := p.AddMetadata(existingStart, existingEnd); err != nil {
				return 0, err
			}
			if verbose {
				fmt.Printf("  Volume frozen: keeping existing pages %d-%d\n", existingStart, existingEnd)
			}
			return existingEnd + 1, nil
		}
		if verbose {
			fmt.Println("  Warning: volume marked as frozen but no existing page numbers found")
		}
	}

	if err := p.AddMetadata(pageStart, pageStart+numPages-1); err != nil {
		return 0, err
	}
	return pageStart + numPages, nil
}

func withoutFailed(papers []*paper.Paper, failed []string) []*paper.Paper {
	failedSet := make(map[string]bool, len(failed))
	for _, name := range failed {
		failedSet[name] = true
	}

	var kept []*paper.Paper
	for _, p := range papers {
		if !failedSet[p.Slug()] {
			kept = append(kept, p)
		}
	}
	return kept
}
