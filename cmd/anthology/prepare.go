package main

import (
	"fmt"

	"github.com/achorg/anthology/internal/paper"
	"github.com/spf13/cobra"
)

var prepareVolume string

func init() {
	prepareCmd.Flags().StringVar(&prepareVolume, "volume", "", "Prepare only a specific volume (e.g. 'vol0001' or '1')")
	rootCmd.AddCommand(prepareCmd)
}

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Copy input files to the output directory and prepare for building",
	Long: `Phase 1: copy input files to the output directory.

This command:
  - Adds DOIs to papers with placeholders
  - Copies LaTeX files, bibliographies, and figures to the output directory
  - Sets paper order numbers
  - Saves metadata for input-independent building

After this step, papers can be built without access to the input directory.`,
	RunE: runPrepare,
}

func runPrepare(cmd *cobra.Command, args []string) error {
	fmt.Println("Phase 1: Preparing papers (copying input to output)...")
	fmt.Println()

	cfg := mustLoadConfig()
	papers := mustDiscoverInput(cfg)
	papers = filterVolumeOrExit(papers, prepareVolume)
	fmt.Printf("Found %d papers\n\n", len(papers))

	fmt.Println("Step 1: Adding DOIs...")
	for _, p := range papers {
		if _, err := p.AddDOI(); err != nil {
			exitWithError(ExitDataError, "adding DOI to %s: %v", p.InputDir, err)
		}
	}
	fmt.Println("✓ DOI addition complete")
	fmt.Println()

	fmt.Println("Step 2: Copying files to output...")
	orders := paperOrders(papers)
	for i, p := range papers {
		fmt.Printf("  Copying: %s", p.Slug())
		if err := p.CopyToOutput(orders[i]); err != nil {
			fmt.Println(" ✗")
			exitWithError(ExitDataError, "copying %s: %v", p.InputDir, err)
		}
		fmt.Println(" ✓")
	}

	fmt.Println()
	fmt.Println("✓ Preparation complete!")
	fmt.Println()
	fmt.Println("Next step: Run 'anthology build' to compile and generate outputs")
	return nil
}

// paperOrders assigns each paper its order number, restarting at 1 for
// each volume. Papers must already be sorted.
func paperOrders(papers []*paper.Paper) []int {
	orders := make([]int, len(papers))
	curVolume := 0
	order := 1
	for i, p := range papers {
		if curVolume != p.VolumeID {
			order = 1
			curVolume = p.VolumeID
		}
		orders[i] = order
		order++
	}
	return orders
}
