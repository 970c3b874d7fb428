package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(doiAddCmd)
}

var doiAddCmd = &cobra.Command{
	Use:   "doi-add",
	Short: "Add DOIs to papers that have placeholder DOIs",
	RunE:  runDOIAdd,
}

func runDOIAdd(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	papers := mustDiscoverInput(cfg)

	if verbose {
		fmt.Printf("Found %d papers\n", len(papers))
	}

	for _, p := range papers {
		if verbose {
			fmt.Printf("Processing: %s\n", p.Slug())
		}
		assigned, err := p.AddDOI()
		if err != nil {
			exitWithError(ExitDataError, "adding DOI to %s: %v", p.InputDir, err)
		}
		if verbose && assigned != "" {
			fmt.Printf("  Assigned %s\n", assigned)
		}
	}

	fmt.Println("✓ DOI addition complete")
	return nil
}
