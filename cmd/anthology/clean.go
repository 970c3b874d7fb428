package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(validateCmd)
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean LaTeX auxiliary files from all output directories",
	RunE:  runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	papers := mustDiscoverOutput(cfg)

	if verbose {
		fmt.Printf("Cleaning %d paper directories\n", len(papers))
	}

	for _, p := range papers {
		if verbose {
			fmt.Printf("Cleaning: %s\n", p.Slug())
		}
		if err := p.CleanAux(); err != nil {
			exitWithError(ExitError, "cleaning %s: %v", p.OutputDir, err)
		}
	}

	fmt.Println("✓ Cleanup complete")
	return nil
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate that required input files exist for all papers",
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	papers := mustDiscoverInput(cfg)

	if verbose {
		fmt.Printf("Validating %d papers\n", len(papers))
	}

	errors := 0
	for _, p := range papers {
		if err := p.ValidateInput(); err != nil {
			errors++
			fmt.Printf("✗ %s: %v\n", p.InputDir, err)
		} else if verbose {
			fmt.Printf("✓ %s\n", p.InputDir)
		}
	}

	if errors > 0 {
		exitWithError(ExitDataError, "validation failed: %d error(s)", errors)
	}
	fmt.Println("✓ All papers validated successfully")
	return nil
}
