// Package main provides the anthology CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/achorg/anthology/internal/config"
	"github.com/achorg/anthology/internal/paper"
	"github.com/achorg/anthology/internal/volume"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// verbose controls detailed progress output
var verbose bool

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "anthology",
	Short: "ACH Anthology journal processor",
	Long: `anthology processes journal articles from LaTeX sources.

It extracts metadata from the sources, assigns DOIs, compiles papers to
PDF with XeLaTeX, and generates the HTML site, BibTeX citations, Crossref
deposit XML, sitemap, and RSS feed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed output")
	rootCmd.Version = Version
}

// getProjectRoot returns the directory holding inputs, outputs, and config.
// The ANTHOLOGY_ROOT environment variable overrides the working directory.
func getProjectRoot() (string, int) {
	if root := os.Getenv("ANTHOLOGY_ROOT"); root != "" {
		return root, 0
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", outputError(ExitError, "getting current directory: %v", err)
	}
	return cwd, 0
}

// mustLoadConfig loads the site configuration, exits on error.
func mustLoadConfig() *config.Config {
	root, exitCode := getProjectRoot()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustLoadVolumeMetadata loads data/metadata.json, exits on error.
func mustLoadVolumeMetadata(cfg *config.Config) map[string]volume.Meta {
	meta, err := volume.LoadMetadata(cfg.MetadataPath())
	if err != nil {
		exitWithError(ExitConfigError, "loading volume metadata: %v", err)
	}
	return meta
}

// mustDiscoverInput lists the papers under the input tree, exits on error.
func mustDiscoverInput(cfg *config.Config) []*paper.Paper {
	meta := mustLoadVolumeMetadata(cfg)
	papers, err := paper.DiscoverInput(cfg.InputDir, cfg.OutputDir, meta)
	if err != nil {
		exitWithError(ExitDataError, "discovering input papers: %v", err)
	}
	return papers
}

// mustDiscoverOutput lists the prepared papers in the output tree and
// exits with a hint when none are found.
func mustDiscoverOutput(cfg *config.Config) []*paper.Paper {
	papers, err := paper.DiscoverOutput(cfg.OutputDir)
	if err != nil {
		exitWithError(ExitDataError, "discovering output papers: %v", err)
	}
	if len(papers) == 0 {
		fmt.Fprintln(os.Stderr, "No papers found in output directory!")
		fmt.Fprintln(os.Stderr, "Run 'anthology prepare' first to copy files from input/")
		os.Exit(ExitDataError)
	}
	return papers
}

// filterVolumeOrExit narrows papers to one volume, exiting when the
// filter matches nothing. An empty vol returns papers unchanged.
func filterVolumeOrExit(papers []*paper.Paper, vol string) []*paper.Paper {
	if vol == "" {
		return papers
	}
	filtered := paper.FilterVolume(papers, vol)
	if len(filtered) == 0 {
		exitWithError(ExitDataError, "no papers found for volume %s", paper.NormalizeVolume(vol))
	}
	return filtered
}
