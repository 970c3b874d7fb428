package main

import (
	"github.com/achorg/anthology/internal/latexmeta"
	"github.com/spf13/cobra"
)

var extractJoined bool

func init() {
	extractCmd.Flags().BoolVar(&extractJoined, "joined", false, "Resolve affiliation numbers into the author records")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <file.tex>",
	Short: "Extract metadata from a LaTeX source file",
	Long: `Extract metadata from a LaTeX source file and print it as JSON.

The record carries the title, authors with their optional metadata
blocks, affiliations, keywords, publication macros, and commented-out
macros. With --joined, each author's affiliation numbers are resolved
into the affiliations they reference.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	md, err := latexmeta.ExtractFile(args[0])
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	if extractJoined {
		type joinedRecord struct {
			Title           latexmeta.MacroValue            `json:"title,omitempty"`
			Authors         []latexmeta.ResolvedAuthor      `json:"authors"`
			Keywords        latexmeta.MacroValue            `json:"keywords,omitempty"`
			PublicationInfo map[string]latexmeta.MacroValue `json:"publication_info"`
			CommentedMacros map[string]string               `json:"commented_macros"`
		}
		return outputJSON(joinedRecord{
			Title:           md.Title,
			Authors:         latexmeta.JoinAuthorsAffiliations(md),
			Keywords:        md.Keywords,
			PublicationInfo: md.PublicationInfo,
			CommentedMacros: md.CommentedMacros,
		})
	}

	return outputJSON(md)
}
