package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/achorg/anthology/internal/catalog"
	"github.com/achorg/anthology/internal/config"
	"github.com/achorg/anthology/internal/paper"
	"github.com/achorg/anthology/internal/textutil"
	"github.com/spf13/cobra"
)

const defaultSearchLimit = 50

var (
	indexSearchLimit int
	indexListVolume  string
	indexListLimit   int
)

func init() {
	indexSearchCmd.Flags().IntVar(&indexSearchLimit, "limit", defaultSearchLimit, "Maximum results to return")
	indexListCmd.Flags().StringVar(&indexListVolume, "volume", "", "List only a specific volume")
	indexListCmd.Flags().IntVar(&indexListLimit, "limit", 0, "Maximum results to return (0 = all)")

	indexCmd.AddCommand(indexRebuildCmd)
	indexCmd.AddCommand(indexSearchCmd)
	indexCmd.AddCommand(indexListCmd)
	rootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Query the SQLite catalog of published papers",
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the catalog from the output directory",
	Long: `Rebuild the SQLite catalog from the metadata of prepared papers.

The catalog is derived data; it can be deleted and rebuilt at any time.`,
	RunE: runIndexRebuild,
}

func runIndexRebuild(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	papers := mustDiscoverOutput(cfg)

	var records []catalog.Record
	for _, p := range papers {
		rec, err := catalogRecord(p)
		if err != nil {
			exitWithError(ExitDataError, "reading metadata for %s: %v", p.Slug(), err)
		}
		records = append(records, rec)
	}

	db := mustOpenCatalog(cfg)
	defer db.Close()

	count, err := db.Rebuild(records)
	if err != nil {
		exitWithError(ExitDataError, "rebuilding catalog: %v", err)
	}

	fmt.Printf("Rebuilt catalog with %d papers\n", count)
	return nil
}

var indexSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the catalog by keyword",
	Long: `Search the catalog by keyword.

Query syntax:
  Plain text     - Searches titles, authors, keywords, and abstracts
  author:name    - Search author names only (prefix matching)
  title:text     - Search titles only
  keyword:text   - Search keywords only

Examples:
  anthology index search "topic modeling"
  anthology index search "author:Garcia"`,
	Args: cobra.ExactArgs(1),
	RunE: runIndexSearch,
}

func runIndexSearch(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenCatalog(cfg)
	defer db.Close()

	query := args[0]
	var recs []catalog.Record
	var err error

	switch {
	case strings.HasPrefix(query, "author:"):
		recs, err = db.SearchField("author", strings.TrimPrefix(query, "author:"), indexSearchLimit)
	case strings.HasPrefix(query, "title:"):
		recs, err = db.SearchField("title", strings.TrimPrefix(query, "title:"), indexSearchLimit)
	case strings.HasPrefix(query, "keyword:"):
		recs, err = db.SearchField("keyword", strings.TrimPrefix(query, "keyword:"), indexSearchLimit)
	default:
		recs, err = db.Search(query, indexSearchLimit)
	}
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}

	if len(recs) == 0 {
		fmt.Println("No papers found")
		return nil
	}
	fmt.Printf("Found %d papers:\n\n", len(recs))
	for i, rec := range recs {
		printRecordSummary(i+1, rec)
	}
	return nil
}

var indexListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cataloged papers in volume order",
	RunE:  runIndexList,
}

func runIndexList(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenCatalog(cfg)
	defer db.Close()

	vol := indexListVolume
	if vol != "" {
		vol = paper.NormalizeVolume(vol)
	}

	recs, err := db.List(vol, indexListLimit)
	if err != nil {
		exitWithError(ExitError, "listing: %v", err)
	}

	count, err := db.Count()
	if err != nil {
		exitWithError(ExitError, "counting: %v", err)
	}

	for i, rec := range recs {
		printRecordSummary(i+1, rec)
	}
	fmt.Printf("%d of %d papers\n", len(recs), count)
	return nil
}

func mustOpenCatalog(cfg *config.Config) *catalog.DB {
	db, err := catalog.Open(cfg.CatalogPath())
	if err != nil {
		exitWithError(ExitError, "opening catalog: %v", err)
	}
	return db
}

// catalogRecord maps a prepared paper to its catalog row.
func catalogRecord(p *paper.Paper) (catalog.Record, error) {
	md, err := p.Metadata()
	if err != nil {
		return catalog.Record{}, err
	}

	var authors []string
	for _, a := range md.Authors {
		authors = append(authors, textutil.LatexToUnicode(a.Name))
	}

	var keywords []string
	if kw, ok := md.Keywords.Scalar(); ok {
		for _, k := range strings.Split(kw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keywords = append(keywords, k)
			}
		}
	}

	title, _ := md.Title.Scalar()
	d, _ := md.PublicationInfo["doi"].Scalar()
	start, _ := md.PublicationInfo["pagestart"].Scalar()
	end, _ := md.PublicationInfo["pageend"].Scalar()
	pageStart, _ := strconv.Atoi(start)
	pageEnd, _ := strconv.Atoi(end)
	year, _ := strconv.Atoi(p.VolumeMeta.PubYear)

	return catalog.Record{
		DOI:       d,
		VolumeID:  fmt.Sprintf("vol%04d", p.VolumeID),
		Volume:    p.VolumeID,
		PaperID:   p.PaperID,
		Slug:      p.Slug(),
		Title:     textutil.LatexToUnicode(title),
		Authors:   authors,
		Keywords:  keywords,
		Year:      year,
		PageStart: pageStart,
		PageEnd:   pageEnd,
		Abstract:  textutil.StripHTMLTags(textutil.LatexToUnicode(p.Abstract())),
	}, nil
}

func printRecordSummary(num int, rec catalog.Record) {
	fmt.Printf("[%d] %s\n", num, rec.DOI)
	fmt.Printf("    %s\n", truncateString(rec.Title, 70))
	if len(rec.Authors) > 0 {
		fmt.Printf("    %s\n", strings.Join(rec.Authors, ", "))
	}
	fmt.Printf("    %s, pages %d-%d (%d)\n\n", rec.VolumeID, rec.PageStart, rec.PageEnd, rec.Year)
}
