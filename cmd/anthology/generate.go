package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/achorg/anthology/internal/config"
	"github.com/achorg/anthology/internal/crossref"
	"github.com/achorg/anthology/internal/paper"
	"github.com/achorg/anthology/internal/site"
	"github.com/achorg/anthology/internal/textutil"
	"github.com/spf13/cobra"
)

var (
	generateHTMLPaper  string
	generateHTMLVolume string
)

func init() {
	generateHTMLCmd.Flags().StringVar(&generateHTMLPaper, "paper", "", "Generate HTML for a specific paper directory")
	generateHTMLCmd.Flags().StringVar(&generateHTMLVolume, "volume", "", "Generate HTML for a specific volume (e.g. 'vol0001' or '1')")

	generateCmd.AddCommand(generateHTMLCmd)
	generateCmd.AddCommand(generateBibTeXCmd)
	generateCmd.AddCommand(generateVolumesCmd)
	generateCmd.AddCommand(generateTOCCmd)
	generateCmd.AddCommand(generateXMLCmd)
	generateCmd.AddCommand(generateSitemapCmd)
	generateCmd.AddCommand(generateRSSCmd)
	generateCmd.AddCommand(generateAllCmd)
	rootCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate outputs (HTML, BibTeX, XML, sitemap, RSS)",
}

var generateHTMLCmd = &cobra.Command{
	Use:   "html",
	Short: "Generate HTML versions of papers",
	RunE:  runGenerateHTML,
}

func runGenerateHTML(cmd *cobra.Command, args []string) error {
	if generateHTMLPaper != "" && generateHTMLVolume != "" {
		exitWithError(ExitError, "cannot specify both --paper and --volume")
	}

	cfg := mustLoadConfig()
	ctx := context.Background()

	if generateHTMLPaper != "" {
		p := mustLoadOutputPaper(generateHTMLPaper)
		fmt.Printf("Generating HTML: %s\n", p.Slug())
		if err := p.CreateHTML(ctx, htmlOptions(cfg)); err != nil {
			exitWithError(ExitDataError, "HTML generation failed: %v", err)
		}
		fmt.Println("✓ HTML generation complete")
		return nil
	}

	papers := mustDiscoverOutput(cfg)
	papers = filterVolumeOrExit(papers, generateHTMLVolume)
	generateHTMLPages(ctx, cfg, papers)
	return nil
}

var generateBibTeXCmd = &cobra.Command{
	Use:   "bibtex",
	Short: "Generate BibTeX citation files for all papers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()
		generateBibTeXFiles(cfg, mustDiscoverOutput(cfg))
		return nil
	},
}

var generateVolumesCmd = &cobra.Command{
	Use:   "volumes",
	Short: "Generate volume index pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()
		generateVolumePages(cfg, mustDiscoverOutput(cfg))
		return nil
	},
}

var generateTOCCmd = &cobra.Command{
	Use:   "toc",
	Short: "Generate the main table of contents page",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()
		generateTOCPage(cfg, mustDiscoverOutput(cfg))
		return nil
	},
}

var generateXMLCmd = &cobra.Command{
	Use:   "xml",
	Short: "Generate Crossref XML metadata files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()
		generateCrossrefXML(cfg, mustDiscoverOutput(cfg))
		return nil
	},
}

var generateSitemapCmd = &cobra.Command{
	Use:   "sitemap",
	Short: "Generate sitemap.xml for the website",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()
		generateSitemap(cfg, mustDiscoverOutput(cfg))
		return nil
	},
}

var generateRSSCmd = &cobra.Command{
	Use:   "rss",
	Short: "Generate the RSS feed for the website",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()
		generateRSSFeed(cfg, mustDiscoverOutput(cfg))
		return nil
	},
}

var generateAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Generate all outputs (HTML, BibTeX, volumes, TOC, XML, sitemap, RSS)",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Generating all outputs...")
		cfg := mustLoadConfig()
		papers := mustDiscoverOutput(cfg)

		generateHTMLPages(context.Background(), cfg, papers)
		generateBibTeXFiles(cfg, papers)
		generateVolumePages(cfg, papers)
		generateTOCPage(cfg, papers)
		generateCrossrefXML(cfg, papers)
		generateSitemap(cfg, papers)
		generateRSSFeed(cfg, papers)

		fmt.Println("\n✓ All generation complete")
		return nil
	},
}

// htmlOptions builds the pandoc settings from the site config. The lua
// filter and CSL style are passed along only when present on disk.
func htmlOptions(cfg *config.Config) paper.HTMLOptions {
	opts := paper.HTMLOptions{
		BaseURL:      cfg.BaseURL,
		JournalTitle: cfg.JournalTitle,
		Verbose:      verbose,
	}

	resources := filepath.Join(filepath.Dir(cfg.OutputDir), "resources")
	luaFilter := filepath.Join(resources, "combined-filters.lua")
	if _, err := os.Stat(luaFilter); err == nil {
		opts.LuaFilter = luaFilter
	}
	cslFile := filepath.Join(resources, "template-md", "mla-numeric.csl")
	if _, err := os.Stat(cslFile); err == nil {
		opts.CSLFile = cslFile
	}
	return opts
}

// generateHTMLPages renders article pages for the papers, reporting
// per-paper failures as warnings instead of aborting.
func generateHTMLPages(ctx context.Context, cfg *config.Config, papers []*paper.Paper) {
	if verbose {
		fmt.Printf("Generating HTML for %d papers\n", len(papers))
	}

	opts := htmlOptions(cfg)
	var failed []string
	for _, p := range papers {
		fmt.Printf("Processing: %s", p.Slug())
		if err := p.CreateHTML(ctx, opts); err != nil {
			fmt.Println(" ✗")
			fmt.Fprintf(os.Stderr, "  warning: HTML generation failed for %s: %v\n", p.Slug(), err)
			failed = append(failed, p.Slug())
			continue
		}
		fmt.Println(" ✓")
	}

	if len(failed) > 0 {
		fmt.Fprintf(os.Stderr, "\n%d paper(s) failed HTML generation:\n", len(failed))
		for _, name := range failed {
			fmt.Fprintf(os.Stderr, "  - %s\n", name)
		}
		fmt.Println("✓ HTML generation complete (with warnings)")
	} else {
		fmt.Println("✓ HTML generation complete")
	}
}

func generateBibTeXFiles(cfg *config.Config, papers []*paper.Paper) {
	for _, p := range papers {
		if verbose {
			fmt.Printf("Generating: %s\n", p.Slug())
		}
		if err := p.CreateBibTeX(cfg.JournalTitle); err != nil {
			exitWithError(ExitDataError, "BibTeX for %s: %v", p.Slug(), err)
		}
	}
	fmt.Println("✓ BibTeX generation complete")
}

// generateVolumePages writes an index.html into each volume directory.
func generateVolumePages(cfg *config.Config, papers []*paper.Paper) {
	volumes := paper.Volumes(papers)
	if verbose {
		fmt.Printf("Generating volume pages for %d volumes\n", len(volumes))
	}

	for _, vol := range volumes {
		if verbose {
			fmt.Printf("Generating: %s\n", vol)
		}
		volPapers := volumePapers(papers, vol)

		var rows []site.VolumePaper
		for _, p := range volPapers {
			md, err := p.Metadata()
			if err != nil {
				exitWithError(ExitDataError, "reading metadata for %s: %v", p.Slug(), err)
			}

			var authors []string
			for _, a := range md.Authors {
				authors = append(authors, textutil.LatexToUnicode(a.Name))
			}
			title, _ := md.Title.Scalar()
			start, _ := md.PublicationInfo["pagestart"].Scalar()
			end, _ := md.PublicationInfo["pageend"].Scalar()
			pageStart, _ := strconv.Atoi(start)
			pageEnd, _ := strconv.Atoi(end)

			rows = append(rows, site.VolumePaper{
				Title:     textutil.LatexToUnicode(title),
				Authors:   strings.Join(authors, ", "),
				URL:       p.Slug(),
				PageStart: pageStart,
				PageEnd:   pageEnd,
			})
		}

		meta := volPapers[0].VolumeMeta
		err := site.RenderVolume(filepath.Join(cfg.OutputDir, vol, "index.html"), site.VolumeData{
			PubVolume:         meta.PubVolume,
			Date:              meta.Date,
			ConferenceName:    meta.ConferenceName,
			ConferenceEditors: meta.ConferenceEditors,
			Description:       meta.Description,
			Papers:            rows,
		})
		if err != nil {
			exitWithError(ExitError, "volume page for %s: %v", vol, err)
		}
	}
	fmt.Println("✓ Volume page generation complete")
}

// generateTOCPage writes the volumes index listing all volumes, newest
// first. A conference field holding an em dash counts as empty.
func generateTOCPage(cfg *config.Config, papers []*paper.Paper) {
	if verbose {
		fmt.Println("Generating main table of contents")
	}

	volumes := paper.Volumes(papers)
	sort.Sort(sort.Reverse(sort.StringSlice(volumes)))

	var entries []site.TOCVolume
	for _, vol := range volumes {
		volPapers := volumePapers(papers, vol)
		meta := volPapers[0].VolumeMeta

		conferenceName := meta.ConferenceName
		if conferenceName == "—" {
			conferenceName = ""
		}
		conferenceEditors := meta.ConferenceEditors
		if conferenceEditors == "—" {
			conferenceEditors = ""
		}

		entries = append(entries, site.TOCVolume{
			PubVolume:         meta.PubVolume,
			ConferenceName:    conferenceName,
			ConferenceEditors: conferenceEditors,
			Date:              meta.Date,
			NumPapers:         len(volPapers),
			URL:               vol + "/",
		})
	}

	if err := site.RenderTOC(filepath.Join(cfg.OutputDir, "index.html"), entries); err != nil {
		exitWithError(ExitError, "table of contents: %v", err)
	}
	fmt.Println("✓ Table of contents generation complete")
}

// generateCrossrefXML writes one deposit file per volume under data/xml/.
func generateCrossrefXML(cfg *config.Config, papers []*paper.Paper) {
	volumes := paper.Volumes(papers)
	if verbose {
		fmt.Printf("Generating Crossref XML for %d volumes\n", len(volumes))
	}

	if err := os.MkdirAll(cfg.XMLDir(), 0755); err != nil {
		exitWithError(ExitError, "creating xml directory: %v", err)
	}

	journal := crossref.Journal{
		FullTitle:     cfg.JournalTitle,
		AbbrevTitle:   cfg.JournalAbbrev,
		DOI:           cfg.JournalDOI,
		ResourceURL:   cfg.BaseURL + "/",
		DepositorName: cfg.DepositorName,
		Email:         config.DepositorEmail(),
	}

	for _, vol := range volumes {
		volPapers := volumePapers(papers, vol)
		meta := volPapers[0].VolumeMeta

		var articles []crossref.Article
		for _, p := range volPapers {
			md, err := p.Metadata()
			if err != nil {
				exitWithError(ExitDataError, "reading metadata for %s: %v", p.Slug(), err)
			}

			var contributors []crossref.Contributor
			for _, a := range md.Authors {
				given, surname := crossref.SplitName(textutil.LatexToUnicode(a.Name))
				c := crossref.Contributor{GivenName: given, Surname: surname}
				if orcid, ok := a.Metadata["orcid"]; ok {
					c.ORCID = crossref.NormalizeORCID(orcid.String())
				}
				contributors = append(contributors, c)
			}

			title, _ := md.Title.Scalar()
			d, _ := md.PublicationInfo["doi"].Scalar()
			start, _ := md.PublicationInfo["pagestart"].Scalar()
			end, _ := md.PublicationInfo["pageend"].Scalar()

			articles = append(articles, crossref.Article{
				Title:        textutil.LatexToUnicode(title),
				Contributors: contributors,
				Abstract:     textutil.LatexToUnicode(p.Abstract()),
				FirstPage:    start,
				LastPage:     end,
				DOI:          d,
				ResourceURL:  fmt.Sprintf("%s/volumes/vol%04d/%s/", cfg.BaseURL, p.VolumeID, p.Slug()),
			})
		}

		path := filepath.Join(cfg.XMLDir(), "crossref-"+vol+".xml")
		if err := crossref.WriteFile(path, journal, meta.PubDate, meta.PubYear, meta.PubVolume, articles); err != nil {
			exitWithError(ExitError, "crossref xml for %s: %v", vol, err)
		}
		if verbose {
			fmt.Printf("  Wrote %s\n", path)
		}
	}
	fmt.Println("✓ Crossref XML generation complete")
}

// generateSitemap writes sitemap.xml next to the output tree.
func generateSitemap(cfg *config.Config, papers []*paper.Paper) {
	if verbose {
		fmt.Println("Generating sitemap.xml")
	}

	var volumeRefs []site.VolumeRef
	for _, vol := range paper.Volumes(papers) {
		first := volumePapers(papers, vol)[0]
		volumeRefs = append(volumeRefs, site.VolumeRef{
			ID:      first.VolumeID,
			PubDate: first.VolumeMeta.PubDate,
		})
	}

	var paperRefs []site.PaperRef
	for _, p := range papers {
		paperRefs = append(paperRefs, site.PaperRef{
			VolumeID: p.VolumeID,
			Slug:     p.Slug(),
			PubDate:  p.VolumeMeta.PubDate,
		})
	}

	path := filepath.Join(filepath.Dir(cfg.OutputDir), "sitemap.xml")
	if err := site.WriteSitemap(path, cfg.BaseURL, volumeRefs, paperRefs); err != nil {
		exitWithError(ExitError, "sitemap: %v", err)
	}
	fmt.Println("✓ Sitemap generation complete")
}

// generateRSSFeed writes rss.xml next to the output tree, most recent
// papers first.
func generateRSSFeed(cfg *config.Config, papers []*paper.Paper) {
	if verbose {
		fmt.Println("Generating rss.xml")
	}

	sorted := make([]*paper.Paper, len(papers))
	copy(sorted, papers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[j].Less(sorted[i]) })

	var items []site.FeedItem
	for _, p := range sorted {
		md, err := p.Metadata()
		if err != nil {
			exitWithError(ExitDataError, "reading metadata for %s: %v", p.Slug(), err)
		}

		var authors []string
		for _, a := range md.Authors {
			authors = append(authors, textutil.LatexToUnicode(a.Name))
		}
		title, _ := md.Title.Scalar()
		d, _ := md.PublicationInfo["doi"].Scalar()

		items = append(items, site.FeedItem{
			Title:       textutil.LatexToUnicode(title),
			URL:         fmt.Sprintf("%s/volumes/vol%04d/%s/", cfg.BaseURL, p.VolumeID, p.Slug()),
			Authors:     authors,
			Description: textutil.StripHTMLTags(textutil.LatexToUnicode(p.Abstract())),
			PubDate:     p.VolumeMeta.PubDate,
			DOI:         d,
		})
	}

	channel := site.FeedChannel{
		Title:   cfg.JournalTitle,
		BaseURL: cfg.BaseURL,
		Description: cfg.JournalTitle + " is an open-access journal publishing technical papers, " +
			"software documentation, and research in digital humanities.",
	}

	path := filepath.Join(filepath.Dir(cfg.OutputDir), "rss.xml")
	if err := site.WriteRSS(path, channel, items, time.Now().UTC()); err != nil {
		exitWithError(ExitError, "rss feed: %v", err)
	}
	fmt.Println("✓ RSS feed generation complete")
}

// volumePapers keeps the papers belonging to one volume directory.
func volumePapers(papers []*paper.Paper, vol string) []*paper.Paper {
	var kept []*paper.Paper
	for _, p := range papers {
		if p.Volume == vol {
			kept = append(kept, p)
		}
	}
	return kept
}
