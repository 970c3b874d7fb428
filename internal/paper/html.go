package paper

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/achorg/anthology/internal/latexedit"
	"github.com/achorg/anthology/internal/site"
	"github.com/achorg/anthology/internal/textutil"
)

// HTMLOptions carries the site-level settings for article page generation.
// LuaFilter and CSLFile are optional pandoc resources; empty paths are
// skipped.
type HTMLOptions struct {
	BaseURL      string
	JournalTitle string
	LuaFilter    string
	CSLFile      string
	Verbose      bool
}

// CreateHTML converts the prepared paper.tex to HTML with pandoc and
// renders the article page into the output directory. When the paper is
// marked HTML-excluded only the abstract appears in the content area.
func (p *Paper) CreateHTML(ctx context.Context, opts HTMLOptions) error {
	texPath := filepath.Join(p.OutputDir, "paper.tex")

	// pandoc-crossref wants labels directly after captions.
	data, err := os.ReadFile(texPath)
	if err != nil {
		return fmt.Errorf("reading paper.tex: %w", err)
	}
	if err := os.WriteFile(texPath, []byte(latexedit.MoveFloatLabels(string(data))), 0644); err != nil {
		return fmt.Errorf("writing paper.tex: %w", err)
	}

	md, err := p.Metadata()
	if err != nil {
		return err
	}
	d, _ := md.PublicationInfo["doi"].Scalar()

	abstractLatex := p.Abstract()

	fragment, err := p.runPandoc(ctx, opts)
	if err != nil {
		return err
	}
	fragment = strings.ReplaceAll(fragment, "---", "—")

	abstractHTML := ""
	if abstractLatex != "" {
		converted, err := pandocFragment(ctx, abstractLatex)
		if err == nil {
			abstractHTML = `<div class="abs"><span>Abstract</span>` + converted + "</div>\n\n"
			fragment = abstractHTML + fragment
		}
	}
	if !p.IncludeHTML {
		fragment = abstractHTML
	}

	affiliations := make(map[string]string)
	for _, a := range md.Affiliations {
		affiliations[a.Number] = textutil.LatexToUnicode(a.Text)
	}

	var authors []site.ArticleAuthor
	var citeAuthors []site.CiteName
	for _, a := range md.Authors {
		var affs []string
		for _, num := range a.AffiliationNumbers {
			if text, ok := affiliations[num]; ok {
				affs = append(affs, text)
			}
		}
		author := site.ArticleAuthor{
			Name:        textutil.LatexToUnicode(a.Name),
			Affiliation: strings.Join(affs, ";"),
		}
		if orcid, ok := a.Metadata["orcid"]; ok {
			author.ORCID = orcid.String()
		}
		authors = append(authors, author)

		first, last := splitName(a.Name)
		citeAuthors = append(citeAuthors, site.CiteName{First: first, Last: last})
	}

	var citeEditors []site.CiteName
	for _, name := range splitEditors(p.VolumeMeta.ConferenceEditors) {
		first, last := splitName(name)
		citeEditors = append(citeEditors, site.CiteName{First: first, Last: last})
	}

	title, _ := md.Title.Scalar()
	title = textutil.LatexToUnicode(title)
	pageStart, _ := md.PublicationInfo["pagestart"].Scalar()
	pageEnd, _ := md.PublicationInfo["pageend"].Scalar()
	keywordsStr, _ := md.Keywords.Scalar()

	var keywords []string
	for _, kw := range strings.Split(keywordsStr, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}

	cite := fmt.Sprintf("<i>%s</i>, Vol. %s, %s, Pages %s-%s.",
		opts.JournalTitle, p.VolumeMeta.PubVolume, p.VolumeMeta.PubYear, pageStart, pageEnd)

	paperURL := fmt.Sprintf("%s/volumes/vol%04d/%s/", opts.BaseURL, p.VolumeID, p.Slug())
	stem := doiFileStem(d)

	abstractText := ""
	if abstractLatex != "" {
		abstractText = textutil.LatexToUnicode(abstractLatex)
	}

	return site.RenderArticle(filepath.Join(p.OutputDir, "index.html"), site.ArticleData{
		Title:           title,
		Authors:         authors,
		Content:         template.HTML(fragment),
		Volume:          p.VolumeMeta.PubVolume,
		Date:            p.VolumeMeta.PubDate,
		DOI:             d,
		Cite:            template.HTML(cite),
		PDFPath:         stem + ".pdf",
		BibPath:         stem + ".bib",
		IncludeFullText: p.IncludeHTML,
		PaperURL:        paperURL,
		PDFURL:          paperURL + stem + ".pdf",
		Year:            p.VolumeMeta.PubYear,
		FirstPage:       pageStart,
		LastPage:        pageEnd,
		Abstract:        abstractText,
		Keywords:        keywords,
		CiteAuthors:     citeAuthors,
		CiteEditors:     citeEditors,
	})
}

// runPandoc converts the full paper to an HTML5 fragment.
func (p *Paper) runPandoc(ctx context.Context, opts HTMLOptions) (string, error) {
	args := []string{
		filepath.Join(p.OutputDir, "paper.tex"),
		"-f", "latex+smart+raw_tex",
		"-t", "html5",
		"--bibliography", filepath.Join(p.OutputDir, "bibliography.bib"),
		"--number-sections",
		"--syntax-highlighting=pygments",
		"--metadata", "reference-section-title=References",
		"--metadata", "abstract-class=abs",
		"--metadata", "abstract-title=Abstract",
		"--metadata", "tableTitle=Table",
		"--metadata", "listingTitle=Listing",
		"--metadata", "tableEqns=true",
		"--metadata", "listingEqns=true",
		"--metadata", "link-citations=true",
		"--filter", "pandoc-crossref",
	}
	if opts.LuaFilter != "" {
		args = append(args, "--lua-filter", opts.LuaFilter)
	}
	args = append(args, "--citeproc")
	if opts.CSLFile != "" {
		args = append(args, "--csl="+opts.CSLFile)
	}
	args = append(args, "--quiet")

	cmd := exec.CommandContext(ctx, "pandoc", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if opts.Verbose {
			fmt.Fprintf(os.Stderr, "pandoc failed for %s:\n%s\n", p.OutputDir, stderr.String())
		}
		return "", fmt.Errorf("pandoc: %w", err)
	}
	return stdout.String(), nil
}

// pandocFragment converts a standalone piece of LaTeX to HTML5.
func pandocFragment(ctx context.Context, latex string) (string, error) {
	cmd := exec.CommandContext(ctx, "pandoc", "-f", "latex", "-t", "html5")
	cmd.Stdin = strings.NewReader(latex)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pandoc: %w", err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// splitName splits a display name into given and family parts at the last
// space; a single token is treated as a family name.
func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}

var editorSplitPattern = regexp.MustCompile(`\s+and\s+|,\s*`)

// splitEditors splits an editor list like "A. One and B. Two" or a
// comma-separated list into individual names.
func splitEditors(editors string) []string {
	var names []string
	for _, name := range editorSplitPattern.Split(editors, -1) {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
