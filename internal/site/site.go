// Package site renders the static website: article pages, volume
// indexes, the table of contents, and the sitemap and RSS feeds.
package site

import (
	"embed"
	"fmt"
	"html/template"
	"os"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// ArticleAuthor is one author line on an article page.
type ArticleAuthor struct {
	Name        string
	Affiliation string
	ORCID       string
}

// CiteName is a split name used in citation meta tags.
type CiteName struct {
	First string
	Last  string
}

// ArticleData feeds the article page template.
type ArticleData struct {
	Title        string
	Authors      []ArticleAuthor
	Content      template.HTML
	Volume       string
	Date         string
	DOI          string
	Cite         template.HTML
	PDFPath      string
	BibPath      string
	IncludeFullText bool

	// Citation metadata for indexing services.
	PaperURL  string
	PDFURL    string
	Year      string
	FirstPage string
	LastPage  string
	Abstract  string
	Keywords  []string
	CiteAuthors []CiteName
	CiteEditors []CiteName
}

// VolumePaper is one row of a volume index page.
type VolumePaper struct {
	Title     string
	Authors   string
	URL       string
	PageStart int
	PageEnd   int
}

// VolumeData feeds the volume index template.
type VolumeData struct {
	PubVolume         string
	Date              string
	ConferenceName    string
	ConferenceEditors string
	Description       string
	Papers            []VolumePaper
}

// TOCVolume is one entry of the table of contents.
type TOCVolume struct {
	PubVolume         string
	ConferenceName    string
	ConferenceEditors string
	Date              string
	NumPapers         int
	URL               string
}

// RenderArticle writes an article page to path.
func RenderArticle(path string, data ArticleData) error {
	return renderToFile(path, "article.html", data)
}

// RenderVolume writes a volume index page to path.
func RenderVolume(path string, data VolumeData) error {
	return renderToFile(path, "volume.html", data)
}

// RenderTOC writes the table of contents page to path. Volumes are listed
// in the order given; callers pass newest first.
func RenderTOC(path string, volumes []TOCVolume) error {
	return renderToFile(path, "toc.html", struct{ Volumes []TOCVolume }{volumes})
}

func renderToFile(path, name string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := pageTemplates.ExecuteTemplate(f, name, data); err != nil {
		f.Close()
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	return f.Close()
}
