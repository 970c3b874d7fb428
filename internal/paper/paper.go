// Package paper models a single journal article and the operations of the
// publishing pipeline: DOI assignment, preparation into the output tree,
// compilation, and citation file generation.
package paper

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/achorg/anthology/internal/bibtex"
	"github.com/achorg/anthology/internal/doi"
	"github.com/achorg/anthology/internal/latexedit"
	"github.com/achorg/anthology/internal/latexmeta"
	"github.com/achorg/anthology/internal/pdfutil"
	"github.com/achorg/anthology/internal/textutil"
	"github.com/achorg/anthology/internal/volume"
)

// slugWidth bounds the slugified title used as the output directory name.
const slugWidth = 50

// Paper represents one article. InputDir is empty when the paper was
// loaded from a prepared output directory.
type Paper struct {
	InputDir    string
	OutputDir   string
	PaperID     int
	VolumeID    int
	Volume      string
	VolumeMeta  volume.Meta
	PaperOrder  int
	IncludeHTML bool
}

// New builds a Paper from an input directory like input/vol0001/paper003.
// The numeric IDs come from the trailing digits of the directory names and
// the output directory name is the slugified title of paper.tex.
func New(inputDir string, meta volume.Meta, outputRoot string) (*Paper, error) {
	volumeName := filepath.Base(filepath.Dir(inputDir))

	p := &Paper{
		InputDir:    inputDir,
		PaperID:     trailingID(filepath.Base(inputDir)),
		VolumeID:    trailingID(volumeName),
		Volume:      volumeName,
		VolumeMeta:  meta,
		PaperOrder:  1,
		IncludeHTML: true,
	}

	md, err := latexmeta.ExtractFile(filepath.Join(inputDir, "paper.tex"))
	if err != nil {
		return nil, err
	}
	title, _ := md.Title.Scalar()
	slug := textutil.Slugify(title, slugWidth)
	if slug == "" {
		slug = filepath.Base(inputDir)
	}
	p.OutputDir = filepath.Join(outputRoot, volumeName, slug)

	return p, nil
}

// FromOutputDir rebuilds a Paper from a prepared output directory.
// Returns (nil, nil) when the directory carries no paper metadata.
func FromOutputDir(outputDir string) (*Paper, error) {
	meta, err := volume.LoadPaperMeta(outputDir)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, nil
	}

	return &Paper{
		InputDir:    meta.InputDir,
		OutputDir:   outputDir,
		PaperID:     meta.PaperID,
		VolumeID:    meta.VolumeID,
		Volume:      meta.Volume,
		VolumeMeta:  meta.VolumeMeta,
		PaperOrder:  meta.PaperOrder,
		IncludeHTML: meta.IncludeHTML,
	}, nil
}

// Less orders papers by volume ID, then paper ID.
func (p *Paper) Less(other *Paper) bool {
	if p.VolumeID != other.VolumeID {
		return p.VolumeID < other.VolumeID
	}
	return p.PaperID < other.PaperID
}

func (p *Paper) String() string {
	return fmt.Sprintf("Paper %s (volume %d)", p.OutputDir, p.VolumeID)
}

// ValidateInput checks that paper.tex and bibliography.bib exist in the
// input directory.
func (p *Paper) ValidateInput() error {
	for _, name := range []string{"paper.tex", "bibliography.bib"} {
		path := filepath.Join(p.InputDir, name)
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("missing input file: %s", path)
		}
	}
	return nil
}

// Metadata extracts the metadata record from the prepared paper.tex.
func (p *Paper) Metadata() (*latexmeta.Metadata, error) {
	return latexmeta.ExtractFile(filepath.Join(p.OutputDir, "paper.tex"))
}

// DOI returns the paper's DOI from its prepared source, or "".
func (p *Paper) DOI() string {
	md, err := p.Metadata()
	if err != nil {
		return ""
	}
	d, _ := md.PublicationInfo["doi"].Scalar()
	return d
}

// doiFileStem is the DOI with slashes replaced, usable as a filename.
func doiFileStem(d string) string {
	return strings.ReplaceAll(d, "/", "@")
}

// AddDOI replaces a placeholder DOI in the input paper.tex with a freshly
// generated one and returns it. Returns "" when the existing DOI is real.
func (p *Paper) AddDOI() (string, error) {
	path := filepath.Join(p.InputDir, "paper.tex")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	md := latexmeta.ExtractAll(string(data))
	current, _ := md.PublicationInfo["doi"].Scalar()
	if !doi.IsPlaceholder(current) {
		return "", nil
	}

	newDOI := doi.Generate()
	updated, err := latexedit.SetMacroValue(string(data), "doi", newDOI)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	return newDOI, nil
}

var includegraphicsPattern = regexp.MustCompile(`\\includegraphics(?:\[[^\]]*\])?\{([^}]+)\}`)

// CopyToOutput copies paper.tex and bibliography.bib into the output
// directory, applies source transforms, sets the paper order, copies
// referenced figures (converting PDF figures to PNG when ghostscript is
// available), and saves the paper metadata record.
func (p *Paper) CopyToOutput(order int) error {
	if err := os.MkdirAll(p.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if err := copyFile(
		filepath.Join(p.InputDir, "bibliography.bib"),
		filepath.Join(p.OutputDir, "bibliography.bib"),
	); err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Join(p.InputDir, "paper.tex"))
	if err != nil {
		return fmt.Errorf("reading paper.tex: %w", err)
	}
	content := string(data)

	content = strings.ReplaceAll(content, `\paragraph`, "\n\n\\noindent\n\\textbf")
	content = strings.ReplaceAll(content, `\textdaggerdbl`, "‡")
	content = latexedit.MoveFloatLabels(content)

	content, err = latexedit.SetMacroValue(content, "paperorder", strconv.Itoa(order))
	if err != nil {
		return err
	}

	content, err = p.copyFigures(content)
	if err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(p.OutputDir, "paper.tex"), []byte(content), 0644); err != nil {
		return fmt.Errorf("writing paper.tex: %w", err)
	}

	p.PaperOrder = order
	return p.saveMeta()
}

// copyFigures copies every file referenced by \includegraphics into
// figures/ under the output directory and rewrites the paths. PDF figures
// are rendered to PNG at 300dpi with ghostscript, falling back to a plain
// copy when the conversion fails.
func (p *Paper) copyFigures(content string) (string, error) {
	matches := includegraphicsPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return content, nil
	}

	figuresDir := filepath.Join(p.OutputDir, "figures")
	if err := os.MkdirAll(figuresDir, 0755); err != nil {
		return "", fmt.Errorf("creating figures directory: %w", err)
	}

	for _, m := range matches {
		ref := strings.TrimSpace(m[1])
		source := filepath.Join(p.InputDir, ref)
		info, err := os.Stat(source)
		if err != nil || info.IsDir() {
			continue
		}

		filename := filepath.Base(source)
		newPath := "figures/" + filename

		if strings.EqualFold(filepath.Ext(source), ".pdf") {
			pngName := strings.TrimSuffix(filename, filepath.Ext(filename)) + ".png"
			dest := filepath.Join(figuresDir, pngName)
			if err := convertPDFToPNG(source, dest); err == nil {
				newPath = "figures/" + pngName
			} else if err := copyFile(source, filepath.Join(figuresDir, filename)); err != nil {
				return "", err
			}
		} else if err := copyFile(source, filepath.Join(figuresDir, filename)); err != nil {
			return "", err
		}

		refPattern := regexp.MustCompile(`(\\includegraphics(?:\[[^\]]*\])?)\{` + regexp.QuoteMeta(ref) + `\}`)
		content = refPattern.ReplaceAllString(content, `$1{`+newPath+`}`)
	}

	return content, nil
}

func convertPDFToPNG(source, dest string) error {
	cmd := exec.Command("gs",
		"-dNOPAUSE", "-dBATCH", "-sDEVICE=png16m", "-r300",
		"-sOutputFile="+dest, source)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("gs conversion: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}

// UpdatePaperOrder sets the \paperorder value in the prepared source and
// refreshes the saved metadata record.
func (p *Paper) UpdatePaperOrder(order int) error {
	path := filepath.Join(p.OutputDir, "paper.tex")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading paper.tex: %w", err)
	}

	updated, err := latexedit.SetMacroValue(string(data), "paperorder", strconv.Itoa(order))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		return fmt.Errorf("writing paper.tex: %w", err)
	}

	p.PaperOrder = order
	return p.saveMeta()
}

// AddMetadata fills the volume fields and page numbers into the prepared
// source.
func (p *Paper) AddMetadata(pageStart, pageEnd int) error {
	path := filepath.Join(p.OutputDir, "paper.tex")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading paper.tex: %w", err)
	}

	content := string(data)
	fills := []struct {
		command string
		value   string
	}{
		{"pubvolume", p.VolumeMeta.PubVolume},
		{"pubyear", p.VolumeMeta.PubYear},
		{"conferencename", p.VolumeMeta.ConferenceName},
		{"conferenceeditors", p.VolumeMeta.ConferenceEditors},
		{"pagestart", strconv.Itoa(pageStart)},
		{"pageend", strconv.Itoa(pageEnd)},
	}
	for _, f := range fills {
		content, err = latexedit.SetMacroValue(content, f.command, f.value)
		if err != nil {
			return err
		}
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing paper.tex: %w", err)
	}
	return nil
}

// Compile runs the XeLaTeX pipeline in the output directory.
func (p *Paper) Compile(ctx context.Context, c *latexedit.Compiler) ([]string, error) {
	return c.RunXeLaTeX(ctx, p.OutputDir)
}

// CleanAux removes LaTeX auxiliary files from the output directory.
func (p *Paper) CleanAux() error {
	return latexedit.CleanAux(p.OutputDir)
}

// NumPages returns the page count of the compiled paper.pdf.
func (p *Paper) NumPages() (int, error) {
	return pdfutil.NumPages(filepath.Join(p.OutputDir, "paper.pdf"))
}

// MovePDF renames the compiled paper.pdf to {doi}.pdf with the slash
// replaced by @. Missing paper.pdf is not an error.
func (p *Paper) MovePDF() error {
	src := filepath.Join(p.OutputDir, "paper.pdf")
	if _, err := os.Stat(src); err != nil {
		return nil
	}

	d := p.DOI()
	if d == "" {
		return fmt.Errorf("no doi in %s", p.OutputDir)
	}

	dst := filepath.Join(p.OutputDir, doiFileStem(d)+".pdf")
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("renaming pdf: %w", err)
	}
	return nil
}

// CheckPDFDOI scans the renamed {doi}.pdf for a printed DOI and reports a
// mismatch against the DOI in the paper source. A missing PDF, unreadable
// text, or an absent DOI in the text all pass silently, since not every
// template prints the DOI on the page.
func (p *Paper) CheckPDFDOI() error {
	d := p.DOI()
	if d == "" {
		return nil
	}

	path := filepath.Join(p.OutputDir, doiFileStem(d)+".pdf")
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	found, err := pdfutil.FindDOI(path)
	if err != nil || found == "" {
		return nil
	}
	if found != d {
		return fmt.Errorf("pdf prints doi %s but source has %s", found, d)
	}
	return nil
}

// CreateBibTeX writes the {doi}.bib citation file for the paper.
func (p *Paper) CreateBibTeX(journal string) error {
	md, err := p.Metadata()
	if err != nil {
		return err
	}

	d, _ := md.PublicationInfo["doi"].Scalar()
	title, _ := md.Title.Scalar()
	pageStart, _ := md.PublicationInfo["pagestart"].Scalar()
	pageEnd, _ := md.PublicationInfo["pageend"].Scalar()

	var authors []string
	for _, a := range md.Authors {
		authors = append(authors, a.Name)
	}

	entry := bibtex.Article{
		Title:   title,
		Volume:  p.VolumeMeta.PubVolume,
		Authors: authors,
		Year:    p.VolumeMeta.PubYear,
		Journal: journal,
		Editors: []string{p.VolumeMeta.ConferenceEditors},
		Pages:   pageStart + "--" + pageEnd,
		DOI:     d,
	}

	_, err = entry.WriteFile(filepath.Join(p.OutputDir, doiFileStem(d)+".bib"))
	return err
}

var abstractPattern = regexp.MustCompile(`(?s)\\begin\{abstract\}(.*?)\\end\{abstract\}`)

// Abstract returns the abstract body from the prepared source, or "".
func (p *Paper) Abstract() string {
	data, err := os.ReadFile(filepath.Join(p.OutputDir, "paper.tex"))
	if err != nil {
		return ""
	}
	m := abstractPattern.FindStringSubmatch(string(data))
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// Slug is the output directory name, used in site URLs.
func (p *Paper) Slug() string {
	return filepath.Base(p.OutputDir)
}

func (p *Paper) saveMeta() error {
	return volume.SavePaperMeta(p.OutputDir, volume.PaperMeta{
		InputDir:    p.InputDir,
		PaperID:     p.PaperID,
		VolumeID:    p.VolumeID,
		Volume:      p.Volume,
		VolumeMeta:  p.VolumeMeta,
		PaperOrder:  p.PaperOrder,
		IncludeHTML: p.IncludeHTML,
	})
}

// trailingID parses the trailing digit run of a directory name, so
// paper003 gives 3 and vol0001 gives 1.
func trailingID(name string) int {
	end := len(name)
	start := end
	for start > 0 && name[start-1] >= '0' && name[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0
	}
	id, _ := strconv.Atoi(name[start:end])
	return id
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}
