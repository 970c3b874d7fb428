package paper

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achorg/anthology/internal/volume"
)

const sampleTex = `\documentclass{article}
\title{Mapping the Digital Archive}
\author[1]{Jane Doe}[orcid=0000-0001-2345-6789]
\affiliation{1}{MIT}
\keywords{archives, mapping}
\pubyear{0}
\pubvolume{0}
\pagestart{0}
\pageend{0}
\paperorder{0}
\doi{XXXXX}
\conferencename{TBD}
\conferenceeditors{TBD}
\begin{document}
\begin{abstract}
We map the archive.
\end{abstract}
Body text.
\end{document}
`

var testMeta = volume.Meta{
	PubVolume:         "2",
	PubYear:           "2025",
	PubDate:           "2025-06-15",
	ConferenceName:    "DH2025",
	ConferenceEditors: "A. Editor",
	Date:              "June 2025",
}

// writeInput creates input/vol0002/paper003 with paper.tex and
// bibliography.bib under a temp root and returns the paths.
func writeInput(t *testing.T) (root, inputDir, outputRoot string) {
	t.Helper()
	root = t.TempDir()
	inputDir = filepath.Join(root, "input", "vol0002", "paper003")
	if err := os.MkdirAll(inputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range map[string]string{
		"paper.tex":        sampleTex,
		"bibliography.bib": "@book{x, title={X}}\n",
	} {
		if err := os.WriteFile(filepath.Join(inputDir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	outputRoot = filepath.Join(root, "docs", "volumes")
	return root, inputDir, outputRoot
}

func TestNew(t *testing.T) {
	_, inputDir, outputRoot := writeInput(t)

	p, err := New(inputDir, testMeta, outputRoot)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if p.PaperID != 3 {
		t.Errorf("PaperID = %d, want 3", p.PaperID)
	}
	if p.VolumeID != 2 {
		t.Errorf("VolumeID = %d, want 2", p.VolumeID)
	}
	if p.Volume != "vol0002" {
		t.Errorf("Volume = %q, want vol0002", p.Volume)
	}
	if got := p.Slug(); got != "mapping-digital-archive" {
		t.Errorf("Slug() = %q, want mapping-digital-archive", got)
	}
}

func TestTrailingID(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"paper003", 3},
		{"vol0001", 1},
		{"paper042", 42},
		{"nodigits", 0},
		{"v12suffix", 0},
	}
	for _, tt := range tests {
		if got := trailingID(tt.name); got != tt.want {
			t.Errorf("trailingID(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestAddDOI_ReplacesPlaceholder(t *testing.T) {
	_, inputDir, outputRoot := writeInput(t)
	p, err := New(inputDir, testMeta, outputRoot)
	if err != nil {
		t.Fatal(err)
	}

	newDOI, err := p.AddDOI()
	if err != nil {
		t.Fatalf("AddDOI() error = %v", err)
	}
	if !strings.HasPrefix(newDOI, "10.63744/") {
		t.Errorf("AddDOI() = %q, want generated DOI", newDOI)
	}

	data, err := os.ReadFile(filepath.Join(inputDir, "paper.tex"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `\doi{`+newDOI+`}`) {
		t.Errorf("paper.tex not updated with new DOI")
	}

	// A second run sees the real DOI and leaves it alone.
	again, err := p.AddDOI()
	if err != nil {
		t.Fatalf("AddDOI() second run error = %v", err)
	}
	if again != "" {
		t.Errorf("AddDOI() second run = %q, want unchanged", again)
	}
}

func TestCopyToOutput(t *testing.T) {
	_, inputDir, outputRoot := writeInput(t)
	p, err := New(inputDir, testMeta, outputRoot)
	if err != nil {
		t.Fatal(err)
	}

	if err := p.CopyToOutput(4); err != nil {
		t.Fatalf("CopyToOutput() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(p.OutputDir, "paper.tex"))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, `\paperorder{4}`) {
		t.Errorf("paper order not set:\n%s", content)
	}

	if _, err := os.Stat(filepath.Join(p.OutputDir, "bibliography.bib")); err != nil {
		t.Errorf("bibliography.bib not copied: %v", err)
	}

	meta, err := volume.LoadPaperMeta(p.OutputDir)
	if err != nil {
		t.Fatal(err)
	}
	if meta == nil {
		t.Fatal("paper metadata record not saved")
	}
	if meta.PaperOrder != 4 || meta.VolumeID != 2 {
		t.Errorf("saved meta = %+v", meta)
	}
}

func TestCopyToOutput_TextTransforms(t *testing.T) {
	_, inputDir, outputRoot := writeInput(t)
	tex := strings.Replace(sampleTex, "Body text.", `\paragraph{Heading} with \textdaggerdbl mark`, 1)
	if err := os.WriteFile(filepath.Join(inputDir, "paper.tex"), []byte(tex), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := New(inputDir, testMeta, outputRoot)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.CopyToOutput(1); err != nil {
		t.Fatalf("CopyToOutput() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(p.OutputDir, "paper.tex"))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if strings.Contains(content, `\paragraph`) {
		t.Errorf("\\paragraph not rewritten")
	}
	if !strings.Contains(content, `\textbf{Heading}`) {
		t.Errorf("\\textbf replacement missing:\n%s", content)
	}
	if !strings.Contains(content, "\u2021") {
		t.Errorf("dagger not converted")
	}
}

func TestCopyToOutput_Figures(t *testing.T) {
	_, inputDir, outputRoot := writeInput(t)
	tex := strings.Replace(sampleTex, "Body text.",
		`\includegraphics[width=\textwidth]{images/plot.png}`, 1)
	if err := os.WriteFile(filepath.Join(inputDir, "paper.tex"), []byte(tex), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(inputDir, "images"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inputDir, "images", "plot.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := New(inputDir, testMeta, outputRoot)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.CopyToOutput(1); err != nil {
		t.Fatalf("CopyToOutput() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(p.OutputDir, "figures", "plot.png")); err != nil {
		t.Errorf("figure not copied: %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(p.OutputDir, "paper.tex"))
	if !strings.Contains(string(data), `{figures/plot.png}`) {
		t.Errorf("figure path not rewritten:\n%s", data)
	}
}

func TestAddMetadata(t *testing.T) {
	p := preparedPaper(t)

	if err := p.AddMetadata(10, 25); err != nil {
		t.Fatalf("AddMetadata() error = %v", err)
	}

	md, err := p.Metadata()
	if err != nil {
		t.Fatal(err)
	}
	checks := map[string]string{
		"pubvolume": "2",
		"pubyear":   "2025",
		"pagestart": "10",
		"pageend":   "25",
	}
	for field, want := range checks {
		if got, _ := md.PublicationInfo[field].Scalar(); got != want {
			t.Errorf("%s = %q, want %q", field, got, want)
		}
	}
}

func TestFromOutputDir(t *testing.T) {
	p := preparedPaper(t)

	loaded, err := FromOutputDir(p.OutputDir)
	if err != nil {
		t.Fatalf("FromOutputDir() error = %v", err)
	}
	if loaded == nil {
		t.Fatal("FromOutputDir() = nil")
	}
	if loaded.VolumeID != p.VolumeID || loaded.PaperID != p.PaperID || loaded.Volume != p.Volume {
		t.Errorf("loaded = %+v, want %+v", loaded, p)
	}
}

func TestFromOutputDir_NotAPaper(t *testing.T) {
	loaded, err := FromOutputDir(t.TempDir())
	if err != nil {
		t.Fatalf("FromOutputDir() error = %v", err)
	}
	if loaded != nil {
		t.Errorf("FromOutputDir() = %+v, want nil", loaded)
	}
}

func TestCreateBibTeX(t *testing.T) {
	p := preparedPaper(t)
	if err := p.AddMetadata(10, 25); err != nil {
		t.Fatal(err)
	}

	// Give the paper a real DOI so the citation key is meaningful.
	path := filepath.Join(p.OutputDir, "paper.tex")
	data, _ := os.ReadFile(path)
	content := strings.Replace(string(data), `\doi{XXXXX}`, `\doi{10.63744/aBcDeF123456}`, 1)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := p.CreateBibTeX("Anthology for Computers and the Humanities"); err != nil {
		t.Fatalf("CreateBibTeX() error = %v", err)
	}

	bib, err := os.ReadFile(filepath.Join(p.OutputDir, "10.63744@aBcDeF123456.bib"))
	if err != nil {
		t.Fatalf("citation file missing: %v", err)
	}
	entry := string(bib)
	for _, want := range []string{
		"@article{10.63744@aBcDeF123456,",
		"author = {Jane Doe}",
		"pages = {10--25}",
		"volume = {2}",
	} {
		if !strings.Contains(entry, want) {
			t.Errorf("entry missing %q:\n%s", want, entry)
		}
	}
}

func TestAbstract(t *testing.T) {
	p := preparedPaper(t)
	if got := p.Abstract(); got != "We map the archive." {
		t.Errorf("Abstract() = %q", got)
	}
}

func TestValidateInput(t *testing.T) {
	_, inputDir, outputRoot := writeInput(t)
	p, err := New(inputDir, testMeta, outputRoot)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.ValidateInput(); err != nil {
		t.Errorf("ValidateInput() error = %v", err)
	}

	if err := os.Remove(filepath.Join(inputDir, "bibliography.bib")); err != nil {
		t.Fatal(err)
	}
	if err := p.ValidateInput(); err == nil {
		t.Error("ValidateInput() error = nil, want missing-file error")
	}
}

func TestDiscoverInput(t *testing.T) {
	root, _, outputRoot := writeInput(t)

	// Second paper in the same volume, plus a first volume.
	for _, dir := range []string{
		filepath.Join(root, "input", "vol0002", "paper001"),
		filepath.Join(root, "input", "vol0001", "paper001"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "paper.tex"), []byte(sampleTex), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	meta := map[string]volume.Meta{
		"vol0001": {PubVolume: "1", PubYear: "2024"},
		"vol0002": testMeta,
	}

	papers, err := DiscoverInput(filepath.Join(root, "input"), outputRoot, meta)
	if err != nil {
		t.Fatalf("DiscoverInput() error = %v", err)
	}
	if len(papers) != 3 {
		t.Fatalf("papers = %d, want 3", len(papers))
	}

	// Sorted by volume then paper ID.
	order := [][2]int{{1, 1}, {2, 1}, {2, 3}}
	for i, want := range order {
		if papers[i].VolumeID != want[0] || papers[i].PaperID != want[1] {
			t.Errorf("papers[%d] = vol %d paper %d, want vol %d paper %d",
				i, papers[i].VolumeID, papers[i].PaperID, want[0], want[1])
		}
	}
}

func TestDiscoverInput_UnknownVolume(t *testing.T) {
	root, _, outputRoot := writeInput(t)

	_, err := DiscoverInput(filepath.Join(root, "input"), outputRoot, map[string]volume.Meta{})
	if err == nil {
		t.Fatal("DiscoverInput() error = nil, want unknown-volume error")
	}
}

func TestDiscoverOutput(t *testing.T) {
	p := preparedPaper(t)
	outputRoot := filepath.Dir(filepath.Dir(p.OutputDir))

	papers, err := DiscoverOutput(outputRoot)
	if err != nil {
		t.Fatalf("DiscoverOutput() error = %v", err)
	}
	if len(papers) != 1 {
		t.Fatalf("papers = %d, want 1", len(papers))
	}
	if papers[0].Volume != "vol0002" {
		t.Errorf("Volume = %q", papers[0].Volume)
	}
}

func TestDiscoverOutput_MissingRoot(t *testing.T) {
	papers, err := DiscoverOutput(filepath.Join(t.TempDir(), "none"))
	if err != nil {
		t.Fatalf("DiscoverOutput() error = %v", err)
	}
	if papers != nil {
		t.Errorf("papers = %v, want nil", papers)
	}
}

func TestNormalizeVolume(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"vol0001", "vol0001"},
		{"0001", "vol0001"},
		{"1", "vol0001"},
		{"12", "vol0012"},
	}
	for _, tt := range tests {
		if got := NormalizeVolume(tt.in); got != tt.want {
			t.Errorf("NormalizeVolume(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilterVolume(t *testing.T) {
	papers := []*Paper{
		{Volume: "vol0001", VolumeID: 1},
		{Volume: "vol0002", VolumeID: 2},
	}

	kept := FilterVolume(papers, "2")
	if len(kept) != 1 || kept[0].Volume != "vol0002" {
		t.Errorf("FilterVolume() = %+v", kept)
	}
}

// preparedPaper builds an input paper and runs CopyToOutput.
func preparedPaper(t *testing.T) *Paper {
	t.Helper()
	_, inputDir, outputRoot := writeInput(t)
	p, err := New(inputDir, testMeta, outputRoot)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.CopyToOutput(1); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestCheckPDFDOI(t *testing.T) {
	p := preparedPaper(t)

	// No renamed PDF on disk yet.
	if err := p.CheckPDFDOI(); err != nil {
		t.Errorf("CheckPDFDOI() without pdf = %v, want nil", err)
	}

	// A file that cannot be parsed passes too, text scanning is best
	// effort.
	bad := filepath.Join(p.OutputDir, "XXXXX.pdf")
	if err := os.WriteFile(bad, []byte("not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := p.CheckPDFDOI(); err != nil {
		t.Errorf("CheckPDFDOI() with unparseable pdf = %v, want nil", err)
	}
}

func TestCheckPDFDOI_NoDOI(t *testing.T) {
	p := &Paper{OutputDir: t.TempDir()}
	if err := p.CheckPDFDOI(); err != nil {
		t.Errorf("CheckPDFDOI() = %v, want nil for paper without doi", err)
	}
}
