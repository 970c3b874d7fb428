package volume

import (
	"os"
	"path/filepath"
	"testing"
)

const metadataJSON = `{
  "vol0001": {
    "pubvolume": "1",
    "pubyear": "2024",
    "pubdate": "2024-03-01",
    "conferencename": "DH2024",
    "conferenceeditors": "A. Editor and B. Editor",
    "date": "March 2024",
    "frozen": true
  },
  "vol0002": {
    "pubvolume": "2",
    "pubyear": "2025",
    "pubdate": "2025-06-15",
    "conferencename": "—",
    "conferenceeditors": "—",
    "date": "June 2025"
  }
}`

func TestLoadMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	if err := os.WriteFile(path, []byte(metadataJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	meta, err := LoadMetadata(path)
	if err != nil {
		t.Fatalf("LoadMetadata() error = %v", err)
	}

	v1, ok := meta["vol0001"]
	if !ok {
		t.Fatal("vol0001 missing")
	}
	if v1.PubVolume != "1" || v1.PubYear != "2024" {
		t.Errorf("vol0001 = %+v", v1)
	}
	if !v1.Frozen {
		t.Error("vol0001.Frozen = false, want true")
	}
	if meta["vol0002"].Frozen {
		t.Error("vol0002.Frozen = true, want false (absent defaults)")
	}
}

func TestLoadMetadata_Missing(t *testing.T) {
	if _, err := LoadMetadata(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("LoadMetadata() error = nil, want read error")
	}
}

func TestPaperMetaRoundTrip(t *testing.T) {
	dir := t.TempDir()

	meta := PaperMeta{
		InputDir: "input/vol0001/paper003",
		PaperID:  3,
		VolumeID: 1,
		Volume:   "vol0001",
		VolumeMeta: Meta{
			PubVolume: "1",
			PubYear:   "2024",
		},
		PaperOrder:  2,
		IncludeHTML: true,
	}
	if err := SavePaperMeta(dir, meta); err != nil {
		t.Fatalf("SavePaperMeta() error = %v", err)
	}

	loaded, err := LoadPaperMeta(dir)
	if err != nil {
		t.Fatalf("LoadPaperMeta() error = %v", err)
	}
	if loaded == nil {
		t.Fatal("LoadPaperMeta() = nil, want record")
	}
	if *loaded != meta {
		t.Errorf("round trip = %+v, want %+v", *loaded, meta)
	}
}

func TestLoadPaperMeta_AbsentIsNotAnError(t *testing.T) {
	loaded, err := LoadPaperMeta(t.TempDir())
	if err != nil {
		t.Fatalf("LoadPaperMeta() error = %v", err)
	}
	if loaded != nil {
		t.Errorf("LoadPaperMeta() = %+v, want nil", loaded)
	}
}
