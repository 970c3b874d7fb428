// Package volume manages volume metadata and the per-paper metadata
// records that make output directories self-describing.
package volume

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Meta holds the publication metadata of one volume, loaded from
// data/metadata.json and keyed by volume directory name.
type Meta struct {
	PubVolume         string `json:"pubvolume"`
	PubYear           string `json:"pubyear"`
	PubDate           string `json:"pubdate"`
	ConferenceName    string `json:"conferencename"`
	ConferenceEditors string `json:"conferenceeditors"`
	Date              string `json:"date"`
	Description       string `json:"description,omitempty"`

	// Frozen volumes keep the page numbers already in their sources
	// instead of being renumbered on build.
	Frozen bool `json:"frozen,omitempty"`
}

// LoadMetadata reads the volume metadata file, a JSON object mapping
// volume directory names to their metadata.
func LoadMetadata(path string) (map[string]Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading volume metadata: %w", err)
	}

	var meta map[string]Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing volume metadata: %w", err)
	}

	return meta, nil
}

// PaperMetaFile is the per-paper metadata record written next to each
// prepared paper. Its presence marks a directory as a paper.
const PaperMetaFile = "anthology-meta.json"

// PaperMeta is everything needed to rebuild a paper without access to
// the input directory.
type PaperMeta struct {
	InputDir    string `json:"input_dir"`
	PaperID     int    `json:"paperid"`
	VolumeID    int    `json:"volumeid"`
	Volume      string `json:"volume"`
	VolumeMeta  Meta   `json:"volume_meta"`
	PaperOrder  int    `json:"paper_order"`
	IncludeHTML bool   `json:"include_html"`
}

// SavePaperMeta writes the record into outputDir.
func SavePaperMeta(outputDir string, meta PaperMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding paper metadata: %w", err)
	}

	path := filepath.Join(outputDir, PaperMetaFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing paper metadata: %w", err)
	}

	return nil
}

// LoadPaperMeta reads the record from outputDir. A missing file returns
// (nil, nil): the directory is simply not a prepared paper.
func LoadPaperMeta(outputDir string) (*PaperMeta, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, PaperMetaFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading paper metadata: %w", err)
	}

	var meta PaperMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing paper metadata: %w", err)
	}

	return &meta, nil
}
