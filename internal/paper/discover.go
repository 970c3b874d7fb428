package paper

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/achorg/anthology/internal/volume"
)

// DiscoverInput scans the input root for volume directories and their
// paper directories, building a Paper for each. Volume metadata is looked
// up by volume directory name; an unknown volume is an error so stale
// metadata surfaces early. Results are sorted by volume then paper ID.
func DiscoverInput(inputRoot, outputRoot string, meta map[string]volume.Meta) ([]*Paper, error) {
	volumes, err := subdirs(inputRoot)
	if err != nil {
		return nil, err
	}

	var papers []*Paper
	for _, vol := range volumes {
		vmeta, ok := meta[filepath.Base(vol)]
		if !ok {
			return nil, fmt.Errorf("no metadata for volume %s", filepath.Base(vol))
		}

		paperDirs, err := subdirs(vol)
		if err != nil {
			return nil, err
		}
		for _, dir := range paperDirs {
			p, err := New(dir, vmeta, outputRoot)
			if err != nil {
				return nil, err
			}
			papers = append(papers, p)
		}
	}

	sortPapers(papers)
	return papers, nil
}

// DiscoverOutput scans the output root for prepared papers, identified by
// their metadata record. A missing output root yields an empty list.
func DiscoverOutput(outputRoot string) ([]*Paper, error) {
	volumes, err := subdirs(outputRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var papers []*Paper
	for _, vol := range volumes {
		paperDirs, err := subdirs(vol)
		if err != nil {
			return nil, err
		}
		for _, dir := range paperDirs {
			p, err := FromOutputDir(dir)
			if err != nil {
				return nil, err
			}
			if p != nil {
				papers = append(papers, p)
			}
		}
	}

	sortPapers(papers)
	return papers, nil
}

// FilterVolume keeps the papers whose volume name starts with the given
// prefix. Accepts "vol0001", "0001", or "1".
func FilterVolume(papers []*Paper, vol string) []*Paper {
	prefix := NormalizeVolume(vol)

	var kept []*Paper
	for _, p := range papers {
		if len(p.Volume) >= len(prefix) && p.Volume[:len(prefix)] == prefix {
			kept = append(kept, p)
		}
	}
	return kept
}

// NormalizeVolume turns a bare volume number into its directory prefix:
// "1" and "0001" both become "vol0001"; names already starting with "vol"
// pass through.
func NormalizeVolume(vol string) string {
	if len(vol) >= 3 && vol[:3] == "vol" {
		return vol
	}
	n := 0
	fmt.Sscanf(vol, "%d", &n)
	return fmt.Sprintf("vol%04d", n)
}

// Volumes returns the distinct volume names of the papers, sorted.
func Volumes(papers []*Paper) []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range papers {
		if !seen[p.Volume] {
			seen[p.Volume] = true
			names = append(names, p.Volume)
		}
	}
	sort.Strings(names)
	return names
}

func sortPapers(papers []*Paper) {
	sort.Slice(papers, func(i, j int) bool { return papers[i].Less(papers[j]) })
}

func subdirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(root, entry.Name()))
		}
	}
	return dirs, nil
}
