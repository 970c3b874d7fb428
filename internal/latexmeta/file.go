package latexmeta

import (
	"fmt"
	"os"
)

// ExtractFile reads a LaTeX file and extracts its metadata. It is a thin
// wrapper over ExtractAll for callers that start from a path; the
// extraction itself never touches the filesystem.
func ExtractFile(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file %s not found", path)
		}
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return ExtractAll(string(data)), nil
}
