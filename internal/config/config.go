// Package config handles site configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents site configuration stored in anthology.yml at the
// project root. Every field has a default, so a missing file is not an
// error.
type Config struct {
	BaseURL       string `yaml:"base_url,omitempty"`
	JournalTitle  string `yaml:"journal_title,omitempty"`
	JournalAbbrev string `yaml:"journal_abbrev,omitempty"`
	JournalDOI    string `yaml:"journal_doi,omitempty"`
	DOIPrefix     string `yaml:"doi_prefix,omitempty"`
	DepositorName string `yaml:"depositor_name,omitempty"`

	InputDir  string `yaml:"input_dir,omitempty"`
	OutputDir string `yaml:"output_dir,omitempty"`
	DataDir   string `yaml:"data_dir,omitempty"`
}

const (
	// ConfigFile is the site config file name at the project root.
	ConfigFile = "anthology.yml"

	// CatalogFile is the SQLite catalog file name under the data directory.
	CatalogFile = "catalog.db"

	// MetadataFile is the volume metadata file name under the data directory.
	MetadataFile = "metadata.json"

	// depositorEmailEnv names the env var carrying the Crossref depositor
	// email. Kept out of the yaml file so it can live in .env.
	depositorEmailEnv = "ANTHOLOGY_DEPOSITOR_EMAIL"
)

// Default returns the configuration used when anthology.yml is absent.
func Default() *Config {
	return &Config{
		BaseURL:       "https://anthology.ach.org",
		JournalTitle:  "Anthology of Computers and the Humanities",
		JournalAbbrev: "Anth. Comp. Hum.",
		JournalDOI:    "10.63744/GJCCSMz4QBbD",
		DOIPrefix:     "10.63744",
		DepositorName: "WEB-FORM",
		InputDir:      "input",
		OutputDir:     filepath.Join("docs", "volumes"),
		DataDir:       "data",
	}
}

// Load reads anthology.yml from the given project root. A missing file
// yields the defaults; fields absent from the file keep their default
// values.
func Load(root string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(root, ConfigFile))
	if err != nil {
		if os.IsNotExist(err) {
			cfg.resolvePaths(root)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.resolvePaths(root)
	return cfg, nil
}

// resolvePaths anchors relative directory settings at the project root
// so commands behave the same regardless of the working directory.
func (c *Config) resolvePaths(root string) {
	for _, dir := range []*string{&c.InputDir, &c.OutputDir, &c.DataDir} {
		if !filepath.IsAbs(*dir) {
			*dir = filepath.Join(root, *dir)
		}
	}
}

// Save writes the configuration to anthology.yml at the given root.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(root, ConfigFile), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// MetadataPath returns the path to the volume metadata file.
func (c *Config) MetadataPath() string {
	return filepath.Join(c.DataDir, MetadataFile)
}

// CatalogPath returns the path to the SQLite catalog.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.DataDir, CatalogFile)
}

// XMLDir returns the directory Crossref deposit files are written to.
func (c *Config) XMLDir() string {
	return filepath.Join(c.DataDir, "xml")
}

// DepositorEmail returns the Crossref depositor email from the
// environment, typically loaded from .env.
func DepositorEmail() string {
	return os.Getenv(depositorEmailEnv)
}
