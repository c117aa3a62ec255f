// Package config loads the optional per-project configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/farcloser/primordium/fault"
	"gopkg.in/yaml.v3"

	"github.com/farcloser/pyrmon/internal/integration/pyright"
	"github.com/farcloser/pyrmon/internal/report"
)

// FileName is looked up in the project root.
const FileName = ".pyrmon.yaml"

// DefaultResultsDir is relative to the project root.
const DefaultResultsDir = "mcp_results"

var errNegativeMaxDisplay = errors.New("max_display must not be negative")

// Config holds settings shared by every run in a project. Command line flags and environment variables take
// precedence over it.
type Config struct {
	// ResultsDir receives run artifacts. Relative paths are resolved against the project root.
	ResultsDir string `yaml:"results_dir"`
	// Analyzer is the pyright binary, as a name looked up in PATH or a path.
	Analyzer string `yaml:"analyzer"`
	// MaxDisplay caps the detailed terminal listing, 0 lists everything.
	MaxDisplay int `yaml:"max_display"`
	// Title heads the Markdown summary.
	Title string `yaml:"title"`
	// Compress keeps a gzipped copy of the raw analyzer output.
	Compress bool `yaml:"compress"`
	// Color is one of auto, always, never.
	Color string `yaml:"color"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		ResultsDir: DefaultResultsDir,
		Analyzer:   pyright.DefaultBinary,
		MaxDisplay: report.DefaultMaxDisplay,
		Title:      report.DefaultTitle,
		Color:      string(report.ColorAuto),
	}
}

// Load reads FileName from projectRoot over the defaults. A missing file is not an error.
// Unknown keys are rejected, to catch typos.
func Load(projectRoot string) (Config, error) {
	cfg := Default()

	path := filepath.Join(projectRoot, FileName)

	data, err := os.ReadFile(path) //nolint:gosec // project configuration file
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}

		return cfg, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	if c.MaxDisplay < 0 {
		return fmt.Errorf("%w: got %d", errNegativeMaxDisplay, c.MaxDisplay)
	}

	if _, err := report.ParseColorMode(c.Color); err != nil {
		return err
	}

	return nil
}

// ResolveResultsDir returns ResultsDir, joined to projectRoot when relative.
func (c Config) ResolveResultsDir(projectRoot string) string {
	if filepath.IsAbs(c.ResultsDir) {
		return c.ResultsDir
	}

	return filepath.Join(projectRoot, c.ResultsDir)
}
