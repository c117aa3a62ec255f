package report

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/farcloser/pyrmon"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644

	timestampLayout = "20060102_150405"
)

// Store persists run artifacts in a results directory. Files from earlier runs are left alone, so that they can
// be diffed to track progress over time.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("%w: %w", pyrmon.ErrFilesystem, err)
	}

	return &Store{dir: dir}, nil
}

// Dir is the results directory.
func (s *Store) Dir() string {
	return s.dir
}

// RunName names the artifacts of a run: pyright_project_<timestamp> for a project, pyright_<file>_<timestamp>
// for a single file.
func RunName(target string, now time.Time) string {
	subject := "project"
	if target != "" {
		subject = filepath.Base(target)
	}

	return "pyright_" + subject + "_" + now.Format(timestampLayout)
}

// Document is the derived summary, as persisted next to the raw analyzer output.
type Document struct {
	Target      string             `json:"target,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
	Summary     pyrmon.Summary     `json:"summary"`
	Files       []pyrmon.FileStats `json:"files,omitempty"`
}

// SaveJSON writes a JSON document as <name>.json, re-indented for readability.
func (s *Store) SaveJSON(name string, raw []byte) (string, error) {
	var indented bytes.Buffer
	if err := json.Indent(&indented, raw, "", "  "); err != nil {
		return "", fmt.Errorf("%w: %s is not valid JSON: %w", pyrmon.ErrParse, name, err)
	}

	indented.WriteByte('\n')

	return s.write(name+".json", indented.Bytes())
}

// SaveOutput writes bytes verbatim as <name>.out. Used for analyzer output that could not be parsed.
func (s *Store) SaveOutput(name string, raw []byte) (string, error) {
	return s.write(name+".out", raw)
}

// SaveSummary writes the derived summary as <name>.json.
func (s *Store) SaveSummary(name string, doc *Document) (string, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %w", pyrmon.ErrFilesystem, err)
	}

	return s.write(name+".json", append(data, '\n'))
}

// SaveMarkdown writes a rendered Markdown summary as <name>.md.
func (s *Store) SaveMarkdown(name, text string) (string, error) {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	return s.write(name+".md", []byte(text))
}

func (s *Store) write(fileName string, data []byte) (string, error) {
	path := filepath.Join(s.dir, fileName)

	if err := os.WriteFile(path, data, filePerm); err != nil {
		return "", fmt.Errorf("%w: %w", pyrmon.ErrFilesystem, err)
	}

	return path, nil
}

// Compress writes a gzipped copy of path next to it and returns the new path. The original is kept.
// A failed write leaves no .gz file behind.
func Compress(path string) (_ string, err error) {
	data, err := os.ReadFile(path) //nolint:gosec // reading our own output file
	if err != nil {
		return "", fmt.Errorf("%w: %w", pyrmon.ErrFilesystem, err)
	}

	gzPath := path + ".gz"

	gzFile, err := os.Create(gzPath) //nolint:gosec // path derives from our results directory
	if err != nil {
		return "", fmt.Errorf("%w: %w", pyrmon.ErrFilesystem, err)
	}

	defer func() {
		if closeErr := gzFile.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("%w: %w", pyrmon.ErrFilesystem, closeErr)
		}

		if err != nil {
			_ = os.Remove(gzPath)
		}
	}()

	gzWriter := gzip.NewWriter(gzFile)

	if _, err = gzWriter.Write(data); err != nil {
		return "", fmt.Errorf("%w: %w", pyrmon.ErrFilesystem, err)
	}

	if err = gzWriter.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", pyrmon.ErrFilesystem, err)
	}

	return gzPath, nil
}
