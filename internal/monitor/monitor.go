// Package monitor runs the invoke, classify, report pipeline.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/pyrmon"
	"github.com/farcloser/pyrmon/internal/config"
	"github.com/farcloser/pyrmon/internal/integration/npm"
	"github.com/farcloser/pyrmon/internal/integration/pyright"
	"github.com/farcloser/pyrmon/internal/report"
)

// Config drives a Monitor. Zero values fall back to sensible defaults.
type Config struct {
	// ProjectRoot is where pyright runs, and where it picks its configuration from.
	ProjectRoot string
	// ResultsDir receives the artifacts of each run.
	ResultsDir string
	// Analyzer is the pyright binary name or path.
	Analyzer string
	// Install allows installing pyright through npm when it is missing.
	Install bool
	// Npm overrides the npm binary used by Install.
	Npm string
	// Filter narrows down what gets counted and reported.
	Filter pyrmon.FilterOptions
	// Title heads the Markdown summary.
	Title string
	// Compress keeps a gzipped copy of the raw output.
	Compress bool
	// Now stamps artifact names. Defaults to time.Now.
	Now func() time.Time
}

// Result is the outcome of a run.
type Result struct {
	// Target is the analyzed file, empty for a whole project run.
	Target  string
	Report  *pyright.Report
	Summary pyrmon.Summary
	// Files is only computed for whole project runs.
	Files []pyrmon.FileStats

	RawPath      string
	SummaryPath  string
	MarkdownPath string
	// CompressedPath is set when compression is enabled.
	CompressedPath string
}

// Monitor is stateless across runs: every Run starts from scratch against the filesystem.
type Monitor struct {
	cfg Config
}

// New validates cfg and returns a Monitor.
func New(cfg Config) (*Monitor, error) {
	if err := cfg.Filter.Validate(); err != nil {
		return nil, err
	}

	if cfg.ResultsDir == "" {
		cfg.ResultsDir = filepath.Join(cfg.ProjectRoot, config.DefaultResultsDir)
	}

	if cfg.Analyzer == "" {
		cfg.Analyzer = pyright.DefaultBinary
	}

	if cfg.Title == "" {
		cfg.Title = report.DefaultTitle
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Monitor{cfg: cfg}, nil
}

// Run analyzes target, or the whole project when target is empty, and persists the results.
// It either completes every step or returns an error without writing a report.
func (m *Monitor) Run(ctx context.Context, target string) (*Result, error) {
	if target != "" {
		if _, err := os.Stat(target); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", pyrmon.ErrTargetNotFound, target, err)
		}
	}

	if err := m.ensureAnalyzer(ctx); err != nil {
		return nil, err
	}

	store, err := report.NewStore(m.cfg.ResultsDir)
	if err != nil {
		return nil, err
	}

	name := report.RunName(target, m.cfg.Now())

	rep, raw, err := pyright.Run(ctx, pyright.Options{
		Binary: m.cfg.Analyzer,
		Target: target,
		Dir:    m.cfg.ProjectRoot,
	})
	if err != nil {
		return nil, m.runError(store, name, raw, err)
	}

	result, err := m.classify(target, rep)
	if err != nil {
		return nil, err
	}

	if err := m.persist(store, name, raw, result); err != nil {
		return nil, err
	}

	return result, nil
}

// Load re-classifies a previously saved raw pyright document, without running the analyzer or writing anything.
func (m *Monitor) Load(path string) (*Result, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // user-provided results file
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	rep, err := pyright.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", pyrmon.ErrParse, path, err)
	}

	result, err := m.classify("", rep)
	if err != nil {
		return nil, err
	}

	result.RawPath = path

	return result, nil
}

func (m *Monitor) ensureAnalyzer(ctx context.Context) error {
	version, err := pyright.Version(ctx, m.cfg.Analyzer)
	if err == nil {
		slog.Debug("monitor.ensureAnalyzer", "version", version)

		return nil
	}

	if !m.cfg.Install {
		return fmt.Errorf("%w: %w", pyrmon.ErrToolNotFound, err)
	}

	slog.Info("pyright not found, installing it", "package", pyright.Package)

	if installErr := npm.Install(ctx, m.cfg.Npm, pyright.Package); installErr != nil {
		return fmt.Errorf("%w: %w", pyrmon.ErrToolNotFound, installErr)
	}

	if version, err = pyright.Version(ctx, m.cfg.Analyzer); err != nil {
		return fmt.Errorf("%w: %w", pyrmon.ErrToolNotFound, err)
	}

	slog.Debug("monitor.ensureAnalyzer", "version", version, "installed", true)

	return nil
}

// runError maps an analyzer failure onto the error taxonomy. Unparseable output is saved, so that it can be
// looked at.
func (m *Monitor) runError(store *report.Store, name string, raw []byte, err error) error {
	switch {
	case errors.Is(err, fault.ErrMissingRequirements):
		return fmt.Errorf("%w: %w", pyrmon.ErrToolNotFound, err)
	case errors.Is(err, fault.ErrInvalidJSON):
		path, saveErr := store.SaveOutput(name, raw)
		if saveErr != nil {
			return fmt.Errorf("%w: raw output could not be saved (%w): %w", pyrmon.ErrParse, saveErr, err)
		}

		return fmt.Errorf("%w: raw output saved to %s: %w", pyrmon.ErrParse, path, err)
	}

	return fmt.Errorf("running pyright: %w", err)
}

func (m *Monitor) classify(target string, rep *pyright.Report) (*Result, error) {
	diags, err := pyrmon.Filter(pyrmon.Extract(rep), m.cfg.Filter)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Target:  target,
		Report:  rep,
		Summary: pyrmon.Summarize(diags),
	}

	if target == "" {
		result.Files = pyrmon.ByFile(result.Summary.Diagnostics)
	}

	slog.Debug("monitor.classify",
		"errors", result.Summary.Errors,
		"warnings", result.Summary.Warnings,
		"information", result.Summary.Information,
		"total", result.Summary.Total,
	)

	return result, nil
}

// persist writes every artifact of a run, or none: files already written are removed when a later one fails.
func (m *Monitor) persist(store *report.Store, name string, raw []byte, result *Result) (err error) {
	var written []string

	defer func() {
		if err == nil {
			return
		}

		for _, path := range written {
			if removeErr := os.Remove(path); removeErr != nil {
				slog.Warn("unable to remove partial result", "path", path, "error", removeErr)
			}
		}

		result.RawPath, result.SummaryPath, result.MarkdownPath, result.CompressedPath = "", "", "", ""
	}()

	if result.RawPath, err = store.SaveJSON(name, raw); err != nil {
		return err
	}

	written = append(written, result.RawPath)

	doc := &report.Document{
		Target:      result.Target,
		GeneratedAt: m.cfg.Now().UTC(),
		Summary:     result.Summary,
		Files:       result.Files,
	}

	if result.SummaryPath, err = store.SaveSummary(name+"_summary", doc); err != nil {
		return err
	}

	written = append(written, result.SummaryPath)

	if result.MarkdownPath, err = store.SaveMarkdown(name+"_summary", report.Markdown(result.Summary, m.cfg.Title)); err != nil {
		return err
	}

	written = append(written, result.MarkdownPath)

	if m.cfg.Compress {
		if result.CompressedPath, err = report.Compress(result.RawPath); err != nil {
			return err
		}
	}

	return nil
}
