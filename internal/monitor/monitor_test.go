package monitor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/farcloser/pyrmon"
	"github.com/farcloser/pyrmon/internal/monitor"
)

const document = `{"version":"1.1.380","generalDiagnostics":[` +
	`{"severity":"error","file":"a.py","range":{"start":{"line":4,"character":2}},"message":"x is not defined"},` +
	`{"severity":"warning","file":"b.py","range":{"start":{"line":0,"character":0}},"message":"unused"},` +
	`{"severity":"error","file":"a.py","range":{"start":{"line":9,"character":0}},"message":"bad call"}]}`

func fixedNow() time.Time {
	return time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
}

// fakeAnalyzer answers --version, and prints stdout for anything else, exiting with exitCode.
func fakeAnalyzer(t *testing.T, stdout string, exitCode int) string {
	t.Helper()

	dir := t.TempDir()
	payload := filepath.Join(dir, "payload")
	gt.NoError(t, os.WriteFile(payload, []byte(stdout), 0o600)).Required()

	script := "#!/bin/sh\n" +
		"if [ \"$1\" = \"--version\" ]; then echo 'pyright 1.1.380'; exit 0; fi\n" +
		"cat " + payload + "\n" +
		"exit " + strconv.Itoa(exitCode) + "\n"

	bin := filepath.Join(dir, "pyright")
	gt.NoError(t, os.WriteFile(bin, []byte(script), 0o755)).Required()

	return bin
}

func newMonitor(t *testing.T, cfg monitor.Config) *monitor.Monitor {
	t.Helper()

	if cfg.ProjectRoot == "" {
		cfg.ProjectRoot = t.TempDir()
	}

	cfg.Now = fixedNow

	mon, err := monitor.New(cfg)
	gt.NoError(t, err).Required()

	return mon
}

func TestRunProject(t *testing.T) {
	root := t.TempDir()
	mon := newMonitor(t, monitor.Config{ProjectRoot: root, Analyzer: fakeAnalyzer(t, document, 1)})

	result, err := mon.Run(context.Background(), "")
	gt.NoError(t, err).Required()

	gt.Equal(t, result.Summary.Errors, 2)
	gt.Equal(t, result.Summary.Warnings, 1)
	gt.Equal(t, result.Summary.Total, 3)
	gt.Equal(t, len(result.Files), 2)
	gt.Equal(t, result.Files[0].File, "a.py")

	resultsDir := filepath.Join(root, "mcp_results")
	gt.Equal(t, result.RawPath, filepath.Join(resultsDir, "pyright_project_20260506_070809.json"))
	gt.Equal(t, result.SummaryPath, filepath.Join(resultsDir, "pyright_project_20260506_070809_summary.json"))
	gt.Equal(t, result.MarkdownPath, filepath.Join(resultsDir, "pyright_project_20260506_070809_summary.md"))
	gt.Equal(t, result.CompressedPath, "")

	markdown, err := os.ReadFile(result.MarkdownPath)
	gt.NoError(t, err).Required()
	gt.S(t, string(markdown)).Contains("### 1. [ERROR] a.py:5:3\nx is not defined\n")
	gt.S(t, string(markdown)).Contains("### 2. [WARNING] b.py:1:1\nunused\n")

	raw, err := os.ReadFile(result.RawPath)
	gt.NoError(t, err).Required()
	gt.S(t, string(raw)).Contains(`"generalDiagnostics": [`)
}

func TestRunFile(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "a.py")
	gt.NoError(t, os.WriteFile(target, []byte("print(x)\n"), 0o600)).Required()

	mon := newMonitor(t, monitor.Config{
		ProjectRoot: root,
		ResultsDir:  filepath.Join(root, "out"),
		Analyzer:    fakeAnalyzer(t, document, 1),
		Compress:    true,
	})

	result, err := mon.Run(context.Background(), target)
	gt.NoError(t, err).Required()

	gt.Equal(t, result.Target, target)
	gt.Equal(t, len(result.Files), 0)
	gt.Equal(t, filepath.Base(result.RawPath), "pyright_a.py_20260506_070809.json")
	gt.Equal(t, result.CompressedPath, result.RawPath+".gz")

	_, err = os.Stat(result.CompressedPath)
	gt.NoError(t, err)
}

func TestRunFilter(t *testing.T) {
	mon := newMonitor(t, monitor.Config{
		Analyzer: fakeAnalyzer(t, document, 1),
		Filter:   pyrmon.FilterOptions{Severity: "WARNING"},
	})

	result, err := mon.Run(context.Background(), "")
	gt.NoError(t, err).Required()
	gt.Equal(t, result.Summary.Errors, 0)
	gt.Equal(t, result.Summary.Warnings, 1)
	gt.Equal(t, result.Summary.Total, 1)
}

func TestRunNoDiagnostics(t *testing.T) {
	mon := newMonitor(t, monitor.Config{Analyzer: fakeAnalyzer(t, `{"generalDiagnostics":[]}`, 0)})

	result, err := mon.Run(context.Background(), "")
	gt.NoError(t, err).Required()
	gt.False(t, result.Summary.HasIssues())

	markdown, err := os.ReadFile(result.MarkdownPath)
	gt.NoError(t, err).Required()
	gt.False(t, strings.Contains(string(markdown), "Detailed Issues"))
}

func TestRunFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("missing target", func(t *testing.T) {
		mon := newMonitor(t, monitor.Config{Analyzer: fakeAnalyzer(t, document, 1)})

		_, err := mon.Run(ctx, filepath.Join(t.TempDir(), "missing.py"))
		gt.True(t, errors.Is(err, pyrmon.ErrTargetNotFound))
	})

	t.Run("missing analyzer", func(t *testing.T) {
		root := t.TempDir()
		mon := newMonitor(t, monitor.Config{ProjectRoot: root, Analyzer: filepath.Join(root, "pyright")})

		_, err := mon.Run(ctx, "")
		gt.True(t, errors.Is(err, pyrmon.ErrToolNotFound))
		gt.S(t, err.Error()).Contains("npm install -g pyright")

		_, statErr := os.Stat(filepath.Join(root, "mcp_results"))
		gt.True(t, errors.Is(statErr, os.ErrNotExist))
	})

	t.Run("unparseable output is kept", func(t *testing.T) {
		root := t.TempDir()
		mon := newMonitor(t, monitor.Config{ProjectRoot: root, Analyzer: fakeAnalyzer(t, "Segmentation fault", 0)})

		_, err := mon.Run(ctx, "")
		gt.True(t, errors.Is(err, pyrmon.ErrParse))

		saved := filepath.Join(root, "mcp_results", "pyright_project_20260506_070809.out")
		gt.S(t, err.Error()).Contains(saved)

		data, readErr := os.ReadFile(saved)
		gt.NoError(t, readErr).Required()
		gt.Equal(t, string(data), "Segmentation fault")

		entries, readErr := os.ReadDir(filepath.Join(root, "mcp_results"))
		gt.NoError(t, readErr).Required()
		gt.Equal(t, len(entries), 1)
	})

	t.Run("results directory blocked", func(t *testing.T) {
		root := t.TempDir()
		blocker := filepath.Join(root, "results")
		gt.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600)).Required()

		mon := newMonitor(t, monitor.Config{
			ProjectRoot: root,
			ResultsDir:  blocker,
			Analyzer:    fakeAnalyzer(t, document, 1),
		})

		_, err := mon.Run(ctx, "")
		gt.True(t, errors.Is(err, pyrmon.ErrFilesystem))
	})

	t.Run("failed write leaves no report behind", func(t *testing.T) {
		root := t.TempDir()
		results := filepath.Join(root, "mcp_results")
		blocker := filepath.Join(results, "pyright_project_20260506_070809_summary.md")
		gt.NoError(t, os.MkdirAll(blocker, 0o755)).Required()

		mon := newMonitor(t, monitor.Config{ProjectRoot: root, Analyzer: fakeAnalyzer(t, document, 1)})

		result, err := mon.Run(ctx, "")
		gt.True(t, errors.Is(err, pyrmon.ErrFilesystem))
		gt.V(t, result).Nil()

		entries, readErr := os.ReadDir(results)
		gt.NoError(t, readErr).Required()
		gt.Equal(t, len(entries), 1)
		gt.Equal(t, entries[0].Name(), filepath.Base(blocker))
	})

	t.Run("invalid filter", func(t *testing.T) {
		_, err := monitor.New(monitor.Config{Filter: pyrmon.FilterOptions{FilePattern: "[a-"}})
		gt.Error(t, err)

		_, err = monitor.New(monitor.Config{Filter: pyrmon.FilterOptions{Severity: "errors"}})
		gt.Error(t, err)
	})
}

func TestRunInstall(t *testing.T) {
	root := t.TempDir()
	analyzer := filepath.Join(root, "bin", "pyright")
	gt.NoError(t, os.MkdirAll(filepath.Dir(analyzer), 0o755)).Required()

	// Installing drops a working fake analyzer in place.
	source := fakeAnalyzer(t, document, 1)
	npmScript := "#!/bin/sh\ncp " + source + " " + analyzer + "\n"
	npmBin := filepath.Join(t.TempDir(), "npm")
	gt.NoError(t, os.WriteFile(npmBin, []byte(npmScript), 0o755)).Required()

	mon := newMonitor(t, monitor.Config{ProjectRoot: root, Analyzer: analyzer, Install: true, Npm: npmBin})

	result, err := mon.Run(context.Background(), "")
	gt.NoError(t, err).Required()
	gt.Equal(t, result.Summary.Total, 3)
}

func TestLoad(t *testing.T) {
	saved := filepath.Join(t.TempDir(), "pyright_project_20260101_000000.json")
	gt.NoError(t, os.WriteFile(saved, []byte(document), 0o600)).Required()

	mon := newMonitor(t, monitor.Config{Filter: pyrmon.FilterOptions{FilePattern: `^a\.py$`}})

	result, err := mon.Load(saved)
	gt.NoError(t, err).Required()
	gt.Equal(t, result.Summary.Errors, 2)
	gt.Equal(t, result.Summary.Total, 2)
	gt.Equal(t, result.RawPath, saved)
	gt.Equal(t, len(result.Files), 1)

	t.Run("invalid document", func(t *testing.T) {
		broken := filepath.Join(t.TempDir(), "broken.json")
		gt.NoError(t, os.WriteFile(broken, []byte("{"), 0o600)).Required()

		_, err := mon.Load(broken)
		gt.True(t, errors.Is(err, pyrmon.ErrParse))
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := mon.Load(filepath.Join(t.TempDir(), "nope.json"))
		gt.Error(t, err)
	})
}
