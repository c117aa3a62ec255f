//nolint:tagliatelle
package pyright

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/pyrmon/internal/integration/binary"
)

// Report is the document produced by `pyright --outputjson`.
// The schema belongs to pyright: every field is optional, unknown fields are ignored.
type Report struct {
	Version            string       `json:"version,omitempty"`
	Time               string       `json:"time,omitempty"`
	GeneralDiagnostics []Diagnostic `json:"generalDiagnostics,omitempty"`
	Summary            *Summary     `json:"summary,omitempty"`
}

// Diagnostic is a single finding, as reported by pyright.
// Pointers distinguish an absent field from a zero value, so that callers can apply their own defaults.
type Diagnostic struct {
	File     *string `json:"file,omitempty"`
	Severity *string `json:"severity,omitempty"`
	Message  *string `json:"message,omitempty"`
	Rule     *string `json:"rule,omitempty"`
	Range    *Range  `json:"range,omitempty"`
}

// Range locates a diagnostic. Positions are 0-based.
type Range struct {
	Start *Position `json:"start,omitempty"`
	End   *Position `json:"end,omitempty"`
}

// Position is a 0-based line / character pair.
type Position struct {
	Line      *int `json:"line,omitempty"`
	Character *int `json:"character,omitempty"`
}

// Summary is pyright's own tally. It is kept for the raw artifact, never trusted for counting.
type Summary struct {
	FilesAnalyzed    int     `json:"filesAnalyzed"`
	ErrorCount       int     `json:"errorCount"`
	WarningCount     int     `json:"warningCount"`
	InformationCount int     `json:"informationCount"`
	TimeInSec        float64 `json:"timeInSec"`
}

// Options controls a pyright run.
type Options struct {
	// Binary is a name looked up in PATH, or a path. Defaults to DefaultBinary.
	Binary string
	// Target is a single file to analyze. Empty analyzes the whole project.
	Target string
	// Dir is the working directory pyright runs in, which is how it finds the project configuration.
	Dir string
	// Timeout bounds the whole run. Defaults to ten minutes.
	Timeout time.Duration
}

// Parse decodes a pyright JSON document.
func Parse(raw []byte) (*Report, error) {
	var report Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrInvalidJSON, err)
	}

	return &report, nil
}

// Run invokes pyright and returns the parsed report along with the raw output.
// pyright exits non-zero whenever it finds errors: that is not a failure, as long as it produced output.
// The raw output is returned even when it fails to parse, so that it can be kept around for inspection.
func Run(ctx context.Context, opts Options) (*Report, []byte, error) {
	bin := opts.Binary
	if bin == "" {
		bin = DefaultBinary
	}

	slog.Debug("pyright.Run", "binary", bin, "target", opts.Target, "dir", opts.Dir)

	pyrightPath, err := binary.Require(bin)
	if err != nil {
		return nil, nil, err
	}

	limit := opts.Timeout
	if limit <= 0 {
		limit = timeout
	}

	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	args := []string{"--outputjson"}
	if opts.Target != "" {
		args = append(args, opts.Target)
	}

	//nolint:gosec // target is intentionally user-provided
	cmd := exec.CommandContext(ctx, pyrightPath, args...)
	cmd.Dir = opts.Dir
	cmd.WaitDelay = waitDelay

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, nil, fmt.Errorf("%w: after %v", fault.ErrTimeout, limit)
		}

		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || len(bytes.TrimSpace(output)) == 0 {
			return nil, nil, fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, stderr.String(), err)
		}

		slog.Debug("pyright.Run", "stage", "non-zero exit with output", "exit code", exitErr.ExitCode())
	}

	report, err := Parse(output)
	if err != nil {
		return nil, output, err
	}

	return report, output, nil
}

// Version returns the output of `pyright --version`, which doubles as a check that the install works.
func Version(ctx context.Context, bin string) (string, error) {
	if bin == "" {
		bin = DefaultBinary
	}

	pyrightPath, err := binary.Require(bin)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, pyrightPath, "--version")
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	output, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: after %v", fault.ErrTimeout, versionTimeout)
		}

		return "", fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, stderr.String(), err)
	}

	return strings.TrimSpace(string(output)), nil
}
