// Package output provides the canonical map form of a run, as fed to primordium formatters.
package output

import (
	"github.com/farcloser/pyrmon"
)

// SummaryToMap converts a summary, and optional per-file counts, into the structure printed by the console, json
// and markdown formatters.
func SummaryToMap(summary pyrmon.Summary, files []pyrmon.FileStats) map[string]any {
	meta := map[string]any{
		"summary": map[string]any{
			"error_count":   summary.Errors,
			"warning_count": summary.Warnings,
			"info_count":    summary.Information,
			"total_count":   summary.Total,
		},
	}

	diagnostics := make([]any, 0, len(summary.Diagnostics))
	for _, diag := range summary.Diagnostics {
		diagnostics = append(diagnostics, DiagnosticToMap(diag))
	}

	meta["diagnostics"] = diagnostics

	if len(files) > 0 {
		meta["files"] = FilesToMap(files)
	}

	return meta
}

// DiagnosticToMap converts a single diagnostic. The rule is only present when pyright reported one.
func DiagnosticToMap(diag pyrmon.Diagnostic) map[string]any {
	entry := map[string]any{
		"severity": string(diag.Severity),
		"file":     diag.File,
		"line":     diag.Line,
		"column":   diag.Column,
		"message":  diag.Message,
	}

	if diag.Rule != "" {
		entry["rule"] = diag.Rule
	}

	return entry
}

// FilesToMap converts per-file counts, keeping their order, along with the density figures.
func FilesToMap(files []pyrmon.FileStats) map[string]any {
	entries := make([]any, 0, len(files))
	for _, fs := range files {
		entries = append(entries, map[string]any{
			"file":        fs.File,
			"errors":      fs.Errors,
			"warnings":    fs.Warnings,
			"information": fs.Information,
			"total":       fs.Total(),
		})
	}

	mean, stddev := pyrmon.Density(files)

	return map[string]any{
		"affected":      len(files),
		"mean_per_file": mean,
		"stddev":        stddev,
		"by_file":       entries,
	}
}
