package pyrmon

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/farcloser/pyrmon/internal/integration/pyright"
)

// Classify turns a pyright report into a Summary.
// It never fails: a nil report or a missing diagnostics list yields an empty summary.
func Classify(report *pyright.Report) Summary {
	return Summarize(Extract(report))
}

// Extract converts raw pyright diagnostics, applying defaults for missing fields and moving positions to 1-based.
// Order is preserved.
func Extract(report *pyright.Report) []Diagnostic {
	if report == nil {
		return []Diagnostic{}
	}

	diags := make([]Diagnostic, 0, len(report.GeneralDiagnostics))
	for _, raw := range report.GeneralDiagnostics {
		diags = append(diags, convert(raw))
	}

	return diags
}

func convert(raw pyright.Diagnostic) Diagnostic {
	diag := Diagnostic{
		Severity: Severity(deref(raw.Severity, "")),
		File:     deref(raw.File, UnknownFile),
		Message:  deref(raw.Message, NoMessage),
		Rule:     deref(raw.Rule, ""),
	}

	line, column := 0, 0

	if raw.Range != nil && raw.Range.Start != nil {
		line = deref(raw.Range.Start.Line, 0)
		column = deref(raw.Range.Start.Character, 0)
	}

	diag.Line = line + 1
	diag.Column = column + 1

	return diag
}

func deref[T any](ptr *T, fallback T) T {
	if ptr == nil {
		return fallback
	}

	return *ptr
}

// Summarize tallies diagnostics by exact severity.
func Summarize(diags []Diagnostic) Summary {
	summary := Summary{
		Diagnostics: slices.Clone(diags),
	}

	if summary.Diagnostics == nil {
		summary.Diagnostics = []Diagnostic{}
	}

	for _, diag := range diags {
		switch diag.Severity {
		case SeverityError:
			summary.Errors++
		case SeverityWarning:
			summary.Warnings++
		case SeverityInformation:
			summary.Information++
		}
	}

	summary.Total = summary.Errors + summary.Warnings + summary.Information

	return summary
}

// FilterOptions narrows down the diagnostics a run reports on. Zero values keep everything.
type FilterOptions struct {
	// Severity keeps only diagnostics with this severity, compared case-insensitively.
	Severity string
	// FilePattern is a regular expression matched against the file path.
	FilePattern string
}

// Filter returns the diagnostics matching opts, in their original order.
// Diagnostics without a file never match a file pattern.
func Filter(diags []Diagnostic, opts FilterOptions) ([]Diagnostic, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var pattern *regexp.Regexp

	if opts.FilePattern != "" {
		var err error

		pattern, err = regexp.Compile(opts.FilePattern)
		if err != nil {
			return nil, fmt.Errorf("invalid file pattern %q: %w", opts.FilePattern, err)
		}
	}

	kept := make([]Diagnostic, 0, len(diags))

	for _, diag := range diags {
		if opts.Severity != "" && !strings.EqualFold(string(diag.Severity), opts.Severity) {
			continue
		}

		if pattern != nil && (diag.File == UnknownFile || !pattern.MatchString(diag.File)) {
			continue
		}

		kept = append(kept, diag)
	}

	return kept, nil
}

// ByFile groups counts per file, most affected files first.
// Diagnostics without a file are left out.
func ByFile(diags []Diagnostic) []FileStats {
	index := map[string]int{}

	var stats []FileStats

	for _, diag := range diags {
		if diag.File == UnknownFile || diag.File == "" {
			continue
		}

		pos, ok := index[diag.File]
		if !ok {
			pos = len(stats)
			index[diag.File] = pos
			stats = append(stats, FileStats{File: diag.File})
		}

		switch diag.Severity {
		case SeverityError:
			stats[pos].Errors++
		case SeverityWarning:
			stats[pos].Warnings++
		case SeverityInformation:
			stats[pos].Information++
		}
	}

	slices.SortStableFunc(stats, func(a, b FileStats) int {
		if c := cmp.Compare(b.Total(), a.Total()); c != 0 {
			return c
		}

		return cmp.Compare(a.File, b.File)
	})

	return stats
}

// Density returns the mean and population standard deviation of diagnostics per affected file.
func Density(stats []FileStats) (float64, float64) {
	if len(stats) == 0 {
		return 0, 0
	}

	totals := make([]float64, len(stats))
	for i, fs := range stats {
		totals[i] = float64(fs.Total())
	}

	return stat.PopMeanStdDev(totals, nil)
}

// Validate checks that the severity is one pyright reports and that the file pattern compiles.
func (o FilterOptions) Validate() error {
	if o.Severity != "" && !Severity(strings.ToLower(o.Severity)).Recognized() {
		return fmt.Errorf("invalid severity %q: expected %s, %s or %s",
			o.Severity, SeverityError, SeverityWarning, SeverityInformation)
	}

	if o.FilePattern == "" {
		return nil
	}

	if _, err := regexp.Compile(o.FilePattern); err != nil {
		return fmt.Errorf("invalid file pattern %q: %w", o.FilePattern, err)
	}

	return nil
}
