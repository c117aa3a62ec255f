package pyrmon

import "strings"

// Severity is the importance pyright attached to a diagnostic.
// Only the three constants below are recognized: anything else is carried through verbatim but never counted.
type Severity string

const (
	SeverityError       Severity = "error"
	SeverityWarning     Severity = "warning"
	SeverityInformation Severity = "information"
)

// Recognized reports whether the severity is one of the three counted values.
// Matching is exact: "Error" or "hint" are not recognized.
func (s Severity) Recognized() bool {
	switch s {
	case SeverityError, SeverityWarning, SeverityInformation:
		return true
	}

	return false
}

// Label is the upper-cased form used in report headings.
func (s Severity) Label() string {
	return strings.ToUpper(string(s))
}

const (
	// UnknownFile stands in for a diagnostic without a file.
	UnknownFile = "Unknown file"
	// NoMessage stands in for a diagnostic without a message.
	NoMessage = "No message"
)

// Diagnostic is one finding, with defaults applied and positions converted to 1-based.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	File     string   `json:"file"`
	Line     int      `json:"line"`   // 1-based
	Column   int      `json:"column"` // 1-based
	Message  string   `json:"message"`
	Rule     string   `json:"rule,omitempty"`
}

// Summary aggregates a run. It is built once by Classify and never mutated.
type Summary struct {
	Errors      int `json:"error_count"`
	Warnings    int `json:"warning_count"`
	Information int `json:"info_count"`
	// Total is Errors + Warnings + Information: diagnostics with an unrecognized severity are not part of it.
	Total       int          `json:"total_count"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// HasIssues reports whether any recognized diagnostic was found.
func (s Summary) HasIssues() bool {
	return s.Total > 0
}

// FileStats holds per-file counts for project runs.
type FileStats struct {
	File        string `json:"file"`
	Errors      int    `json:"errors"`
	Warnings    int    `json:"warnings"`
	Information int    `json:"information"`
}

// Total is the sum of the three recognized buckets.
func (f FileStats) Total() int {
	return f.Errors + f.Warnings + f.Information
}

// Worst returns the most severe bucket with a non-zero count, or an empty severity.
func (f FileStats) Worst() Severity {
	switch {
	case f.Errors > 0:
		return SeverityError
	case f.Warnings > 0:
		return SeverityWarning
	case f.Information > 0:
		return SeverityInformation
	}

	return ""
}
