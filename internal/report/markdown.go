// Package report renders summaries for humans and persists run artifacts.
package report

import (
	"fmt"
	"strings"

	"github.com/farcloser/pyrmon"
)

// DefaultTitle heads the Markdown summary when no title is configured.
const DefaultTitle = "Pyright Analysis Summary"

// Markdown renders the summary consumed by CI to open or update a tracking issue.
// The "Detailed Issues" section is only present when there is at least one diagnostic.
func Markdown(summary pyrmon.Summary, title string) string {
	if title == "" {
		title = DefaultTitle
	}

	var out strings.Builder

	fmt.Fprintf(&out, "# %s\n\n", title)
	fmt.Fprintf(&out, "- Errors: %d\n", summary.Errors)
	fmt.Fprintf(&out, "- Warnings: %d\n", summary.Warnings)
	fmt.Fprintf(&out, "- Information: %d\n", summary.Information)

	if len(summary.Diagnostics) == 0 {
		return out.String()
	}

	out.WriteString("\n## Detailed Issues\n")

	for i, diag := range summary.Diagnostics {
		fmt.Fprintf(&out, "\n### %d. [%s] %s:%d:%d\n%s\n",
			i+1, diag.Severity.Label(), diag.File, diag.Line, diag.Column, diag.Message)
	}

	return out.String()
}
