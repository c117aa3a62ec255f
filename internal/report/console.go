package report

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/farcloser/pyrmon"
)

// ColorMode decides whether terminal output carries ANSI colors.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

var errInvalidColorMode = fmt.Errorf("color mode must be one of %s, %s, %s", ColorAuto, ColorAlways, ColorNever)

// ParseColorMode validates a color mode name. Empty means auto.
func ParseColorMode(name string) (ColorMode, error) {
	switch mode := ColorMode(name); mode {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return mode, nil
	}

	return "", fmt.Errorf("%w: got %q", errInvalidColorMode, name)
}

// DefaultMaxDisplay caps the detailed listing on the terminal.
const DefaultMaxDisplay = 10

// Console prints colorized summaries. Colors are decided once, at construction.
type Console struct {
	out        io.Writer
	maxDisplay int

	bold    *color.Color
	success *color.Color
	palette map[pyrmon.Severity]*color.Color
	plain   *color.Color
}

// NewConsole returns a Console writing to out.
// maxDisplay caps how many diagnostics are detailed, zero or less means all of them.
func NewConsole(out io.Writer, mode ColorMode, maxDisplay int) *Console {
	console := &Console{
		out:        out,
		maxDisplay: maxDisplay,
		bold:       color.New(color.Bold),
		success:    color.New(color.FgHiGreen),
		plain:      color.New(color.Reset),
		palette: map[pyrmon.Severity]*color.Color{
			pyrmon.SeverityError:       color.New(color.FgHiRed),
			pyrmon.SeverityWarning:     color.New(color.FgHiYellow),
			pyrmon.SeverityInformation: color.New(color.FgHiBlue),
		},
	}

	enabled := colorEnabled(out, mode)

	for _, col := range console.colors() {
		if enabled {
			col.EnableColor()
		} else {
			col.DisableColor()
		}
	}

	return console
}

func (c *Console) colors() []*color.Color {
	cols := []*color.Color{c.bold, c.success, c.plain}
	for _, col := range c.palette {
		cols = append(cols, col)
	}

	return cols
}

func colorEnabled(out io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}

	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	file, ok := out.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(file.Fd())) //nolint:gosec // file descriptors fit in an int
}

func (c *Console) color(severity pyrmon.Severity) *color.Color {
	if col, ok := c.palette[severity]; ok {
		return col
	}

	return c.plain
}

// Analyzing announces what is about to be analyzed. An empty target is the whole project.
func (c *Console) Analyzing(target string) {
	if target == "" {
		target = "entire project"
	}

	c.bold.Fprintf(c.out, "\nAnalyzing %s...\n", target)
}

// Summary prints the per-severity counts.
func (c *Console) Summary(summary pyrmon.Summary) {
	if len(summary.Diagnostics) == 0 {
		c.success.Fprintln(c.out, "No problems found!")

		return
	}

	c.bold.Fprintln(c.out, "\nSummary:")
	c.color(pyrmon.SeverityError).Fprintf(c.out, "Errors: %d\n", summary.Errors)
	c.color(pyrmon.SeverityWarning).Fprintf(c.out, "Warnings: %d\n", summary.Warnings)
	c.color(pyrmon.SeverityInformation).Fprintf(c.out, "Information: %d\n", summary.Information)
	fmt.Fprintf(c.out, "Total: %d\n", summary.Total)
}

// Details prints diagnostics in input order, up to the configured maximum.
func (c *Console) Details(summary pyrmon.Summary) {
	diags := summary.Diagnostics
	if len(diags) == 0 {
		return
	}

	shown := diags
	if c.maxDisplay > 0 && len(diags) > c.maxDisplay {
		shown = diags[:c.maxDisplay]
	}

	c.bold.Fprintln(c.out, "\nDetailed Problems:")

	for i, diag := range shown {
		c.color(diag.Severity).Fprintf(c.out, "\n%d. [%s] %s:%d:%d\n",
			i+1, diag.Severity.Label(), diag.File, diag.Line, diag.Column)
		fmt.Fprintf(c.out, "   %s\n", diag.Message)
	}

	if rest := len(diags) - len(shown); rest > 0 {
		fmt.Fprintf(c.out, "\n... and %d more problems\n", rest)
	}
}

// Files prints per-file counts, colored by the worst severity of each file, followed by the density line.
func (c *Console) Files(stats []pyrmon.FileStats) {
	if len(stats) == 0 {
		return
	}

	c.bold.Fprintln(c.out, "\nProblems by file:")

	for _, fs := range stats {
		c.color(fs.Worst()).Fprintf(c.out, "%s: %d errors, %d warnings, %d info (%d total)\n",
			fs.File, fs.Errors, fs.Warnings, fs.Information, fs.Total())
	}

	mean, stddev := pyrmon.Density(stats)
	fmt.Fprintf(c.out, "\n%d files affected, %.1f problems per file (stddev %.1f)\n", len(stats), mean, stddev)
}

// Saved points at a persisted artifact.
func (c *Console) Saved(path string) {
	fmt.Fprintf(c.out, "\nDetailed results saved to: %s\n", path)
}
