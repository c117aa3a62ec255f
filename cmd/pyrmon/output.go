//nolint:wrapcheck
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/farcloser/primordium/format"

	"github.com/farcloser/pyrmon/internal/monitor"
	"github.com/farcloser/pyrmon/internal/output"
	"github.com/farcloser/pyrmon/internal/report"
)

const projectObject = "project"

// printPretty mirrors the two run modes: a project run breaks problems down per file, a file run details them.
func printPretty(console *report.Console, result *monitor.Result) {
	console.Summary(result.Summary)

	if result.Target == "" {
		console.Files(result.Files)
	} else {
		console.Details(result.Summary)
	}

	if result.SummaryPath != "" {
		console.Saved(result.RawPath)
		printArtifacts(os.Stdout, result)
	}
}

func printFormatted(formatName string, result *monitor.Result) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	object := result.Target
	if object == "" {
		object = projectObject
	}

	data := &format.Data{
		Object: object,
		Meta:   output.SummaryToMap(result.Summary, result.Files),
	}

	if err = formatter.PrintAll([]*format.Data{data}, os.Stdout); err != nil {
		return err
	}

	// Keep stdout parseable.
	if result.SummaryPath != "" {
		fmt.Fprintf(os.Stderr, "Detailed results saved to: %s\n", result.RawPath)
		printArtifacts(os.Stderr, result)
	}

	return nil
}

func printArtifacts(out io.Writer, result *monitor.Result) {
	fmt.Fprintf(out, "Summary: %s\n", result.SummaryPath)
	fmt.Fprintf(out, "Markdown: %s\n", result.MarkdownPath)

	if result.CompressedPath != "" {
		fmt.Fprintf(out, "Compressed: %s\n", result.CompressedPath)
	}
}
