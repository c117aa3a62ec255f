//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/farcloser/primordium/format"
	"github.com/urfave/cli/v3"

	"github.com/farcloser/pyrmon"
	"github.com/farcloser/pyrmon/internal/config"
	"github.com/farcloser/pyrmon/internal/monitor"
	"github.com/farcloser/pyrmon/internal/report"
	"github.com/farcloser/pyrmon/version"
)

const formatPretty = "pretty"

var (
	errTooManyArgs    = errors.New("expected at most one argument: file path")
	errFromWithTarget = errors.New("--from re-reads saved results and cannot be combined with a file argument")
)

func rootCommand() *cli.Command {
	return &cli.Command{
		Name:      version.Name(),
		Usage:     "Run pyright, summarize its diagnostics and keep the results around",
		ArgsUsage: "[file]",
		Version:   version.Version() + " " + version.Commit(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "project-root",
				Aliases: []string{"p"},
				Usage:   "Project to analyze (defaults to the current directory)",
				Sources: cli.EnvVars("PYRMON_PROJECT_ROOT"),
			},
			&cli.StringFlag{
				Name:    "results-dir",
				Aliases: []string{"o"},
				Usage:   "Where results are written, relative to the project root unless absolute",
				Value:   config.DefaultResultsDir,
				Sources: cli.EnvVars("PYRMON_RESULTS_DIR"),
			},
			&cli.StringFlag{
				Name:    "analyzer",
				Usage:   "pyright binary name or path",
				Value:   "pyright",
				Sources: cli.EnvVars("PYRMON_ANALYZER"),
			},
			&cli.BoolFlag{
				Name:  "install",
				Usage: "Install pyright with npm if it is missing",
			},
			&cli.StringFlag{
				Name:    "severity",
				Aliases: []string{"s"},
				Usage:   "Only report diagnostics of this severity: error, warning, information",
			},
			&cli.StringFlag{
				Name:  "file-pattern",
				Usage: "Only report diagnostics whose file path matches this regular expression",
			},
			&cli.IntFlag{
				Name:    "max-display",
				Aliases: []string{"n"},
				Usage:   "Maximum number of detailed problems printed, 0 for all",
				Value:   report.DefaultMaxDisplay,
				Sources: cli.EnvVars("PYRMON_MAX_DISPLAY"),
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: pretty, console, json, markdown",
				Value:   formatPretty,
			},
			&cli.StringFlag{
				Name:    "color",
				Usage:   "Colorize pretty output: auto, always, never",
				Value:   string(report.ColorAuto),
				Sources: cli.EnvVars("PYRMON_COLOR"),
			},
			&cli.BoolFlag{
				Name:    "compress",
				Usage:   "Also keep a gzipped copy of the raw results",
				Sources: cli.EnvVars("PYRMON_COMPRESS"),
			},
			&cli.StringFlag{
				Name:  "from",
				Usage: "Summarize a previously saved raw results file instead of running pyright",
			},
			&cli.StringFlag{
				Name:    "title",
				Usage:   "Title of the Markdown summary",
				Value:   report.DefaultTitle,
				Sources: cli.EnvVars("PYRMON_TITLE"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"D"},
				Usage:   "Enable debug logging",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() > 1 {
				return fmt.Errorf("%w: got %d", errTooManyArgs, cmd.NArg())
			}

			if cmd.Bool("debug") {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}

			return runAnalyze(ctx, cmd)
		},
	}
}

func runAnalyze(ctx context.Context, cmd *cli.Command) error {
	root, err := projectRoot(cmd.String("project-root"))
	if err != nil {
		return err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("loading %s: %w", config.FileName, err)
	}

	applyFlags(cmd, &cfg)

	if err = cfg.Validate(); err != nil {
		return err
	}

	colorMode, err := report.ParseColorMode(cfg.Color)
	if err != nil {
		return err
	}

	formatName := cmd.String("format")
	pretty := formatName == formatPretty

	if !pretty {
		if _, err = format.GetFormatter(formatName); err != nil {
			return err
		}
	}

	mon, err := monitor.New(monitor.Config{
		ProjectRoot: root,
		ResultsDir:  cfg.ResolveResultsDir(root),
		Analyzer:    cfg.Analyzer,
		Install:     cmd.Bool("install"),
		Filter: pyrmon.FilterOptions{
			Severity:    cmd.String("severity"),
			FilePattern: cmd.String("file-pattern"),
		},
		Title:    cfg.Title,
		Compress: cfg.Compress,
	})
	if err != nil {
		return err
	}

	console := report.NewConsole(os.Stdout, colorMode, cfg.MaxDisplay)

	var result *monitor.Result

	if from := cmd.String("from"); from != "" {
		if cmd.NArg() > 0 {
			return errFromWithTarget
		}

		result, err = mon.Load(from)
	} else {
		target, targetErr := resolveTarget(cmd.Args().First())
		if targetErr != nil {
			return targetErr
		}

		if pretty {
			console.Analyzing(cmd.Args().First())
		}

		result, err = mon.Run(ctx, target)
	}

	if err != nil {
		return err
	}

	if pretty {
		printPretty(console, result)

		return nil
	}

	return printFormatted(formatName, result)
}

// applyFlags overlays flags and environment variables that were explicitly set onto the file configuration.
func applyFlags(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet("results-dir") {
		cfg.ResultsDir = cmd.String("results-dir")
	}

	if cmd.IsSet("analyzer") {
		cfg.Analyzer = cmd.String("analyzer")
	}

	if cmd.IsSet("max-display") {
		cfg.MaxDisplay = cmd.Int("max-display")
	}

	if cmd.IsSet("title") {
		cfg.Title = cmd.String("title")
	}

	if cmd.IsSet("compress") {
		cfg.Compress = cmd.Bool("compress")
	}

	if cmd.IsSet("color") {
		cfg.Color = cmd.String("color")
	}
}

func projectRoot(flagValue string) (string, error) {
	if flagValue == "" {
		return os.Getwd()
	}

	root, err := filepath.Abs(flagValue)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("cannot access %s: %w", root, err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("%s: not a directory", root)
	}

	return root, nil
}

// resolveTarget makes a file argument absolute, since pyright runs from the project root rather than from here.
func resolveTarget(arg string) (string, error) {
	if arg == "" {
		return "", nil
	}

	return filepath.Abs(arg)
}
