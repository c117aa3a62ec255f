package main

import (
	"context"
	"log/slog"
	"os"
)

func main() {
	ctx := context.Background()

	if err := rootCommand().Run(ctx, os.Args); err != nil {
		slog.Error("failed to run", "error", err)
		os.Exit(1)
	}
}
