// Package npm installs node tooling globally.
package npm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/pyrmon/internal/integration/binary"
)

const (
	name = "npm"
	// Registry fetches over slow links.
	timeout = 5 * time.Minute
)

// Install runs `npm install -g <pkg>`. bin overrides the npm binary, empty means npm from PATH.
func Install(ctx context.Context, bin, pkg string) error {
	if bin == "" {
		bin = name
	}

	slog.Debug("npm.Install", "package", pkg, "stage", "start")

	npmPath, err := binary.Require(bin)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // package name comes from our own constants
	cmd := exec.CommandContext(ctx, npmPath, "install", "-g", pkg)

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: after %v", fault.ErrTimeout, timeout)
		}

		slog.Debug("npm.Install", "package", pkg, "stage", "error")

		return fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, stderr.String(), err)
	}

	slog.Debug("npm.Install", "package", pkg, "stage", "done")

	return nil
}
