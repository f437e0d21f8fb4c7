package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// ResolveBinary returns the expected harness binary path for lib given
// the harnesses root directory. In-process libraries have no binary.
func ResolveBinary(harnessesDir string, lib Library) string {
	if !lib.External() {
		return ""
	}

	name := string(lib) + "-harness"

	return filepath.Join(harnessesDir, string(lib), "target", "release", name)
}

// Available reports whether lib can be benchmarked: in-process
// libraries always can, external ones need their binary on disk.
func Available(harnessesDir string, lib Library) bool {
	if !lib.External() {
		return true
	}

	info, err := os.Stat(ResolveBinary(harnessesDir, lib))

	return err == nil && !info.IsDir()
}

// Build compiles the harness binary for an external library.
func Build(
	ctx context.Context,
	logger *slog.Logger,
	harnessesDir string,
	lib Library,
) (string, error) {
	if !lib.External() {
		return "", fmt.Errorf("library %q is built in", lib)
	}

	srcDir := filepath.Join(harnessesDir, string(lib))
	binPath := ResolveBinary(harnessesDir, lib)

	logger.InfoContext(ctx, "building harness",
		slog.String("library", string(lib)),
		slog.String("source_dir", srcDir),
	)

	cmd := exec.CommandContext(ctx, "cargo", "build", "--release")
	cmd.Dir = srcDir
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("build %s: %w", lib, err)
	}

	if _, err := os.Stat(binPath); err != nil {
		return "", fmt.Errorf(
			"build %s: binary not found at %s", lib, binPath,
		)
	}

	logger.InfoContext(ctx, "harness built",
		slog.String("library", string(lib)),
		slog.String("binary", binPath),
	)

	return binPath, nil
}
