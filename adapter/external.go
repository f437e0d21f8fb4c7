package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long a killed harness may keep its stderr open
// through child processes.
const waitDelay = 2 * time.Second

// runExternal executes one operation through a harness binary. The
// process is killed when ctx is cancelled.
func runExternal(ctx context.Context, binary string, op Op, path string) error {
	if binary == "" {
		return errors.New("no harness binary configured")
	}

	cmd := exec.CommandContext(ctx, binary, string(op), path)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return errors.New(msg)
		}

		return fmt.Errorf("%s %s: %w", binary, op, err)
	}

	return nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}

	return ""
}
