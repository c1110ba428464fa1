package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner is the Session's seam to the git binary. Tests substitute a
// fake; nothing else in the package touches os/exec.
type Runner interface {
	Exec(ctx context.Context, dir string, args ...string) (string, error)
}

// execRunner shells out to git in the given directory.
type execRunner struct{}

func (execRunner) Exec(ctx context.Context, dir string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// stderr carries git's diagnostics; keep it on the error so
		// callers never have to re-run the command to see why it failed.
		return "", fmt.Errorf("git %s: %w\nstderr: %s",
			strings.Join(args, " "), err, stderr.String())
	}
	return stdout.String(), nil
}
