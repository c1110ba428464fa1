package git

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoChanges is the distinguished non-error condition for a run that
// produced nothing to commit. Callers special-case it with errors.Is
// instead of parsing error text.
var ErrNoChanges = errors.New("no changes to commit")

// HasChanges reports whether the working tree has uncommitted changes.
func (s *Session) HasChanges(ctx context.Context) (bool, error) {
	files, err := s.ChangedFiles(ctx)
	if err != nil {
		return false, err
	}
	return len(files) > 0, nil
}

// ChangedFiles lists files with uncommitted changes (staged, unstaged,
// or untracked), parsed from porcelain status output.
func (s *Session) ChangedFiles(ctx context.Context) ([]string, error) {
	out, err := s.exec(ctx, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("checking git status: %w", err)
	}

	var files []string
	// Each line is "XY filename"; the status code is positional, so the
	// output must not be trimmed before splitting.
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(line) < 4 {
			continue
		}
		name := line[3:]
		if idx := strings.Index(name, " -> "); idx != -1 {
			name = name[idx+4:]
		}
		files = append(files, unquotePath(name))
	}
	return files, nil
}

// unquotePath undoes git's C-style quoting of paths with special
// characters (spaces, non-ASCII bytes as octal escapes). Go's quoted
// string syntax covers the same escapes. Unparseable names pass through
// untouched.
func unquotePath(name string) string {
	if len(name) < 2 || name[0] != '"' || name[len(name)-1] != '"' {
		return name
	}
	unquoted, err := strconv.Unquote(name)
	if err != nil {
		return name
	}
	return unquoted
}

// CommitAll stages everything and commits with the given message.
// Returns ErrNoChanges when the tree is clean; identity is configured
// lazily on first commit.
func (s *Session) CommitAll(ctx context.Context, message string) error {
	hasChanges, err := s.HasChanges(ctx)
	if err != nil {
		return err
	}
	if !hasChanges {
		return ErrNoChanges
	}

	if err := s.EnsureIdentity(ctx); err != nil {
		return err
	}

	if _, err := s.exec(ctx, "add", "-A"); err != nil {
		return fmt.Errorf("staging changes: %w", err)
	}
	if _, err := s.exec(ctx, "commit", "-m", message); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// DiscardChanges resets the tree to HEAD and removes untracked files,
// so a skipped unit leaves nothing behind for the next one.
func (s *Session) DiscardChanges(ctx context.Context) error {
	if _, err := s.exec(ctx, "reset", "--hard", "HEAD"); err != nil {
		return fmt.Errorf("resetting working tree: %w", err)
	}
	if _, err := s.exec(ctx, "clean", "-fd"); err != nil {
		return fmt.Errorf("removing untracked files: %w", err)
	}
	return nil
}

// DiffStat returns a summary of changes between the base branch and HEAD.
func (s *Session) DiffStat(ctx context.Context, baseBranch string) (string, error) {
	out, err := s.exec(ctx, "diff", "--stat", baseBranch+"...HEAD")
	if err != nil {
		return "", fmt.Errorf("diffing against %s: %w", baseBranch, err)
	}
	return strings.TrimSpace(out), nil
}

// CommitCount returns the number of commits on HEAD since baseBranch.
func (s *Session) CommitCount(ctx context.Context, baseBranch string) (int, error) {
	out, err := s.exec(ctx, "rev-list", "--count", baseBranch+"..HEAD")
	if err != nil {
		return 0, fmt.Errorf("counting commits: %w", err)
	}
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(out), "%d", &n); err != nil {
		return 0, fmt.Errorf("parsing commit count %q: %w", out, err)
	}
	return n, nil
}
