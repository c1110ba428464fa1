package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

// CurrentBranch returns the name of the currently checked out branch.
// Returns an error if in detached HEAD state.
func (s *Session) CurrentBranch(ctx context.Context) (string, error) {
	out, err := s.exec(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("getting current branch: %w", err)
	}

	branch := strings.TrimSpace(out)
	if branch == "HEAD" {
		return "", fmt.Errorf("repository is in detached HEAD state")
	}
	return branch, nil
}

// CreateBranch creates branchName from fromBranch and checks it out.
// A stale local branch of the same name from a previous run is
// force-deleted first; the remote is left alone, so a diverged remote
// branch still fails loudly at push time.
func (s *Session) CreateBranch(ctx context.Context, branchName, fromBranch string) error {
	if err := validateBranchName(branchName); err != nil {
		return err
	}

	if _, err := s.exec(ctx, "rev-parse", "--verify", "refs/heads/"+branchName); err == nil {
		if _, err := s.exec(ctx, "branch", "-D", branchName); err != nil {
			return fmt.Errorf("deleting stale branch %s: %w", branchName, err)
		}
	}

	if _, err := s.exec(ctx, "checkout", "-b", branchName, fromBranch); err != nil {
		return fmt.Errorf("creating branch %s from %s: %w", branchName, fromBranch, err)
	}
	return nil
}

// Checkout switches to the given branch.
func (s *Session) Checkout(ctx context.Context, branchName string) error {
	_, err := s.exec(ctx, "checkout", branchName)
	return err
}

// Push publishes the branch with upstream tracking. A rejected push
// (diverged remote history) propagates as an error; the local branch and
// commits stay intact as the recovery path.
func (s *Session) Push(ctx context.Context, branchName string) error {
	if _, err := s.exec(ctx, "push", "--set-upstream", "origin", branchName); err != nil {
		return fmt.Errorf("pushing branch %s: %w", branchName, err)
	}
	return nil
}

// WorkBranchName generates a collision-resistant branch name for a run.
func WorkBranchName(kind string) string {
	return fmt.Sprintf("mend/%s-%s", kind, strings.ToLower(ulid.Make().String()))
}

// validateBranchName rejects names git itself would refuse.
func validateBranchName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("branch name cannot be empty")
	case strings.HasPrefix(name, "refs/"):
		return fmt.Errorf("branch name cannot start with 'refs/'")
	case strings.Contains(name, ".."):
		return fmt.Errorf("branch name cannot contain '..'")
	case strings.ContainsAny(name, " ~^:?*[\\"):
		return fmt.Errorf("branch name contains invalid characters: %s", name)
	case strings.HasSuffix(name, "/") || strings.HasSuffix(name, ".lock"):
		return fmt.Errorf("branch name has invalid suffix: %s", name)
	}
	return nil
}
