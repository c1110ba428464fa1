// Package git provides the branch/commit/push primitives the pipeline
// integrates accepted units through. All state lives on an explicit
// Session threaded through the orchestrator, so tests substitute a fake
// Runner without module-level mocking.
package git

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Fallback commit identity when the environment supplies none.
const (
	FallbackAuthorName  = "mend"
	FallbackAuthorEmail = "mend@localhost"
)

// Session is a git client bound to one repository for the lifetime of one
// run. The commit identity is configured lazily, once.
type Session struct {
	repo   string
	runner Runner

	identityOnce sync.Once
	identityErr  error
}

// Option configures a Session.
type Option func(*Session)

// WithRunner substitutes the command runner. Intended for tests.
func WithRunner(r Runner) Option {
	return func(s *Session) {
		if r != nil {
			s.runner = r
		}
	}
}

// NewSession creates a session for the repository at repoPath.
func NewSession(repoPath string, opts ...Option) *Session {
	s := &Session{
		repo:   repoPath,
		runner: execRunner{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repo returns the repository root path.
func (s *Session) Repo() string { return s.repo }

func (s *Session) exec(ctx context.Context, args ...string) (string, error) {
	return s.runner.Exec(ctx, s.repo, args...)
}

// EnsureIdentity configures the commit author once per session.
// Identity comes from GIT_AUTHOR_NAME/GIT_AUTHOR_EMAIL when set, falling
// back to a fixed identity. Repeated calls are no-ops.
func (s *Session) EnsureIdentity(ctx context.Context) error {
	s.identityOnce.Do(func() {
		s.identityErr = s.configureIdentity(ctx)
	})
	return s.identityErr
}

func (s *Session) configureIdentity(ctx context.Context) error {
	// An already-configured repo identity wins over everything.
	if out, err := s.exec(ctx, "config", "user.email"); err == nil && strings.TrimSpace(out) != "" {
		return nil
	}

	name := os.Getenv("GIT_AUTHOR_NAME")
	if name == "" {
		name = FallbackAuthorName
	}
	email := os.Getenv("GIT_AUTHOR_EMAIL")
	if email == "" {
		email = FallbackAuthorEmail
	}

	if _, err := s.exec(ctx, "config", "user.name", name); err != nil {
		return fmt.Errorf("configuring user.name: %w", err)
	}
	if _, err := s.exec(ctx, "config", "user.email", email); err != nil {
		return fmt.Errorf("configuring user.email: %w", err)
	}
	return nil
}
