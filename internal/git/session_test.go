package git

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCurrentBranch(t *testing.T) {
	fake := newFakeRunner()
	fake.stub("rev-parse --abbrev-ref HEAD", "main\n", nil)
	s := NewSession("/repo", WithRunner(fake))

	branch, err := s.CurrentBranch(context.Background())
	if err != nil {
		t.Fatalf("CurrentBranch() error: %v", err)
	}
	if branch != "main" {
		t.Errorf("CurrentBranch() = %q, want %q", branch, "main")
	}
}

func TestCurrentBranchDetachedHead(t *testing.T) {
	fake := newFakeRunner()
	fake.stub("rev-parse --abbrev-ref HEAD", "HEAD\n", nil)
	s := NewSession("/repo", WithRunner(fake))

	if _, err := s.CurrentBranch(context.Background()); err == nil {
		t.Error("CurrentBranch() succeeded in detached HEAD state")
	}
}

func TestCreateBranchForceDeletesStaleLocal(t *testing.T) {
	fake := newFakeRunner()
	fake.stub("rev-parse --verify refs/heads/mend/quality-x", "abc123\n", nil)
	fake.stub("branch -D mend/quality-x", "", nil)
	fake.stub("checkout -b mend/quality-x main", "", nil)
	s := NewSession("/repo", WithRunner(fake))

	if err := s.CreateBranch(context.Background(), "mend/quality-x", "main"); err != nil {
		t.Fatalf("CreateBranch() error: %v", err)
	}
	if fake.callsFor("branch", "-D", "mend/quality-x") != 1 {
		t.Error("stale local branch was not force-deleted")
	}
}

func TestCreateBranchFreshName(t *testing.T) {
	fake := newFakeRunner()
	fake.stub("rev-parse --verify refs/heads/mend/quality-y", "", errors.New("unknown revision"))
	fake.stub("checkout -b mend/quality-y main", "", nil)
	s := NewSession("/repo", WithRunner(fake))

	if err := s.CreateBranch(context.Background(), "mend/quality-y", "main"); err != nil {
		t.Fatalf("CreateBranch() error: %v", err)
	}
	if fake.callsFor("branch", "-D", "mend/quality-y") != 0 {
		t.Error("deleted a branch that did not exist")
	}
}

func TestCreateBranchRejectsInvalidNames(t *testing.T) {
	s := NewSession("/repo", WithRunner(newFakeRunner()))
	for _, name := range []string{"", "refs/heads/x", "a..b", "has space", "trailing/", "x.lock"} {
		if err := s.CreateBranch(context.Background(), name, "main"); err == nil {
			t.Errorf("CreateBranch(%q) accepted invalid name", name)
		}
	}
}

func TestPushFailsLoudly(t *testing.T) {
	fake := newFakeRunner()
	fake.stub("push --set-upstream origin mend/quality-z", "",
		errors.New("! [rejected] mend/quality-z -> mend/quality-z (non-fast-forward)"))
	s := NewSession("/repo", WithRunner(fake))

	err := s.Push(context.Background(), "mend/quality-z")
	if err == nil {
		t.Fatal("Push() swallowed a rejected push")
	}
	if !strings.Contains(err.Error(), "rejected") {
		t.Errorf("Push() error lost diagnostics: %v", err)
	}
}

func TestChangedFilesParsesPorcelain(t *testing.T) {
	fake := newFakeRunner()
	fake.stub("status --porcelain", " M src/a.ts\n?? new.ts\nR  old.ts -> renamed.ts\n", nil)
	s := NewSession("/repo", WithRunner(fake))

	files, err := s.ChangedFiles(context.Background())
	if err != nil {
		t.Fatalf("ChangedFiles() error: %v", err)
	}

	want := []string{"src/a.ts", "new.ts", "renamed.ts"}
	if len(files) != len(want) {
		t.Fatalf("ChangedFiles() = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestChangedFilesUnquotesSpecialCharacters(t *testing.T) {
	fake := newFakeRunner()
	// git C-quotes paths containing spaces or non-ASCII bytes.
	fake.stub("status --porcelain",
		" M \"s\\303\\274d/a.ts\"\n?? \"has space.ts\"\nR  old.ts -> \"new\\303\\244.ts\"\n", nil)
	s := NewSession("/repo", WithRunner(fake))

	files, err := s.ChangedFiles(context.Background())
	if err != nil {
		t.Fatalf("ChangedFiles() error: %v", err)
	}

	want := []string{"süd/a.ts", "has space.ts", "newä.ts"}
	if len(files) != len(want) {
		t.Fatalf("ChangedFiles() = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestCommitAllCleanTreeReturnsSentinel(t *testing.T) {
	fake := newFakeRunner()
	fake.stub("status --porcelain", "", nil)
	s := NewSession("/repo", WithRunner(fake))

	err := s.CommitAll(context.Background(), "fix(quality): lib - improvements")
	if !errors.Is(err, ErrNoChanges) {
		t.Errorf("CommitAll() on clean tree = %v, want ErrNoChanges", err)
	}
	if fake.callsFor("add", "-A") != 0 {
		t.Error("staged changes on a clean tree")
	}
}

func TestCommitAllStagesAndCommits(t *testing.T) {
	fake := newFakeRunner()
	fake.stub("status --porcelain", " M a.ts\n", nil)
	fake.stub("config user.email", "dev@example.com\n", nil)
	fake.stub("add -A", "", nil)
	fake.stub("commit -m fix(quality): lib - improvements", "", nil)
	s := NewSession("/repo", WithRunner(fake))

	if err := s.CommitAll(context.Background(), "fix(quality): lib - improvements"); err != nil {
		t.Fatalf("CommitAll() error: %v", err)
	}
	if fake.callsFor("commit", "-m", "fix(quality): lib - improvements") != 1 {
		t.Error("commit was not created")
	}
}

func TestEnsureIdentityMemoized(t *testing.T) {
	fake := newFakeRunner()
	// Identity already configured in the repo; only one config read expected.
	fake.stub("config user.email", "dev@example.com\n", nil)
	s := NewSession("/repo", WithRunner(fake))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := s.EnsureIdentity(ctx); err != nil {
			t.Fatalf("EnsureIdentity() call %d error: %v", i, err)
		}
	}

	if got := fake.callsFor("config", "user.email"); got != 1 {
		t.Errorf("identity configured %d times, want 1", got)
	}
}

func TestEnsureIdentityFallback(t *testing.T) {
	t.Setenv("GIT_AUTHOR_NAME", "")
	t.Setenv("GIT_AUTHOR_EMAIL", "")

	fake := newFakeRunner()
	fake.stub("config user.email", "", errors.New("no such key"))
	fake.stub(fmt.Sprintf("config user.name %s", FallbackAuthorName), "", nil)
	fake.stub(fmt.Sprintf("config user.email %s", FallbackAuthorEmail), "", nil)
	s := NewSession("/repo", WithRunner(fake))

	if err := s.EnsureIdentity(context.Background()); err != nil {
		t.Fatalf("EnsureIdentity() error: %v", err)
	}
	if fake.callsFor("config", "user.name", FallbackAuthorName) != 1 {
		t.Error("fallback author name was not configured")
	}
}

func TestDiscardChanges(t *testing.T) {
	fake := newFakeRunner()
	fake.stub("reset --hard HEAD", "", nil)
	fake.stub("clean -fd", "", nil)
	s := NewSession("/repo", WithRunner(fake))

	if err := s.DiscardChanges(context.Background()); err != nil {
		t.Fatalf("DiscardChanges() error: %v", err)
	}
	if fake.callsFor("clean", "-fd") != 1 {
		t.Error("untracked files were not removed")
	}
}

func TestCommitCount(t *testing.T) {
	fake := newFakeRunner()
	fake.stub("rev-list --count main..HEAD", "4\n", nil)
	s := NewSession("/repo", WithRunner(fake))

	n, err := s.CommitCount(context.Background(), "main")
	if err != nil {
		t.Fatalf("CommitCount() error: %v", err)
	}
	if n != 4 {
		t.Errorf("CommitCount() = %d, want 4", n)
	}
}

func TestWorkBranchNameIsValidAndUnique(t *testing.T) {
	a := WorkBranchName("quality")
	b := WorkBranchName("quality")

	if !strings.HasPrefix(a, "mend/quality-") {
		t.Errorf("WorkBranchName() = %q, want mend/quality- prefix", a)
	}
	if a == b {
		t.Error("two generated branch names collided")
	}
	if err := validateBranchName(a); err != nil {
		t.Errorf("generated branch name invalid: %v", err)
	}
}
