// Package testhelpers provides shared test utilities: a scene system around
// temporary Git repositories and assertions over their state. Helpers shell
// out to git directly so tests exercise the real tool, not the code under
// test.
package testhelpers

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const textFileName = "test.txt"

// GitRepo is a real Git repository on disk for testing.
type GitRepo struct {
	Dir string
}

// NewGitRepo initializes a new repository with a deterministic test identity
// and an initial branch named main.
func NewGitRepo(dir string) (*GitRepo, error) {
	repo := &GitRepo{Dir: dir}

	cmd := exec.Command("git",
		"-c", "init.defaultBranch=main",
		"-c", "core.autocrlf=false",
		"-c", "core.fileMode=false",
		"init", dir, "-b", "main")
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to init repo: %w", err)
	}

	if err := repo.Git("config", "user.name", "Test User"); err != nil {
		return nil, err
	}
	if err := repo.Git("config", "user.email", "test@example.com"); err != nil {
		return nil, err
	}
	// Commit signing and editors would block non-interactive tests.
	if err := repo.Git("config", "commit.gpgsign", "false"); err != nil {
		return nil, err
	}
	return repo, nil
}

// Git runs a git command in the repository directory.
// GIT_CONFIG_GLOBAL=/dev/null keeps the host's global config out of tests.
func (r *GitRepo) Git(args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if os.Getenv("DEBUG") != "" {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}

// GitOutput runs a git command and returns its trimmed stdout.
func (r *GitRepo) GitOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(output)), nil
}

// CreateChange writes a file change. When unstaged is false the change is
// added to the index.
func (r *GitRepo) CreateChange(textValue string, prefix string, unstaged bool) error {
	fileName := textFileName
	if prefix != "" {
		fileName = prefix + "_" + fileName
	}
	path := filepath.Join(r.Dir, fileName)

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(textValue), 0600); err != nil {
		return err
	}
	if !unstaged {
		return r.Git("add", path)
	}
	return nil
}

// CreateChangeAndCommit writes a file change and commits it with textValue as
// the message.
func (r *GitRepo) CreateChangeAndCommit(textValue string, prefix string) error {
	if err := r.CreateChange(textValue, prefix, false); err != nil {
		return err
	}
	if err := r.Git("add", "."); err != nil {
		return err
	}
	return r.Git("commit", "-m", textValue)
}

// WriteFile writes arbitrary content to a path relative to the repository
// root, creating parent directories as needed.
func (r *GitRepo) WriteFile(relPath, content string) error {
	path := filepath.Join(r.Dir, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0600)
}

// ReadFile reads a file relative to the repository root.
func (r *GitRepo) ReadFile(relPath string) (string, error) {
	data, err := os.ReadFile(filepath.Join(r.Dir, relPath))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CommitFile writes, stages and commits one file.
func (r *GitRepo) CommitFile(relPath, content, message string) error {
	if err := r.WriteFile(relPath, content); err != nil {
		return err
	}
	if err := r.Git("add", relPath); err != nil {
		return err
	}
	return r.Git("commit", "-m", message)
}

// CreateBranch creates a branch without checking it out.
func (r *GitRepo) CreateBranch(name string) error {
	return r.Git("branch", name)
}

// CreateAndCheckoutBranch creates and checks out a branch.
func (r *GitRepo) CreateAndCheckoutBranch(name string) error {
	return r.Git("checkout", "-b", name)
}

// CheckoutBranch checks out an existing branch.
func (r *GitRepo) CheckoutBranch(name string) error {
	return r.Git("checkout", name)
}

// CurrentBranchName returns the checked-out branch, or "" when detached.
func (r *GitRepo) CurrentBranchName() (string, error) {
	return r.GitOutput("branch", "--show-current")
}

// GetRevision resolves a revision to its SHA.
func (r *GitRepo) GetRevision(rev string) (string, error) {
	return r.GitOutput("rev-parse", rev)
}

// GetCurrentSHA returns HEAD's SHA.
func (r *GitRepo) GetCurrentSHA() (string, error) {
	return r.GetRevision("HEAD")
}

// RebaseInProgress reports whether a rebase workflow directory exists.
func (r *GitRepo) RebaseInProgress() bool {
	for _, dir := range []string{"rebase-merge", "rebase-apply"} {
		if _, err := os.Stat(filepath.Join(r.Dir, ".git", dir)); err == nil {
			return true
		}
	}
	return false
}

// ResolveMergeConflicts resolves all conflicts by taking "theirs".
func (r *GitRepo) ResolveMergeConflicts() error {
	return r.Git("checkout", "--theirs", ".")
}

// MarkMergeConflictsAsResolved stages everything, marking conflicts resolved.
func (r *GitRepo) MarkMergeConflictsAsResolved() error {
	return r.Git("add", ".")
}

// ListCurrentBranchCommitMessages returns one-line messages, newest first.
func (r *GitRepo) ListCurrentBranchCommitMessages() ([]string, error) {
	output, err := r.GitOutput("log", "--format=%s")
	if err != nil {
		return nil, err
	}
	return splitLines(output), nil
}

// GetCommitCount returns the number of commits in from..to.
func (r *GitRepo) GetCommitCount(from, to string) (int, error) {
	output, err := r.GitOutput("rev-list", "--count", from+".."+to)
	if err != nil {
		return 0, err
	}
	var count int
	if _, err := fmt.Sscanf(output, "%d", &count); err != nil {
		return 0, fmt.Errorf("failed to parse commit count: %w", err)
	}
	return count, nil
}

// GetLocalBranches returns all local branch names.
func (r *GitRepo) GetLocalBranches() ([]string, error) {
	output, err := r.GitOutput("branch", "--format=%(refname:short)")
	if err != nil {
		return nil, err
	}
	return splitLines(output), nil
}

// HasUnstagedChanges reports whether tracked files have unstaged edits.
func (r *GitRepo) HasUnstagedChanges() (bool, error) {
	output, err := r.GitOutput("diff", "--name-only")
	if err != nil {
		return false, err
	}
	return output != "", nil
}

// HasUntrackedFiles reports whether untracked files exist.
func (r *GitRepo) HasUntrackedFiles() (bool, error) {
	output, err := r.GitOutput("ls-files", "--others", "--exclude-standard")
	if err != nil {
		return false, err
	}
	return output != "", nil
}

// IsAncestor reports whether ancestor is reachable from descendant.
func (r *GitRepo) IsAncestor(ancestor, descendant string) bool {
	return r.Git("merge-base", "--is-ancestor", ancestor, descendant) == nil
}

func splitLines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}
