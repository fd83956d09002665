package git

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Rebase invocations return the raw Result: the engine layered on top owns
// the classification of exit codes into workflow states, because a non-zero
// exit can mean "stopped for edit", "stopped on conflict" or a real failure,
// and the distinction needs the rebase state files, not just the code.

// noEditorEnv makes git consume pre-written content instead of opening an
// editor. The sequence editor installs the engine's plan; the message editor
// accepts whatever git proposes (rewords are handled as deferred amends).
func noEditorEnv(planPath string) []string {
	return []string{
		"GIT_SEQUENCE_EDITOR=cp " + shellQuote(planPath),
		"GIT_EDITOR=true",
	}
}

// RebaseInteractive starts `git rebase -i` onto the given revision, with the
// todo list replaced by the plan file at planPath.
func (r *Repo) RebaseInteractive(ctx context.Context, onto, planPath string) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runner.RunWithEnv(ctx, noEditorEnv(planPath), "git", "rebase", "-i", onto)
}

// RebaseContinue resumes a paused rebase.
func (r *Repo) RebaseContinue(ctx context.Context) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runner.RunWithEnv(ctx, []string{"GIT_EDITOR=true"}, "git", "rebase", "--continue")
}

// RebaseSkip skips the commit the rebase is stopped on.
func (r *Repo) RebaseSkip(ctx context.Context) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runner.RunWithEnv(ctx, []string{"GIT_EDITOR=true"}, "git", "rebase", "--skip")
}

// RebaseAbort aborts an in-progress rebase, restoring the pre-rebase state.
func (r *Repo) RebaseAbort(ctx context.Context) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runner.Run(ctx, "git", "rebase", "--abort")
}

// IsRebaseInProgress checks for the rebase state directories. This is more
// reliable than REBASE_HEAD, which can persist after a finished rebase.
func (r *Repo) IsRebaseInProgress(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	gitDir, err := r.output(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return false
	}
	if _, err := os.Stat(filepath.Join(gitDir, "rebase-merge")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(gitDir, "rebase-apply")); err == nil {
		return true
	}
	return false
}

// RebaseProgress reads the current step and total step count of an
// interactive rebase from the rebase-merge state files.
func (r *Repo) RebaseProgress(ctx context.Context) (current, total int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	gitDir, err := r.output(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return 0, 0, err
	}
	current, err = readIntFile(filepath.Join(gitDir, "rebase-merge", "msgnum"))
	if err != nil {
		return 0, 0, err
	}
	total, err = readIntFile(filepath.Join(gitDir, "rebase-merge", "end"))
	if err != nil {
		return 0, 0, err
	}
	return current, total, nil
}

// RebaseStoppedSHA returns the hash of the commit an interactive rebase is
// stopped on, or "" when the marker file is absent.
func (r *Repo) RebaseStoppedSHA(ctx context.Context) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	gitDir, err := r.output(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(gitDir, "rebase-merge", "stopped-sha"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func readIntFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// shellQuote wraps a path for use inside GIT_SEQUENCE_EDITOR, which git
// hands to sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
