package git

import (
	"context"
	"strings"
	"sync"

	gogit "github.com/go-git/go-git/v5"

	gferrors "gitflow.dev/gitflow/internal/errors"
	"gitflow.dev/gitflow/internal/parse"
)

// Repo is the single synchronization point for all git operations against
// one working tree. Concurrent git processes against the same index are
// unsafe, so every operation holds the repo mutex for its full duration,
// including multi-invocation sequences like capture-prestate-then-merge.
// Operations issued concurrently observe FIFO order via the mutex.
type Repo struct {
	root   string
	runner *Runner

	mu sync.Mutex

	// go-git handle for read paths, opened lazily. go-git is not safe for
	// concurrent packfile access, so ggMu guards every use.
	gg   *gogit.Repository
	ggMu sync.Mutex
}

// Open opens the repository containing dir, walking up to the work tree root.
func Open(dir string) (*Repo, error) {
	runner := NewRunner(dir)
	root, err := runner.Output(context.Background(), "git", "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, gferrors.NewOperationError("open repository", "not a git repository: "+dir, err)
	}
	return &Repo{root: root, runner: NewRunner(root)}, nil
}

// Root returns the repository's working tree root.
func (r *Repo) Root() string {
	return r.root
}

// GitDir returns the absolute path of the .git directory.
func (r *Repo) GitDir(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runner.Output(ctx, "git", "rev-parse", "--absolute-git-dir")
}

// Git runs a raw git invocation under the repo lock and returns the captured
// result. Workflow components (the rebase engine) use this for invocations
// the typed surface does not cover.
func (r *Repo) Git(ctx context.Context, args ...string) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runner.Run(ctx, "git", args...)
}

// GitWithEnv is Git with extra environment variables for the invocation.
func (r *Repo) GitWithEnv(ctx context.Context, env []string, args ...string) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runner.RunWithEnv(ctx, env, "git", args...)
}

// output runs git and converts non-zero exits to errors. Callers must hold mu.
func (r *Repo) output(ctx context.Context, args ...string) (string, error) {
	return r.runner.Output(ctx, "git", args...)
}

// outputRaw is output without trimming. Callers must hold mu.
func (r *Repo) outputRaw(ctx context.Context, args ...string) (string, error) {
	return r.runner.OutputRaw(ctx, "git", args...)
}

// classify turns a completed write invocation into nil, a ConflictError or
// an OperationError. git's exit code alone cannot distinguish a conflict
// stop from other failures, so stderr/stdout patterns plus the unmerged
// paths from status decide. Callers must hold mu.
func (r *Repo) classify(ctx context.Context, operation string, res Result) error {
	if res.ExitCode == 0 {
		return nil
	}
	if looksLikeConflict(res) {
		paths, _ := r.conflictedPathsLocked(ctx)
		return gferrors.NewConflictError(operation, paths, strings.TrimSpace(res.Stderr))
	}
	msg := strings.TrimSpace(res.Stderr)
	if msg == "" {
		msg = strings.TrimSpace(res.Stdout)
	}
	return gferrors.NewOperationError(operation, msg,
		gferrors.NewCommandError("git", nil, res.Stdout, res.Stderr, res.ExitCode, nil))
}

// conflictMarkers are the stderr/stdout patterns git emits when an apply,
// merge or pick stops on unmerged paths.
var conflictMarkers = []string{
	"CONFLICT",
	"Automatic merge failed",
	"could not apply",
	"needs merge",
	"Resolve all conflicts",
	"fix conflicts",
}

func looksLikeConflict(res Result) bool {
	combined := res.Stdout + "\n" + res.Stderr
	for _, marker := range conflictMarkers {
		if strings.Contains(combined, marker) {
			return true
		}
	}
	return false
}

// ConflictedPaths returns the repository's unmerged paths.
func (r *Repo) ConflictedPaths(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conflictedPathsLocked(ctx)
}

func (r *Repo) conflictedPathsLocked(ctx context.Context) ([]string, error) {
	raw, err := r.outputRaw(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	entries, err := parse.ParseStatus(raw)
	if err != nil {
		return nil, err
	}
	return parse.ConflictedPaths(entries), nil
}
