package git

import (
	"context"
	"fmt"

	"gitflow.dev/gitflow/internal/parse"
)

// History returns up to limit commits reachable from rev (HEAD when empty),
// newest first. The records are snapshots; they go stale the moment a ref
// moves, so callers re-query rather than mutate.
func (r *Repo) History(ctx context.Context, rev string, limit int) ([]parse.Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	args := []string{"log", "--pretty=format:" + parse.LogFormat}
	if limit > 0 {
		args = append(args, fmt.Sprintf("-n%d", limit))
	}
	if rev != "" {
		args = append(args, rev)
	}
	raw, err := r.outputRaw(ctx, args...)
	if err != nil {
		return nil, err
	}
	return parse.ParseCommits(raw)
}

// CommitRange returns the commits in base..head, oldest first, the order a
// rebase applies them in.
func (r *Repo) CommitRange(ctx context.Context, base, head string) ([]parse.Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := r.outputRaw(ctx, "log", "--reverse", "--no-merges",
		"--pretty=format:"+parse.LogFormat, base+".."+head)
	if err != nil {
		return nil, err
	}
	return parse.ParseCommits(raw)
}

// Show returns the single commit record for rev.
func (r *Repo) Show(ctx context.Context, rev string) (parse.Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := r.outputRaw(ctx, "show", "--no-patch", "--pretty=format:"+parse.LogFormat, rev)
	if err != nil {
		return parse.Commit{}, err
	}
	commits, err := parse.ParseCommits(raw)
	if err != nil {
		return parse.Commit{}, err
	}
	if len(commits) == 0 {
		return parse.Commit{}, fmt.Errorf("no commit found for %s", rev)
	}
	return commits[0], nil
}

// Reflog returns up to limit reflog entries for HEAD, newest first.
func (r *Repo) Reflog(ctx context.Context, limit int) ([]parse.ReflogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	args := []string{"reflog", "--format=" + parse.ReflogFormat}
	if limit > 0 {
		args = append(args, fmt.Sprintf("-n%d", limit))
	}
	raw, err := r.outputRaw(ctx, args...)
	if err != nil {
		return nil, err
	}
	return parse.ParseReflog(raw)
}

// Status returns the porcelain working tree status.
func (r *Repo) Status(ctx context.Context) ([]parse.StatusEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := r.outputRaw(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parse.ParseStatus(raw)
}
