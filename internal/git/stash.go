package git

import (
	"context"
	"strings"

	gferrors "gitflow.dev/gitflow/internal/errors"
	"gitflow.dev/gitflow/internal/parse"
)

// StashResult captures the commit created by a stash push; the hash stays
// valid for undo even after the stash ref moves.
type StashResult struct {
	StashHash string
	Message   string
}

// CreateStash stashes working tree changes, including untracked files.
func (r *Repo) CreateStash(ctx context.Context, message string) (StashResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	args := []string{"stash", "push", "-u"}
	if message != "" {
		args = append(args, "-m", message)
	}
	res, err := r.runner.Run(ctx, "git", args...)
	if err != nil {
		return StashResult{}, err
	}
	if err := r.classify(ctx, "stash push", res); err != nil {
		return StashResult{}, err
	}
	if strings.Contains(res.Stdout, "No local changes") {
		return StashResult{}, gferrors.NewOperationError("stash push", "no local changes to save", nil)
	}

	hash, err := r.output(ctx, "rev-parse", "stash@{0}")
	if err != nil {
		return StashResult{}, err
	}
	return StashResult{StashHash: hash, Message: message}, nil
}

// ApplyStash applies a stash without dropping it. ref may be a stash
// selector (stash@{1}) or a stash commit hash; empty means the most recent.
func (r *Repo) ApplyStash(ctx context.Context, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	args := []string{"stash", "apply"}
	if ref != "" {
		args = append(args, ref)
	}
	res, err := r.runner.Run(ctx, "git", args...)
	if err != nil {
		return err
	}
	return r.classify(ctx, "stash apply", res)
}

// PopStash applies and drops the most recent stash.
func (r *Repo) PopStash(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.runner.Run(ctx, "git", "stash", "pop")
	if err != nil {
		return err
	}
	return r.classify(ctx, "stash pop", res)
}

// DropStash removes a stash entry without applying it.
func (r *Repo) DropStash(ctx context.Context, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	args := []string{"stash", "drop"}
	if ref != "" {
		args = append(args, ref)
	}
	res, err := r.runner.Run(ctx, "git", args...)
	if err != nil {
		return err
	}
	return r.classify(ctx, "stash drop", res)
}

// Stashes lists the stash stack, newest first.
func (r *Repo) Stashes(ctx context.Context) ([]parse.StashEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := r.outputRaw(ctx, "stash", "list", "--format="+parse.StashFormat)
	if err != nil {
		return nil, err
	}
	return parse.ParseStashes(raw)
}
