package git

import (
	"context"
)

// CommitResult captures the state around a newly created commit; the undo
// manager reverses the commit with a soft reset to PreviousHead.
type CommitResult struct {
	PreviousHead string // empty for an initial commit
	NewHead      string
	Subject      string
}

// CreateCommit commits the index with the given message.
func (r *Repo) CreateCommit(ctx context.Context, message string) (CommitResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, _ := r.headLocked(ctx)

	res, err := r.runner.Run(ctx, "git", "commit", "-m", message)
	if err != nil {
		return CommitResult{}, err
	}
	if err := r.classify(ctx, "commit", res); err != nil {
		return CommitResult{}, err
	}

	head, err := r.headLocked(ctx)
	if err != nil {
		return CommitResult{}, err
	}
	return CommitResult{PreviousHead: prev, NewHead: head, Subject: firstLine(message)}, nil
}

// AmendCommit rewrites the current HEAD commit. With an empty message the
// existing message is kept.
func (r *Repo) AmendCommit(ctx context.Context, message string) (CommitResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, err := r.headLocked(ctx)
	if err != nil {
		return CommitResult{}, err
	}

	args := []string{"commit", "--amend"}
	if message != "" {
		args = append(args, "-m", message)
	} else {
		args = append(args, "--no-edit")
	}
	res, err := r.runner.Run(ctx, "git", args...)
	if err != nil {
		return CommitResult{}, err
	}
	if err := r.classify(ctx, "amend", res); err != nil {
		return CommitResult{}, err
	}

	head, err := r.headLocked(ctx)
	if err != nil {
		return CommitResult{}, err
	}
	return CommitResult{PreviousHead: prev, NewHead: head, Subject: firstLine(message)}, nil
}

// StageAll stages every change in the working tree, including untracked files.
func (r *Repo) StageAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.output(ctx, "add", "-A")
	return err
}

// StagePaths stages the given paths.
func (r *Repo) StagePaths(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.output(ctx, append([]string{"add", "--"}, paths...)...)
	return err
}

// UnstagePaths removes the given paths from the index, keeping the working tree.
func (r *Repo) UnstagePaths(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.output(ctx, append([]string{"restore", "--staged", "--"}, paths...)...)
	return err
}

// Head returns the full hash of HEAD.
func (r *Repo) Head(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.headLocked(ctx)
}

func (r *Repo) headLocked(ctx context.Context) (string, error) {
	return r.output(ctx, "rev-parse", "HEAD")
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
