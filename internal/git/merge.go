package git

import (
	"context"
)

// MergeResult captures the pre-state of a merge; undo resets the branch back
// to PreviousHead with a hard reset (git's own recovery uses ORIG_HEAD, which
// the next operation overwrites, so the hash is recorded here).
type MergeResult struct {
	PreviousHead string
	NewHead      string
	MergedBranch string
	FastForward  bool
}

// Merge merges the given branch into the current one. A conflict stop is
// reported as a ConflictError; the merge stays in progress for the caller to
// resolve or abort.
func (r *Repo) Merge(ctx context.Context, branch string) (MergeResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, err := r.headLocked(ctx)
	if err != nil {
		return MergeResult{}, err
	}

	res, err := r.runner.Run(ctx, "git", "merge", "--no-edit", branch)
	if err != nil {
		return MergeResult{}, err
	}
	if err := r.classify(ctx, "merge", res); err != nil {
		return MergeResult{}, err
	}

	head, err := r.headLocked(ctx)
	if err != nil {
		return MergeResult{}, err
	}

	// A fast-forward leaves no merge commit: the new head is the branch tip.
	branchTip, _ := r.output(ctx, "rev-parse", branch)
	return MergeResult{
		PreviousHead: prev,
		NewHead:      head,
		MergedBranch: branch,
		FastForward:  head == branchTip && head != prev,
	}, nil
}

// MergeAbort aborts an in-progress merge.
func (r *Repo) MergeAbort(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.runner.Run(ctx, "git", "merge", "--abort")
	if err != nil {
		return err
	}
	return r.classify(ctx, "merge abort", res)
}
