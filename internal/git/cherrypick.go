package git

import (
	"context"
)

// CherryPickResult captures the pre-state of a cherry-pick for reversal.
type CherryPickResult struct {
	PreviousHead string
	NewHead      string
	PickedHash   string
}

// CherryPick applies the given commit onto the current branch. A conflict
// stop is reported as a ConflictError; the pick stays in progress.
func (r *Repo) CherryPick(ctx context.Context, hash string) (CherryPickResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, err := r.headLocked(ctx)
	if err != nil {
		return CherryPickResult{}, err
	}

	res, err := r.runner.Run(ctx, "git", "cherry-pick", hash)
	if err != nil {
		return CherryPickResult{}, err
	}
	if err := r.classify(ctx, "cherry-pick", res); err != nil {
		return CherryPickResult{}, err
	}

	head, err := r.headLocked(ctx)
	if err != nil {
		return CherryPickResult{}, err
	}
	return CherryPickResult{PreviousHead: prev, NewHead: head, PickedHash: hash}, nil
}

// CherryPickAbort aborts an in-progress cherry-pick.
func (r *Repo) CherryPickAbort(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.runner.Run(ctx, "git", "cherry-pick", "--abort")
	if err != nil {
		return err
	}
	return r.classify(ctx, "cherry-pick abort", res)
}
