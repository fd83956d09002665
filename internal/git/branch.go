package git

import (
	"context"
	"strings"
)

// CheckoutResult captures the branch transition of a checkout; the undo
// manager reverses it by checking out PreviousBranch again.
type CheckoutResult struct {
	PreviousBranch string // empty when HEAD was detached
	PreviousHead   string
	NewBranch      string
}

// Checkout switches the working tree to an existing branch.
func (r *Repo) Checkout(ctx context.Context, branch string) (CheckoutResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prevBranch, _ := r.currentBranchLocked(ctx)
	prevHead, _ := r.headLocked(ctx)

	res, err := r.runner.Run(ctx, "git", "checkout", branch)
	if err != nil {
		return CheckoutResult{}, err
	}
	if err := r.classify(ctx, "checkout", res); err != nil {
		return CheckoutResult{}, err
	}
	return CheckoutResult{PreviousBranch: prevBranch, PreviousHead: prevHead, NewBranch: branch}, nil
}

// CheckoutDetached checks out a revision in detached HEAD state.
func (r *Repo) CheckoutDetached(ctx context.Context, rev string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.runner.Run(ctx, "git", "checkout", "--detach", rev)
	if err != nil {
		return err
	}
	return r.classify(ctx, "checkout", res)
}

// BranchResult captures a branch mutation. DeletedHash is the tip the branch
// pointed at before deletion, so deleting can be undone by recreating the
// branch there.
type BranchResult struct {
	Name        string
	StartPoint  string // hash the branch was created at
	DeletedHash string // hash a deleted branch pointed at
}

// CreateBranch creates a branch at the given start point (HEAD when empty)
// without checking it out.
func (r *Repo) CreateBranch(ctx context.Context, name, startPoint string) (BranchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	args := []string{"branch", name}
	if startPoint != "" {
		args = append(args, startPoint)
	}
	res, err := r.runner.Run(ctx, "git", args...)
	if err != nil {
		return BranchResult{}, err
	}
	if err := r.classify(ctx, "create branch", res); err != nil {
		return BranchResult{}, err
	}

	at, err := r.output(ctx, "rev-parse", "refs/heads/"+name)
	if err != nil {
		return BranchResult{}, err
	}
	return BranchResult{Name: name, StartPoint: at}, nil
}

// DeleteBranch force-deletes a local branch, returning the hash it pointed at.
func (r *Repo) DeleteBranch(ctx context.Context, name string) (BranchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tip, err := r.output(ctx, "rev-parse", "refs/heads/"+name)
	if err != nil {
		return BranchResult{}, err
	}

	res, err := r.runner.Run(ctx, "git", "branch", "-D", name)
	if err != nil {
		return BranchResult{}, err
	}
	if err := r.classify(ctx, "delete branch", res); err != nil {
		return BranchResult{}, err
	}
	return BranchResult{Name: name, DeletedHash: tip}, nil
}

// RenameBranch renames a local branch.
func (r *Repo) RenameBranch(ctx context.Context, oldName, newName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.runner.Run(ctx, "git", "branch", "-m", oldName, newName)
	if err != nil {
		return err
	}
	return r.classify(ctx, "rename branch", res)
}

// CurrentBranch returns the checked-out branch name, or "" when HEAD is
// detached.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentBranchLocked(ctx)
}

func (r *Repo) currentBranchLocked(ctx context.Context) (string, error) {
	out, err := r.output(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if out == "HEAD" {
		// Detached.
		return "", nil
	}
	return out, nil
}

// Branches returns all local branch names.
func (r *Repo) Branches(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out, err := r.output(ctx, "for-each-ref", "--format=%(refname:short)", "refs/heads/")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return []string{}, nil
	}
	return strings.Split(out, "\n"), nil
}
