package git

import (
	"context"
)

// ResetMode selects how much of the index and working tree a reset touches.
type ResetMode string

const (
	ResetSoft  ResetMode = "soft"
	ResetMixed ResetMode = "mixed"
	ResetHard  ResetMode = "hard"
)

// ResetResult captures the pre-state of a reset; undoing moves HEAD back to
// PreviousHead. A hard reset is only cleanly reversible for committed state,
// which is why destructive discards go through the backup store first.
type ResetResult struct {
	PreviousHead string
	NewHead      string
	Mode         ResetMode
	Target       string
}

// Reset moves HEAD (and per mode the index and working tree) to target.
func (r *Repo) Reset(ctx context.Context, mode ResetMode, target string) (ResetResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, err := r.headLocked(ctx)
	if err != nil {
		return ResetResult{}, err
	}

	res, err := r.runner.Run(ctx, "git", "reset", "--"+string(mode), target)
	if err != nil {
		return ResetResult{}, err
	}
	if err := r.classify(ctx, "reset", res); err != nil {
		return ResetResult{}, err
	}

	head, err := r.headLocked(ctx)
	if err != nil {
		return ResetResult{}, err
	}
	return ResetResult{PreviousHead: prev, NewHead: head, Mode: mode, Target: target}, nil
}

// DiscardResult lists the paths a discard touched, after their content was
// captured by the backup store.
type DiscardResult struct {
	Paths []string
}

// DiscardPaths restores the given paths to their HEAD state, throwing away
// working tree and index changes. Untracked paths are removed. Callers must
// back up file content first; this operation is destructive.
func (r *Repo) DiscardPaths(ctx context.Context, paths ...string) (DiscardResult, error) {
	if len(paths) == 0 {
		return DiscardResult{}, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := r.outputRaw(ctx, "status", "--porcelain", "--")
	if err != nil {
		return DiscardResult{}, err
	}
	untracked := map[string]bool{}
	for _, line := range splitLines(raw) {
		if len(line) > 3 && line[0] == '?' && line[1] == '?' {
			untracked[line[3:]] = true
		}
	}

	var tracked, clean []string
	for _, p := range paths {
		if untracked[p] {
			clean = append(clean, p)
		} else {
			tracked = append(tracked, p)
		}
	}

	if len(tracked) > 0 {
		res, err := r.runner.Run(ctx, "git", append([]string{"checkout", "HEAD", "--"}, tracked...)...)
		if err != nil {
			return DiscardResult{}, err
		}
		if err := r.classify(ctx, "discard", res); err != nil {
			return DiscardResult{}, err
		}
	}
	if len(clean) > 0 {
		res, err := r.runner.Run(ctx, "git", append([]string{"clean", "-f", "--"}, clean...)...)
		if err != nil {
			return DiscardResult{}, err
		}
		if err := r.classify(ctx, "discard", res); err != nil {
			return DiscardResult{}, err
		}
	}
	return DiscardResult{Paths: paths}, nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
