package git

import (
	"context"
	"strings"
)

// TagResult captures a tag mutation for reversal.
type TagResult struct {
	Name       string
	Target     string // hash the tag points (or pointed) at
	Annotation string
}

// CreateTag creates a tag at the given target (HEAD when empty). A non-empty
// annotation creates an annotated tag.
func (r *Repo) CreateTag(ctx context.Context, name, target, annotation string) (TagResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	args := []string{"tag"}
	if annotation != "" {
		args = append(args, "-a", "-m", annotation)
	}
	args = append(args, name)
	if target != "" {
		args = append(args, target)
	}
	res, err := r.runner.Run(ctx, "git", args...)
	if err != nil {
		return TagResult{}, err
	}
	if err := r.classify(ctx, "create tag", res); err != nil {
		return TagResult{}, err
	}

	at, err := r.output(ctx, "rev-parse", name+"^{commit}")
	if err != nil {
		return TagResult{}, err
	}
	return TagResult{Name: name, Target: at, Annotation: annotation}, nil
}

// DeleteTag deletes a tag, returning the commit it pointed at.
func (r *Repo) DeleteTag(ctx context.Context, name string) (TagResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	at, err := r.output(ctx, "rev-parse", name+"^{commit}")
	if err != nil {
		return TagResult{}, err
	}

	res, err := r.runner.Run(ctx, "git", "tag", "-d", name)
	if err != nil {
		return TagResult{}, err
	}
	if err := r.classify(ctx, "delete tag", res); err != nil {
		return TagResult{}, err
	}
	return TagResult{Name: name, Target: at}, nil
}

// Tags returns all tag names.
func (r *Repo) Tags(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out, err := r.output(ctx, "tag", "--list")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return []string{}, nil
	}
	return strings.Split(out, "\n"), nil
}
