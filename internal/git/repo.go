package git

import (
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// gogitRepo lazily opens the go-git handle for read paths.
func (r *Repo) gogitRepo() (*gogit.Repository, error) {
	r.ggMu.Lock()
	defer r.ggMu.Unlock()
	if r.gg != nil {
		return r.gg, nil
	}
	repo, err := gogit.PlainOpenWithOptions(r.root, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository %s: %w", r.root, err)
	}
	r.gg = repo
	return repo, nil
}

// ResolveRevision resolves a ref expression (branch, tag, SHA, HEAD~N) to a
// full hash without spawning a subprocess.
func (r *Repo) ResolveRevision(rev string) (string, error) {
	repo, err := r.gogitRepo()
	if err != nil {
		return "", err
	}

	r.ggMu.Lock()
	defer r.ggMu.Unlock()

	// Try reference forms first; ResolveRevision handles the rest
	// (short SHAs, HEAD~N expressions).
	for _, name := range []plumbing.ReferenceName{
		plumbing.ReferenceName(rev),
		plumbing.ReferenceName("refs/heads/" + rev),
		plumbing.ReferenceName("refs/tags/" + rev),
		plumbing.ReferenceName("refs/remotes/" + rev),
	} {
		if ref, err := repo.Reference(name, true); err == nil {
			return ref.Hash().String(), nil
		}
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", fmt.Errorf("failed to resolve ref %s: %w", rev, err)
	}
	return hash.String(), nil
}

// BranchExists reports whether a local branch exists.
func (r *Repo) BranchExists(name string) bool {
	repo, err := r.gogitRepo()
	if err != nil {
		return false
	}
	r.ggMu.Lock()
	defer r.ggMu.Unlock()
	_, err = repo.Reference(plumbing.ReferenceName("refs/heads/"+name), true)
	return err == nil
}
