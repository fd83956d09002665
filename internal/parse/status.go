package parse

import (
	"strings"

	gferrors "gitflow.dev/gitflow/internal/errors"
)

// StatusEntry is one line of `git status --porcelain`. Index and Worktree
// are the two-letter XY state codes from the porcelain v1 format.
type StatusEntry struct {
	Index    byte
	Worktree byte
	Path     string
	OrigPath string // set for renames and copies
}

// Conflicted reports whether the entry is an unmerged path.
func (e StatusEntry) Conflicted() bool {
	if e.Index == 'U' || e.Worktree == 'U' {
		return true
	}
	return (e.Index == 'A' && e.Worktree == 'A') || (e.Index == 'D' && e.Worktree == 'D')
}

// Untracked reports whether the path is not known to git.
func (e StatusEntry) Untracked() bool {
	return e.Index == '?' && e.Worktree == '?'
}

// Staged reports whether the entry has changes in the index.
func (e StatusEntry) Staged() bool {
	return e.Index != ' ' && e.Index != '?' && !e.Conflicted()
}

// ParseStatus parses `git status --porcelain` (v1) output.
func ParseStatus(raw string) ([]StatusEntry, error) {
	entries := []StatusEntry{}
	for _, line := range strings.Split(raw, "\n") {
		if line == "" {
			continue
		}
		if len(line) < 4 || line[2] != ' ' {
			return nil, gferrors.NewParseError("status entry", line, nil)
		}
		entry := StatusEntry{
			Index:    line[0],
			Worktree: line[1],
			Path:     line[3:],
		}
		// Renames read "XY orig -> dest".
		if arrow := strings.Index(entry.Path, " -> "); arrow >= 0 {
			entry.OrigPath = entry.Path[:arrow]
			entry.Path = entry.Path[arrow+4:]
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ConflictedPaths returns the unmerged paths from entries, in input order.
func ConflictedPaths(entries []StatusEntry) []string {
	paths := []string{}
	for _, e := range entries {
		if e.Conflicted() {
			paths = append(paths, e.Path)
		}
	}
	return paths
}
