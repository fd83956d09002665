package testhelpers

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// Must panics if err is non-nil, otherwise returns the value. For test setup
// where an error should halt immediately.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// ExpectBranches asserts the repository has exactly the expected branches,
// order-independent.
func ExpectBranches(t *testing.T, repo *GitRepo, expected []string) {
	t.Helper()

	branches, err := repo.GetLocalBranches()
	require.NoError(t, err, "failed to list branches")

	sort.Strings(branches)
	sorted := append([]string{}, expected...)
	sort.Strings(sorted)
	require.Equal(t, sorted, branches, "branches do not match")
}

// ExpectCommits asserts the current branch's one-line messages, newest first.
func ExpectCommits(t *testing.T, repo *GitRepo, expected []string) {
	t.Helper()

	messages, err := repo.ListCurrentBranchCommitMessages()
	require.NoError(t, err, "failed to list commit messages")
	require.Equal(t, expected, messages, "commit messages do not match")
}
