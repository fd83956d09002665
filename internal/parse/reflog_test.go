package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func reflogLine(fields ...string) string {
	return strings.Join(fields, FieldSep)
}

func TestParseReflog(t *testing.T) {
	t.Run("classifies known actions", func(t *testing.T) {
		raw := strings.Join([]string{
			reflogLine("aaaa", "HEAD@{0}", "commit: add feature", "2024-06-01T10:00:00Z", "Ada"),
			reflogLine("bbbb", "HEAD@{1}", "commit (amend): fix typo", "2024-06-01T09:00:00Z", "Ada"),
			reflogLine("cccc", "HEAD@{2}", "checkout: moving from main to topic", "2024-06-01T08:00:00Z", "Ada"),
			reflogLine("dddd", "HEAD@{3}", "rebase -i (finish): returning to refs/heads/topic", "2024-06-01T07:00:00Z", "Ada"),
			reflogLine("eeee", "HEAD@{4}", "commit (initial): init", "2024-06-01T06:00:00Z", "Ada"),
		}, "\n")

		entries, err := ParseReflog(raw)
		require.NoError(t, err)
		require.Len(t, entries, 5)

		require.Equal(t, ReflogCommit, entries[0].Action)
		require.Equal(t, "add feature", entries[0].Summary)
		require.Equal(t, "HEAD@{0}", entries[0].Selector)

		require.Equal(t, ReflogCommitAmend, entries[1].Action)
		require.Equal(t, "fix typo", entries[1].Summary)

		require.Equal(t, ReflogCheckout, entries[2].Action)
		require.Equal(t, "moving from main to topic", entries[2].Summary)

		require.Equal(t, ReflogRebaseInteractive, entries[3].Action)
		require.Equal(t, ReflogCommitInitial, entries[4].Action)
	})

	t.Run("unknown subject maps to ReflogUnknown", func(t *testing.T) {
		raw := reflogLine("aaaa", "HEAD@{0}", "filter-branch: rewrite", "2024-06-01T10:00:00Z", "Ada")
		entries, err := ParseReflog(raw)
		require.NoError(t, err)
		require.Equal(t, ReflogUnknown, entries[0].Action)
		require.Equal(t, "filter-branch: rewrite", entries[0].Summary)
	})

	t.Run("amend does not classify as plain commit", func(t *testing.T) {
		action, summary := classifyReflogSubject("commit (amend): reworded")
		require.Equal(t, ReflogCommitAmend, action)
		require.Equal(t, "reworded", summary)
	})

	t.Run("blank lines are skipped", func(t *testing.T) {
		raw := "\n" + reflogLine("aaaa", "HEAD@{0}", "commit: x", "2024-06-01T10:00:00Z", "Ada") + "\n\n"
		entries, err := ParseReflog(raw)
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})

	t.Run("malformed line fails", func(t *testing.T) {
		_, err := ParseReflog("just one field")
		require.Error(t, err)
	})
}
