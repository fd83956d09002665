package parse

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	gferrors "gitflow.dev/gitflow/internal/errors"
)

func record(fields ...string) string {
	return strings.Join(fields, FieldSep) + RecordSep
}

func TestParseCommits(t *testing.T) {
	t.Run("single commit", func(t *testing.T) {
		raw := record(
			"a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2",
			"a1b2c3d",
			"Ada Lovelace",
			"ada@example.com",
			"2024-03-01T10:30:00+01:00",
			"ffffffffffffffffffffffffffffffffffffffff",
			"Add analytical engine",
			"Supports conditional branching.\n",
		)

		commits, err := ParseCommits(raw)
		require.NoError(t, err)
		require.Len(t, commits, 1)

		c := commits[0]
		require.Equal(t, "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2", c.Hash)
		require.Equal(t, "a1b2c3d", c.ShortHash)
		require.Equal(t, "Ada Lovelace", c.AuthorName)
		require.Equal(t, "ada@example.com", c.AuthorEmail)
		require.Equal(t, []string{"ffffffffffffffffffffffffffffffffffffffff"}, c.ParentHashes)
		require.Equal(t, "Add analytical engine", c.Subject)
		require.Equal(t, "Supports conditional branching.", c.Body)
		require.False(t, c.IsMerge())

		want, err := time.Parse(time.RFC3339, "2024-03-01T10:30:00+01:00")
		require.NoError(t, err)
		require.True(t, c.AuthorDate.Equal(want))
	})

	t.Run("root commit has no parents", func(t *testing.T) {
		raw := record("aaaa", "aa", "A", "a@x.com", "2024-01-01T00:00:00Z", "", "init", "")
		commits, err := ParseCommits(raw)
		require.NoError(t, err)
		require.Empty(t, commits[0].ParentHashes)
	})

	t.Run("merge commit has two parents", func(t *testing.T) {
		raw := record("cccc", "cc", "A", "a@x.com", "2024-01-01T00:00:00Z", "aaaa bbbb", "merge it", "")
		commits, err := ParseCommits(raw)
		require.NoError(t, err)
		require.True(t, commits[0].IsMerge())
		require.Equal(t, []string{"aaaa", "bbbb"}, commits[0].ParentHashes)
	})

	t.Run("multiple records with interleaved newlines", func(t *testing.T) {
		raw := record("aaaa", "aa", "A", "a@x.com", "2024-01-02T00:00:00Z", "bbbb", "second", "") +
			"\n" +
			record("bbbb", "bb", "A", "a@x.com", "2024-01-01T00:00:00Z", "", "first", "")
		commits, err := ParseCommits(raw)
		require.NoError(t, err)
		require.Len(t, commits, 2)
		require.Equal(t, "second", commits[0].Subject)
		require.Equal(t, "first", commits[1].Subject)
	})

	t.Run("body may span lines and contain colons", func(t *testing.T) {
		body := "Line one.\nLine two: with colon.\n\nTrailer: value\n"
		raw := record("aaaa", "aa", "A", "a@x.com", "2024-01-01T00:00:00Z", "", "subject", body)
		commits, err := ParseCommits(raw)
		require.NoError(t, err)
		require.Equal(t, "Line one.\nLine two: with colon.\n\nTrailer: value", commits[0].Body)
		require.Equal(t, "subject\n\nLine one.\nLine two: with colon.\n\nTrailer: value", commits[0].Message())
	})

	t.Run("empty input yields no commits", func(t *testing.T) {
		commits, err := ParseCommits("")
		require.NoError(t, err)
		require.Empty(t, commits)
	})

	t.Run("malformed record is a parse error", func(t *testing.T) {
		_, err := ParseCommits("not-a-record" + RecordSep)
		var parseErr *gferrors.ParseError
		require.ErrorAs(t, err, &parseErr)
	})

	t.Run("bad date is a parse error", func(t *testing.T) {
		raw := record("aaaa", "aa", "A", "a@x.com", "yesterday", "", "subject", "")
		_, err := ParseCommits(raw)
		var parseErr *gferrors.ParseError
		require.ErrorAs(t, err, &parseErr)
	})
}

func TestFormatCommitsRoundTrip(t *testing.T) {
	commits := []Commit{
		{
			Hash:         "aaaa",
			ShortHash:    "aa",
			AuthorName:   "Grace Hopper",
			AuthorEmail:  "grace@example.com",
			AuthorDate:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			ParentHashes: []string{"bbbb", "cccc"},
			Subject:      "Compile it",
			Body:         "A body\nwith two lines",
		},
		{
			Hash:        "bbbb",
			ShortHash:   "bb",
			AuthorName:  "Grace Hopper",
			AuthorEmail: "grace@example.com",
			AuthorDate:  time.Date(2024, 4, 30, 8, 15, 0, 0, time.UTC),
			Subject:     "Start",
		},
	}

	parsed, err := ParseCommits(FormatCommits(commits))
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	require.Equal(t, commits[0].Hash, parsed[0].Hash)
	require.Equal(t, commits[0].ParentHashes, parsed[0].ParentHashes)
	require.Equal(t, commits[0].Body, parsed[0].Body)
	require.Equal(t, commits[1].Subject, parsed[1].Subject)
	require.Empty(t, parsed[1].ParentHashes)
	require.True(t, parsed[0].AuthorDate.Equal(commits[0].AuthorDate))
}
