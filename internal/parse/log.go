// Package parse turns raw git (and git-adjacent) command output into typed
// records. Every function here is pure: no subprocess knowledge, input text
// in, records or a ParseError out. All inputs are machine-readable formats
// produced with explicit format strings or porcelain flags.
package parse

import (
	"strings"
	"time"

	gferrors "gitflow.dev/gitflow/internal/errors"
)

// Delimiters used by the log format. Subjects contain spaces, so fields are
// split on the ASCII unit separator and records on the record separator;
// neither can appear in git output for these fields.
const (
	FieldSep  = "\x1f"
	RecordSep = "\x1e"
)

// LogFormat is the --pretty format matching ParseCommits. The multi-line
// body is the last field so it cannot swallow later ones.
const LogFormat = "%H" + FieldSep + "%h" + FieldSep + "%an" + FieldSep + "%ae" + FieldSep + "%aI" + FieldSep + "%P" + FieldSep + "%s" + FieldSep + "%b" + RecordSep

const logFieldCount = 8

// Commit is an immutable snapshot of a single commit at parse time.
type Commit struct {
	Hash         string
	ShortHash    string
	AuthorName   string
	AuthorEmail  string
	AuthorDate   time.Time
	ParentHashes []string
	Subject      string
	Body         string
}

// IsMerge reports whether the commit has more than one parent.
func (c Commit) IsMerge() bool {
	return len(c.ParentHashes) > 1
}

// Message returns the full commit message (subject plus body).
func (c Commit) Message() string {
	if c.Body == "" {
		return c.Subject
	}
	return c.Subject + "\n\n" + c.Body
}

// ParseCommits parses `git log --pretty=format:LogFormat` output. Trailing
// empty records (git emits a newline between records) are tolerated.
func ParseCommits(raw string) ([]Commit, error) {
	commits := []Commit{}
	for _, record := range strings.Split(raw, RecordSep) {
		record = strings.TrimLeft(record, "\n")
		if record == "" {
			continue
		}
		fields := strings.SplitN(record, FieldSep, logFieldCount)
		if len(fields) != logFieldCount {
			return nil, gferrors.NewParseError("commit log", record, nil)
		}

		date, err := time.Parse(time.RFC3339, fields[4])
		if err != nil {
			return nil, gferrors.NewParseError("commit author date", fields[4], err)
		}

		// %P is space-separated full parent hashes; empty for root commits.
		var parents []string
		if fields[5] != "" {
			parents = strings.Split(fields[5], " ")
		}

		commits = append(commits, Commit{
			Hash:         fields[0],
			ShortHash:    fields[1],
			AuthorName:   fields[2],
			AuthorEmail:  fields[3],
			AuthorDate:   date,
			ParentHashes: parents,
			Subject:      fields[6],
			Body:         strings.TrimRight(fields[7], "\n"),
		})
	}
	return commits, nil
}

// FormatCommits is the inverse of ParseCommits for the same format string.
// Round-tripping a parsed list reproduces the original structured records.
func FormatCommits(commits []Commit) string {
	var b strings.Builder
	for i, c := range commits {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(c.Hash)
		b.WriteString(FieldSep)
		b.WriteString(c.ShortHash)
		b.WriteString(FieldSep)
		b.WriteString(c.AuthorName)
		b.WriteString(FieldSep)
		b.WriteString(c.AuthorEmail)
		b.WriteString(FieldSep)
		b.WriteString(c.AuthorDate.Format(time.RFC3339))
		b.WriteString(FieldSep)
		b.WriteString(strings.Join(c.ParentHashes, " "))
		b.WriteString(FieldSep)
		b.WriteString(c.Subject)
		b.WriteString(FieldSep)
		b.WriteString(c.Body)
		b.WriteString(RecordSep)
	}
	return b.String()
}
