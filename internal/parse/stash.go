package parse

import (
	"strconv"
	"strings"
	"time"

	gferrors "gitflow.dev/gitflow/internal/errors"
)

// StashEntry is one line of `git stash list`, newest first.
type StashEntry struct {
	Index   int    // position in the stash stack; 0 is the most recent
	Ref     string // e.g. stash@{0}
	Branch  string // branch the stash was created on, "" if unknown
	Message string
	Date    time.Time
}

// StashFormat is the --format matching ParseStashes.
const StashFormat = "%gd" + FieldSep + "%gs" + FieldSep + "%aI"

const stashFieldCount = 3

// ParseStashes parses `git stash list --format=StashFormat` output.
func ParseStashes(raw string) ([]StashEntry, error) {
	stashes := []StashEntry{}
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.SplitN(line, FieldSep, stashFieldCount)
		if len(fields) != stashFieldCount {
			return nil, gferrors.NewParseError("stash entry", line, nil)
		}

		index, err := parseStashIndex(fields[0])
		if err != nil {
			return nil, err
		}
		date, err := time.Parse(time.RFC3339, fields[2])
		if err != nil {
			return nil, gferrors.NewParseError("stash date", fields[2], err)
		}

		branch, message := splitStashSubject(fields[1])
		stashes = append(stashes, StashEntry{
			Index:   index,
			Ref:     fields[0],
			Branch:  branch,
			Message: message,
			Date:    date,
		})
	}
	return stashes, nil
}

// parseStashIndex extracts N from "stash@{N}".
func parseStashIndex(ref string) (int, error) {
	open := strings.IndexByte(ref, '{')
	close := strings.IndexByte(ref, '}')
	if open < 0 || close <= open {
		return 0, gferrors.NewParseError("stash ref", ref, nil)
	}
	index, err := strconv.Atoi(ref[open+1 : close])
	if err != nil {
		return 0, gferrors.NewParseError("stash ref", ref, err)
	}
	return index, nil
}

// splitStashSubject splits "WIP on main: abc1234 msg" or "On main: msg"
// into branch and message. Unrecognized subjects keep the whole text as the
// message with an empty branch.
func splitStashSubject(subject string) (branch, message string) {
	rest := subject
	switch {
	case strings.HasPrefix(rest, "WIP on "):
		rest = strings.TrimPrefix(rest, "WIP on ")
	case strings.HasPrefix(rest, "On "):
		rest = strings.TrimPrefix(rest, "On ")
	default:
		return "", subject
	}
	colon := strings.Index(rest, ": ")
	if colon < 0 {
		return "", subject
	}
	return rest[:colon], rest[colon+2:]
}
