package parse

import (
	"strings"
	"time"

	gferrors "gitflow.dev/gitflow/internal/errors"
)

// ReflogAction classifies the operation that moved a ref. The set of reflog
// subjects git can produce is not fully enumerable, so unrecognized subjects
// map to ReflogUnknown rather than failing the parse.
type ReflogAction string

const (
	ReflogCommit            ReflogAction = "commit"
	ReflogCommitAmend       ReflogAction = "commit (amend)"
	ReflogCommitInitial     ReflogAction = "commit (initial)"
	ReflogCheckout          ReflogAction = "checkout"
	ReflogReset             ReflogAction = "reset"
	ReflogRebase            ReflogAction = "rebase"
	ReflogRebaseInteractive ReflogAction = "rebase -i"
	ReflogMerge             ReflogAction = "merge"
	ReflogCherryPick        ReflogAction = "cherry-pick"
	ReflogBranch            ReflogAction = "branch"
	ReflogPull              ReflogAction = "pull"
	ReflogClone             ReflogAction = "clone"
	ReflogRevert            ReflogAction = "revert"
	ReflogUnknown           ReflogAction = "unknown"
)

// ReflogEntry is one line of `git reflog` in selector order, newest first.
type ReflogEntry struct {
	Selector   string // e.g. HEAD@{0}
	Action     ReflogAction
	Hash       string
	Summary    string // subject with the action prefix stripped
	Date       time.Time
	AuthorName string
}

// ReflogFormat is the --format matching ParseReflog.
const ReflogFormat = "%H" + FieldSep + "%gd" + FieldSep + "%gs" + FieldSep + "%aI" + FieldSep + "%an"

const reflogFieldCount = 5

// ParseReflog parses `git reflog --format=ReflogFormat` output, one entry
// per line.
func ParseReflog(raw string) ([]ReflogEntry, error) {
	entries := []ReflogEntry{}
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.SplitN(line, FieldSep, reflogFieldCount)
		if len(fields) != reflogFieldCount {
			return nil, gferrors.NewParseError("reflog entry", line, nil)
		}

		date, err := time.Parse(time.RFC3339, fields[3])
		if err != nil {
			return nil, gferrors.NewParseError("reflog date", fields[3], err)
		}

		action, summary := classifyReflogSubject(fields[2])
		entries = append(entries, ReflogEntry{
			Hash:       fields[0],
			Selector:   fields[1],
			Action:     action,
			Summary:    summary,
			Date:       date,
			AuthorName: fields[4],
		})
	}
	return entries, nil
}

// reflogPrefixes is checked in order; longer variants of the same verb come
// first so "commit (amend):" does not classify as plain "commit".
var reflogPrefixes = []struct {
	prefix string
	action ReflogAction
}{
	{"commit (amend):", ReflogCommitAmend},
	{"commit (initial):", ReflogCommitInitial},
	{"commit (merge):", ReflogMerge},
	{"commit:", ReflogCommit},
	{"checkout:", ReflogCheckout},
	{"reset:", ReflogReset},
	{"rebase (start):", ReflogRebase},
	{"rebase (pick):", ReflogRebase},
	{"rebase (finish):", ReflogRebase},
	{"rebase (abort):", ReflogRebase},
	{"rebase (continue):", ReflogRebase},
	{"rebase -i (start):", ReflogRebaseInteractive},
	{"rebase -i (pick):", ReflogRebaseInteractive},
	{"rebase -i (edit):", ReflogRebaseInteractive},
	{"rebase -i (reword):", ReflogRebaseInteractive},
	{"rebase -i (squash):", ReflogRebaseInteractive},
	{"rebase -i (fixup):", ReflogRebaseInteractive},
	{"rebase -i (finish):", ReflogRebaseInteractive},
	{"rebase -i (abort):", ReflogRebaseInteractive},
	{"rebase -i (continue):", ReflogRebaseInteractive},
	{"rebase:", ReflogRebase},
	{"merge", ReflogMerge},
	{"cherry-pick:", ReflogCherryPick},
	{"branch:", ReflogBranch},
	{"Branch:", ReflogBranch},
	{"pull:", ReflogPull},
	{"clone:", ReflogClone},
	{"revert:", ReflogRevert},
}

func classifyReflogSubject(subject string) (ReflogAction, string) {
	for _, p := range reflogPrefixes {
		if strings.HasPrefix(subject, p.prefix) {
			return p.action, strings.TrimSpace(strings.TrimPrefix(subject, p.prefix))
		}
	}
	return ReflogUnknown, strings.TrimSpace(subject)
}
