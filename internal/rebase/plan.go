// Package rebase drives interactive rebases as a resumable state machine on
// top of the git facade. The engine plans a rebase as an ordered list of
// (commit, action) pairs, executes it, and pauses at edit, reword and
// conflict boundaries until the caller continues, skips or aborts.
package rebase

import (
	"fmt"

	"gitflow.dev/gitflow/internal/parse"
)

// Action is the planned instruction for one commit in the rebase range.
type Action string

const (
	ActionPick   Action = "pick"
	ActionReword Action = "reword"
	ActionEdit   Action = "edit"
	ActionSquash Action = "squash"
	ActionFixup  Action = "fixup"
	ActionDrop   Action = "drop"
)

// Entry is one commit in the rebase plan. Reordering or re-labeling never
// changes OriginalHash; it identifies the commit across the whole workflow.
type Entry struct {
	OriginalHash string
	ShortHash    string
	Message      string
	Author       string
	Action       Action
	NewMessage   string // replacement message for reword
	IsModified   bool
}

// Plan is the ordered rebase plan, oldest first: the order git applies
// commits, which is the opposite of how histories are usually displayed.
type Plan struct {
	entries []Entry
}

// NewPlan builds the initial plan from a commit range in application order
// (oldest first), every entry defaulting to pick.
func NewPlan(commits []parse.Commit) *Plan {
	entries := make([]Entry, 0, len(commits))
	for _, c := range commits {
		entries = append(entries, Entry{
			OriginalHash: c.Hash,
			ShortHash:    c.ShortHash,
			Message:      c.Subject,
			Author:       c.AuthorName,
			Action:       ActionPick,
		})
	}
	return &Plan{entries: entries}
}

// Entries returns a copy of the plan in application order.
func (p *Plan) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Len returns the number of entries.
func (p *Plan) Len() int {
	return len(p.entries)
}

// SetAction relabels the entry at index i.
func (p *Plan) SetAction(i int, action Action) error {
	if i < 0 || i >= len(p.entries) {
		return fmt.Errorf("plan index %d out of range", i)
	}
	p.entries[i].Action = action
	p.entries[i].IsModified = true
	return nil
}

// SetMessage records a replacement message for the entry at index i and
// marks it as a reword.
func (p *Plan) SetMessage(i int, message string) error {
	if i < 0 || i >= len(p.entries) {
		return fmt.Errorf("plan index %d out of range", i)
	}
	p.entries[i].NewMessage = message
	p.entries[i].Action = ActionReword
	p.entries[i].IsModified = true
	return nil
}

// Move reorders the entry at from to position to, shifting the rest.
func (p *Plan) Move(from, to int) error {
	if from < 0 || from >= len(p.entries) || to < 0 || to >= len(p.entries) {
		return fmt.Errorf("plan move %d -> %d out of range", from, to)
	}
	if from == to {
		return nil
	}
	e := p.entries[from]
	p.entries = append(p.entries[:from], p.entries[from+1:]...)
	rest := append([]Entry{}, p.entries[to:]...)
	p.entries = append(append(p.entries[:to:to], e), rest...)
	p.entries[to].IsModified = true
	return nil
}

// rewords returns the original-hash -> new-message map for reword entries.
func (p *Plan) rewords() map[string]string {
	m := map[string]string{}
	for _, e := range p.entries {
		if e.Action == ActionReword && e.NewMessage != "" {
			m[e.OriginalHash] = e.NewMessage
		}
	}
	return m
}

// todo renders the plan as rebase-todo entries. Reword entries are written
// as edit: the non-interactive editor override cannot supply a new message,
// so the engine stops at the commit and amends it with the stored message
// before continuing.
func (p *Plan) todo() []parse.TodoEntry {
	entries := make([]parse.TodoEntry, 0, len(p.entries))
	for _, e := range p.entries {
		action := parse.TodoAction(e.Action)
		if e.Action == ActionReword {
			action = parse.TodoEdit
		}
		entries = append(entries, parse.TodoEntry{
			Action:  action,
			Hash:    e.OriginalHash,
			Message: e.Message,
		})
	}
	return entries
}

// steps counts the apply steps git will execute; drop entries produce none.
func (p *Plan) steps() int {
	n := 0
	for _, e := range p.entries {
		if e.Action != ActionDrop {
			n++
		}
	}
	return n
}
