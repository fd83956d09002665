package parse

import (
	"fmt"
	"strings"

	gferrors "gitflow.dev/gitflow/internal/errors"
)

// TodoAction is a rebase-todo instruction verb.
type TodoAction string

const (
	TodoPick   TodoAction = "pick"
	TodoReword TodoAction = "reword"
	TodoEdit   TodoAction = "edit"
	TodoSquash TodoAction = "squash"
	TodoFixup  TodoAction = "fixup"
	TodoDrop   TodoAction = "drop"
)

// todoAliases maps the single-letter forms git accepts to their verbs.
var todoAliases = map[string]TodoAction{
	"p": TodoPick, "pick": TodoPick,
	"r": TodoReword, "reword": TodoReword,
	"e": TodoEdit, "edit": TodoEdit,
	"s": TodoSquash, "squash": TodoSquash,
	"f": TodoFixup, "fixup": TodoFixup,
	"d": TodoDrop, "drop": TodoDrop,
}

// TodoEntry is one `<action> <hash> <message>` line of a rebase-todo file,
// in the order git applies them (oldest first).
type TodoEntry struct {
	Action  TodoAction
	Hash    string
	Message string
}

// ParseTodo parses a git-rebase-todo file. Comment and blank lines are
// skipped; an unrecognized action verb fails the parse since the engine is
// about to rewrite this file and must not silently drop instructions.
func ParseTodo(raw string) ([]TodoEntry, error) {
	entries := []TodoEntry{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, " ", 3)
		if len(parts) < 2 {
			return nil, gferrors.NewParseError("rebase todo", line, nil)
		}
		action, ok := todoAliases[parts[0]]
		if !ok {
			return nil, gferrors.NewParseError("rebase todo action", line, nil)
		}
		entry := TodoEntry{Action: action, Hash: parts[1]}
		if len(parts) == 3 {
			entry.Message = parts[2]
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// FormatTodo renders entries back into rebase-todo lines, oldest first.
// Messages are flattened to their first line: the todo format is line
// oriented and an embedded newline would be read as a new instruction.
func FormatTodo(entries []TodoEntry) string {
	var b strings.Builder
	for _, e := range entries {
		msg := e.Message
		if i := strings.IndexByte(msg, '\n'); i >= 0 {
			msg = msg[:i]
		}
		if msg == "" {
			fmt.Fprintf(&b, "%s %s\n", e.Action, e.Hash)
			continue
		}
		fmt.Fprintf(&b, "%s %s %s\n", e.Action, e.Hash, msg)
	}
	return b.String()
}
