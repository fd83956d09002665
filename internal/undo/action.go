// Package undo implements a command-pattern stack of reversible git
// actions. Each recorded action carries exactly the pre-state needed to
// reverse itself; reversal reconstructs the git invocation from captured
// hashes rather than trusting moving targets like ORIG_HEAD.
package undo

import (
	"time"

	"github.com/google/uuid"

	"gitflow.dev/gitflow/internal/git"
)

// Kind is the closed set of reversible action variants. Reversal logic
// dispatches over Kind with an exhaustive switch, so a new variant without
// reversal logic is caught at review, not at runtime.
type Kind string

const (
	KindCommit       Kind = "commit"
	KindBranchCreate Kind = "branch-create"
	KindBranchDelete Kind = "branch-delete"
	KindCheckout     Kind = "checkout"
	KindMerge        Kind = "merge"
	KindRebase       Kind = "rebase"
	KindStashApply   Kind = "stash-apply"
	KindTagCreate    Kind = "tag-create"
	KindReset        Kind = "reset"
	KindCherryPick   Kind = "cherry-pick"
	KindDiscard      Kind = "discard"
)

// Action is an immutable record of a completed reversible operation. Only
// the fields relevant to its Kind are populated; the rest stay zero.
type Action struct {
	ID             string
	Kind           Kind
	Description    string
	Timestamp      time.Time
	RepositoryPath string

	PreviousHead   string
	NewHead        string
	PreviousBranch string
	BranchName     string
	TagName        string
	TargetHash     string // branch/tag target for recreate-style reversals
	StashHash      string
	ResetMode      git.ResetMode
	BackupID       string // discard backup to restore
	Paths          []string
}

func newAction(kind Kind, repoPath, description string) Action {
	return Action{
		ID:             uuid.NewString(),
		Kind:           kind,
		Description:    description,
		Timestamp:      time.Now(),
		RepositoryPath: repoPath,
	}
}

// NewCommitAction records a commit for reversal by soft reset.
func NewCommitAction(repoPath string, res git.CommitResult) Action {
	a := newAction(KindCommit, repoPath, "commit "+res.Subject)
	a.PreviousHead = res.PreviousHead
	a.NewHead = res.NewHead
	return a
}

// NewCheckoutAction records a branch switch.
func NewCheckoutAction(repoPath string, res git.CheckoutResult) Action {
	a := newAction(KindCheckout, repoPath, "checkout "+res.NewBranch)
	a.PreviousBranch = res.PreviousBranch
	a.PreviousHead = res.PreviousHead
	a.BranchName = res.NewBranch
	return a
}

// NewBranchCreateAction records a branch creation.
func NewBranchCreateAction(repoPath string, res git.BranchResult) Action {
	a := newAction(KindBranchCreate, repoPath, "create branch "+res.Name)
	a.BranchName = res.Name
	a.TargetHash = res.StartPoint
	return a
}

// NewBranchDeleteAction records a branch deletion.
func NewBranchDeleteAction(repoPath string, res git.BranchResult) Action {
	a := newAction(KindBranchDelete, repoPath, "delete branch "+res.Name)
	a.BranchName = res.Name
	a.TargetHash = res.DeletedHash
	return a
}

// NewMergeAction records a merge.
func NewMergeAction(repoPath string, res git.MergeResult) Action {
	a := newAction(KindMerge, repoPath, "merge "+res.MergedBranch)
	a.PreviousHead = res.PreviousHead
	a.NewHead = res.NewHead
	a.BranchName = res.MergedBranch
	return a
}

// NewRebaseAction records a completed rebase, reversed by hard reset to the
// pre-rebase head.
func NewRebaseAction(repoPath, previousHead, newHead, onto string) Action {
	a := newAction(KindRebase, repoPath, "rebase onto "+onto)
	a.PreviousHead = previousHead
	a.NewHead = newHead
	return a
}

// NewStashApplyAction records a stash apply.
func NewStashApplyAction(repoPath, previousHead, stashHash string) Action {
	a := newAction(KindStashApply, repoPath, "apply stash")
	a.PreviousHead = previousHead
	a.StashHash = stashHash
	return a
}

// NewTagCreateAction records a tag creation.
func NewTagCreateAction(repoPath string, res git.TagResult) Action {
	a := newAction(KindTagCreate, repoPath, "create tag "+res.Name)
	a.TagName = res.Name
	a.TargetHash = res.Target
	return a
}

// NewResetAction records a reset.
func NewResetAction(repoPath string, res git.ResetResult) Action {
	a := newAction(KindReset, repoPath, "reset --"+string(res.Mode)+" to "+res.Target)
	a.PreviousHead = res.PreviousHead
	a.NewHead = res.NewHead
	a.ResetMode = res.Mode
	return a
}

// NewCherryPickAction records a cherry-pick.
func NewCherryPickAction(repoPath string, res git.CherryPickResult) Action {
	a := newAction(KindCherryPick, repoPath, "cherry-pick "+shortHash(res.PickedHash))
	a.PreviousHead = res.PreviousHead
	a.NewHead = res.NewHead
	a.TargetHash = res.PickedHash
	return a
}

// NewDiscardAction records a discard whose file contents were captured in
// the backup store under backupID.
func NewDiscardAction(repoPath, backupID, description string, paths []string) Action {
	a := newAction(KindDiscard, repoPath, description)
	a.BackupID = backupID
	a.Paths = paths
	return a
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
