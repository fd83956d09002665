package undo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"gitflow.dev/gitflow/internal/backup"
	gferrors "gitflow.dev/gitflow/internal/errors"
	"gitflow.dev/gitflow/internal/git"
)

// DefaultMaxDepth caps each stack; the oldest entries are silently evicted.
const DefaultMaxDepth = 50

// RepoFunc resolves a repository path to its facade. Actions are process
// wide and may target different repositories, so the manager looks the repo
// up per action rather than holding one.
type RepoFunc func(path string) (*git.Repo, error)

// Depths reports stack sizes for observers.
type Depths struct {
	Undo int
	Redo int
}

// Manager holds the process-wide undo and redo stacks. Recording a new
// action clears the redo stack (linear history, no branching redo). A
// failed reversal pushes the action back, so a failed undo never loses
// history: the attempt is treated as not having happened.
//
// Stacks live in memory; repositories registered via AttachRepository
// additionally persist their slice of the stacks under the repo's git dir,
// so history survives short-lived processes.
type Manager struct {
	repoFor  RepoFunc
	backups  *backup.Store
	maxDepth int

	mu        sync.Mutex
	undoStack []Action
	redoStack []Action
	stateDirs map[string]string // repo path -> persistence dir

	subMu   sync.Mutex
	subs    map[int]func(Depths)
	nextSub int
}

// NewManager creates a Manager with the given repo resolver and backup
// store. maxDepth <= 0 means DefaultMaxDepth.
func NewManager(repoFor RepoFunc, backups *backup.Store, maxDepth int) *Manager {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Manager{
		repoFor:   repoFor,
		backups:   backups,
		maxDepth:  maxDepth,
		stateDirs: map[string]string{},
		subs:      map[int]func(Depths){},
	}
}

// AttachRepository loads the stacks previously persisted for repo and
// registers it for persistence: later mutations touching the repository are
// written back to <git-dir>/gitflow/undo.json. Attaching twice is a no-op.
// Repositories never attached stay purely in memory.
func (m *Manager) AttachRepository(ctx context.Context, repo *git.Repo) error {
	gitDir, err := repo.GitDir(ctx)
	if err != nil {
		return err
	}
	dir := filepath.Join(gitDir, "gitflow")

	m.mu.Lock()
	if _, ok := m.stateDirs[repo.Root()]; ok {
		m.mu.Unlock()
		return nil
	}
	m.stateDirs[repo.Root()] = dir
	m.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(dir, stacksFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var st persistedStacks
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("failed to parse undo history: %w", err)
	}

	// Persisted entries predate anything recorded this session, so they go
	// to the bottom of the stacks.
	m.mu.Lock()
	m.undoStack = capStack(append(st.Undo, m.undoStack...), m.maxDepth)
	m.redoStack = capStack(append(st.Redo, m.redoStack...), m.maxDepth)
	m.mu.Unlock()
	m.notify()
	return nil
}

// Record pushes a completed action onto the undo stack, evicting the oldest
// entry at the depth cap, and clears the redo stack.
func (m *Manager) Record(a Action) {
	m.mu.Lock()
	m.undoStack = capStack(append(m.undoStack, a), m.maxDepth)
	m.redoStack = m.redoStack[:0]
	m.mu.Unlock()

	log.Debug().Str("kind", string(a.Kind)).Str("desc", a.Description).Msg("recorded action")
	m.persist(a.RepositoryPath)
	m.notify()
}

// Undo pops the most recent action and reverses it. On success the action
// moves to the redo stack; on failure it is pushed back and the error
// propagates.
func (m *Manager) Undo(ctx context.Context) (Action, error) {
	m.mu.Lock()
	if len(m.undoStack) == 0 {
		m.mu.Unlock()
		return Action{}, gferrors.ErrNothingToUndo
	}
	a := m.undoStack[len(m.undoStack)-1]
	m.undoStack = m.undoStack[:len(m.undoStack)-1]
	m.mu.Unlock()

	if err := m.reverse(ctx, a); err != nil {
		m.mu.Lock()
		m.undoStack = append(m.undoStack, a)
		m.mu.Unlock()
		return Action{}, err
	}

	m.mu.Lock()
	m.redoStack = append(m.redoStack, a)
	m.mu.Unlock()
	m.persist(a.RepositoryPath)
	m.notify()
	return a, nil
}

// Redo pops the most recent undone action and replays it. Variants whose
// reversal consumed the original content fail with ErrRedoNotSupported
// before any git invocation; the action stays available for redo should a
// later version learn to replay it. As with Undo, a failed replay pushes
// the action back.
func (m *Manager) Redo(ctx context.Context) (Action, error) {
	m.mu.Lock()
	if len(m.redoStack) == 0 {
		m.mu.Unlock()
		return Action{}, gferrors.ErrNothingToRedo
	}
	a := m.redoStack[len(m.redoStack)-1]
	m.redoStack = m.redoStack[:len(m.redoStack)-1]
	m.mu.Unlock()

	if err := m.replay(ctx, a); err != nil {
		m.mu.Lock()
		m.redoStack = append(m.redoStack, a)
		m.mu.Unlock()
		return Action{}, err
	}

	m.mu.Lock()
	m.undoStack = append(m.undoStack, a)
	m.mu.Unlock()
	m.persist(a.RepositoryPath)
	m.notify()
	return a, nil
}

// Depths returns the current stack sizes.
func (m *Manager) Depths() Depths {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Depths{Undo: len(m.undoStack), Redo: len(m.redoStack)}
}

// PeekUndo returns the action Undo would reverse next.
func (m *Manager) PeekUndo() (Action, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.undoStack) == 0 {
		return Action{}, false
	}
	return m.undoStack[len(m.undoStack)-1], true
}

// PeekRedo returns the action Redo would replay next.
func (m *Manager) PeekRedo() (Action, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.redoStack) == 0 {
		return Action{}, false
	}
	return m.redoStack[len(m.redoStack)-1], true
}

// History returns the undo stack, most recent last.
func (m *Manager) History() []Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Action, len(m.undoStack))
	copy(out, m.undoStack)
	return out
}

// ClearRepository drops all actions recorded against the given repository
// path from both stacks. The stacks are process wide, so closing one
// repository must not clear another's history.
func (m *Manager) ClearRepository(repoPath string) {
	m.mu.Lock()
	m.undoStack = filterActions(m.undoStack, repoPath)
	m.redoStack = filterActions(m.redoStack, repoPath)
	m.mu.Unlock()
	m.persist(repoPath)
	m.notify()
}

// Subscribe registers fn for stack-depth changes and returns an unsubscribe
// function.
func (m *Manager) Subscribe(fn func(Depths)) func() {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Manager) notify() {
	d := m.Depths()
	m.subMu.Lock()
	subs := make([]func(Depths), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.subMu.Unlock()
	for _, fn := range subs {
		fn(d)
	}
}

const stacksFile = "undo.json"

// persistedStacks is the on-disk form of one repository's slice of the
// stacks, oldest first.
type persistedStacks struct {
	Undo []Action `json:"undo"`
	Redo []Action `json:"redo"`
}

// persist writes the actions recorded against repoPath back to its state
// file. Best effort: a failed write costs cross-process history, not the
// in-memory session.
func (m *Manager) persist(repoPath string) {
	m.mu.Lock()
	dir, ok := m.stateDirs[repoPath]
	if !ok {
		m.mu.Unlock()
		return
	}
	st := persistedStacks{
		Undo: keepActions(m.undoStack, repoPath),
		Redo: keepActions(m.redoStack, repoPath),
	}
	m.mu.Unlock()

	data, err := json.MarshalIndent(st, "", "  ")
	if err == nil {
		if err = os.MkdirAll(dir, 0o700); err == nil {
			path := filepath.Join(dir, stacksFile)
			tmp := path + ".tmp"
			if err = os.WriteFile(tmp, data, 0o600); err == nil {
				err = os.Rename(tmp, path)
			}
		}
	}
	if err != nil {
		log.Debug().Err(err).Str("repo", repoPath).Msg("persist undo history")
	}
}

func capStack(actions []Action, maxDepth int) []Action {
	if len(actions) <= maxDepth {
		return actions
	}
	return append(actions[:0:0], actions[len(actions)-maxDepth:]...)
}

func keepActions(actions []Action, repoPath string) []Action {
	kept := []Action{}
	for _, a := range actions {
		if a.RepositoryPath == repoPath {
			kept = append(kept, a)
		}
	}
	return kept
}

func filterActions(actions []Action, repoPath string) []Action {
	kept := actions[:0]
	for _, a := range actions {
		if a.RepositoryPath != repoPath {
			kept = append(kept, a)
		}
	}
	return kept
}

// reverse performs the variant's undo invocation. The switch is exhaustive
// over Kind.
func (m *Manager) reverse(ctx context.Context, a Action) error {
	repo, err := m.repoFor(a.RepositoryPath)
	if err != nil {
		return err
	}

	switch a.Kind {
	case KindCommit:
		if a.PreviousHead == "" {
			return gferrors.NewOperationError("undo commit", "cannot undo the initial commit", nil)
		}
		// Soft reset keeps the commit's changes staged.
		_, err := repo.Reset(ctx, git.ResetSoft, a.PreviousHead)
		return err

	case KindCheckout:
		if a.PreviousBranch == "" {
			return repo.CheckoutDetached(ctx, a.PreviousHead)
		}
		_, err := repo.Checkout(ctx, a.PreviousBranch)
		return err

	case KindBranchCreate:
		_, err := repo.DeleteBranch(ctx, a.BranchName)
		return err

	case KindBranchDelete:
		_, err := repo.CreateBranch(ctx, a.BranchName, a.TargetHash)
		return err

	case KindMerge, KindRebase, KindCherryPick:
		_, err := repo.Reset(ctx, git.ResetHard, a.PreviousHead)
		return err

	case KindStashApply:
		// Drop the applied changes; the stash commit itself still holds them.
		_, err := repo.Reset(ctx, git.ResetHard, a.PreviousHead)
		return err

	case KindTagCreate:
		_, err := repo.DeleteTag(ctx, a.TagName)
		return err

	case KindReset:
		mode := git.ResetHard
		if a.ResetMode == git.ResetSoft {
			mode = git.ResetSoft
		}
		_, err := repo.Reset(ctx, mode, a.PreviousHead)
		return err

	case KindDiscard:
		if m.backups == nil {
			return gferrors.NewOperationError("undo discard", "no backup store configured", nil)
		}
		_, err := m.backups.Restore(a.BackupID)
		return err
	}
	return fmt.Errorf("no reversal logic for action kind %q", a.Kind)
}

// replay performs the variant's redo invocation, reconstructing the
// original effect from captured hashes.
func (m *Manager) replay(ctx context.Context, a Action) error {
	switch a.Kind {
	case KindCommit, KindDiscard:
		// Undoing a commit discards the exact original commit object's
		// identity, and restoring a discard consumes its backup; recreating
		// either would be a lossy approximation.
		return gferrors.ErrRedoNotSupported
	}

	repo, err := m.repoFor(a.RepositoryPath)
	if err != nil {
		return err
	}

	switch a.Kind {
	case KindCheckout:
		_, err := repo.Checkout(ctx, a.BranchName)
		return err

	case KindBranchCreate:
		_, err := repo.CreateBranch(ctx, a.BranchName, a.TargetHash)
		return err

	case KindBranchDelete:
		_, err := repo.DeleteBranch(ctx, a.BranchName)
		return err

	case KindMerge, KindRebase, KindCherryPick:
		// The commits created the first time around still exist; moving the
		// ref back restores the exact post-operation state.
		_, err := repo.Reset(ctx, git.ResetHard, a.NewHead)
		return err

	case KindStashApply:
		return repo.ApplyStash(ctx, a.StashHash)

	case KindTagCreate:
		_, err := repo.CreateTag(ctx, a.TagName, a.TargetHash, "")
		return err

	case KindReset:
		mode := git.ResetHard
		if a.ResetMode == git.ResetSoft {
			mode = git.ResetSoft
		}
		_, err := repo.Reset(ctx, mode, a.NewHead)
		return err
	}
	return fmt.Errorf("no replay logic for action kind %q", a.Kind)
}
