package undo_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"gitflow.dev/gitflow/internal/backup"
	gferrors "gitflow.dev/gitflow/internal/errors"
	"gitflow.dev/gitflow/internal/git"
	"gitflow.dev/gitflow/internal/undo"
	"gitflow.dev/gitflow/testhelpers"
)

type fixture struct {
	scene   *testhelpers.Scene
	repo    *git.Repo
	backups *backup.Store
	mgr     *undo.Manager
}

func newFixture(t *testing.T, maxDepth int) *fixture {
	t.Helper()
	scene := testhelpers.NewScene(t, nil)
	repo, err := git.Open(scene.Dir)
	require.NoError(t, err)

	store, err := backup.Open(filepath.Join(t.TempDir(), "backups"), backup.Options{})
	require.NoError(t, err)

	repoFor := func(path string) (*git.Repo, error) {
		if path == repo.Root() {
			return repo, nil
		}
		return git.Open(path)
	}
	return &fixture{
		scene:   scene,
		repo:    repo,
		backups: store,
		mgr:     undo.NewManager(repoFor, store, maxDepth),
	}
}

func (f *fixture) commit(t *testing.T, message string) git.CommitResult {
	t.Helper()
	require.NoError(t, f.scene.Repo.CreateChange(message, message, false))
	res, err := f.repo.CreateCommit(context.Background(), message)
	require.NoError(t, err)
	return res
}

func TestUndoCommit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	res := f.commit(t, "undoable")
	f.mgr.Record(undo.NewCommitAction(f.repo.Root(), res))

	action, err := f.mgr.Undo(ctx)
	require.NoError(t, err)
	require.Equal(t, undo.KindCommit, action.Kind)

	// Soft reset: HEAD moved back, changes still staged.
	head, err := f.repo.Head(ctx)
	require.NoError(t, err)
	require.Equal(t, res.PreviousHead, head)

	entries, err := f.repo.Status(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	require.True(t, entries[0].Staged())
}

func TestRedoCommitNotSupported(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	res := f.commit(t, "one shot")
	f.mgr.Record(undo.NewCommitAction(f.repo.Root(), res))
	_, err := f.mgr.Undo(ctx)
	require.NoError(t, err)

	_, err = f.mgr.Redo(ctx)
	require.ErrorIs(t, err, gferrors.ErrRedoNotSupported)

	// The action stays on the redo stack: the refusal had no effect.
	depths := f.mgr.Depths()
	require.Equal(t, 1, depths.Redo)
}

func TestUndoRedoCheckout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	require.NoError(t, f.scene.Repo.CreateBranch("topic"))

	res, err := f.repo.Checkout(ctx, "topic")
	require.NoError(t, err)
	f.mgr.Record(undo.NewCheckoutAction(f.repo.Root(), res))

	_, err = f.mgr.Undo(ctx)
	require.NoError(t, err)
	branch, err := f.scene.Repo.CurrentBranchName()
	require.NoError(t, err)
	require.Equal(t, "main", branch)

	_, err = f.mgr.Redo(ctx)
	require.NoError(t, err)
	branch, err = f.scene.Repo.CurrentBranchName()
	require.NoError(t, err)
	require.Equal(t, "topic", branch)
}

func TestUndoBranchLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	created, err := f.repo.CreateBranch(ctx, "feature", "")
	require.NoError(t, err)
	f.mgr.Record(undo.NewBranchCreateAction(f.repo.Root(), created))

	_, err = f.mgr.Undo(ctx)
	require.NoError(t, err)
	testhelpers.ExpectBranches(t, f.scene.Repo, []string{"main"})

	_, err = f.mgr.Redo(ctx)
	require.NoError(t, err)
	testhelpers.ExpectBranches(t, f.scene.Repo, []string{"main", "feature"})

	deleted, err := f.repo.DeleteBranch(ctx, "feature")
	require.NoError(t, err)
	f.mgr.Record(undo.NewBranchDeleteAction(f.repo.Root(), deleted))

	_, err = f.mgr.Undo(ctx)
	require.NoError(t, err)
	testhelpers.ExpectBranches(t, f.scene.Repo, []string{"main", "feature"})
}

func TestUndoDiscardRestoresBackup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	require.NoError(t, f.scene.Repo.CommitFile("hello.txt", "hello", "add hello"))
	require.NoError(t, f.scene.Repo.WriteFile("hello.txt", "goodbye"))

	path := filepath.Join(f.repo.Root(), "hello.txt")
	b, err := f.backups.Capture(f.repo.Root(), "discard hello.txt", []string{path})
	require.NoError(t, err)
	_, err = f.repo.DiscardPaths(ctx, "hello.txt")
	require.NoError(t, err)
	f.mgr.Record(undo.NewDiscardAction(f.repo.Root(), b.ID, "discard hello.txt", []string{"hello.txt"}))

	content, err := f.scene.Repo.ReadFile("hello.txt")
	require.NoError(t, err)
	require.Equal(t, "hello", content)

	_, err = f.mgr.Undo(ctx)
	require.NoError(t, err)
	content, err = f.scene.Repo.ReadFile("hello.txt")
	require.NoError(t, err)
	require.Equal(t, "goodbye", content)

	// The backup was consumed by the restore; redo is refused.
	_, err = f.mgr.Redo(ctx)
	require.ErrorIs(t, err, gferrors.ErrRedoNotSupported)
}

func TestStackInvariants(t *testing.T) {
	ctx := context.Background()

	t.Run("empty stacks yield sentinel errors", func(t *testing.T) {
		f := newFixture(t, 0)
		_, err := f.mgr.Undo(ctx)
		require.ErrorIs(t, err, gferrors.ErrNothingToUndo)
		_, err = f.mgr.Redo(ctx)
		require.ErrorIs(t, err, gferrors.ErrNothingToRedo)
	})

	t.Run("recording clears the redo stack", func(t *testing.T) {
		f := newFixture(t, 0)
		require.NoError(t, f.scene.Repo.CreateBranch("topic"))

		res, err := f.repo.Checkout(ctx, "topic")
		require.NoError(t, err)
		f.mgr.Record(undo.NewCheckoutAction(f.repo.Root(), res))
		_, err = f.mgr.Undo(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, f.mgr.Depths().Redo)

		created, err := f.repo.CreateBranch(ctx, "other", "")
		require.NoError(t, err)
		f.mgr.Record(undo.NewBranchCreateAction(f.repo.Root(), created))
		require.Equal(t, 0, f.mgr.Depths().Redo)
	})

	t.Run("depth cap evicts the oldest silently", func(t *testing.T) {
		f := newFixture(t, 3)
		for i := 0; i < 5; i++ {
			res := f.commit(t, string(rune('a'+i)))
			f.mgr.Record(undo.NewCommitAction(f.repo.Root(), res))
		}
		require.Equal(t, 3, f.mgr.Depths().Undo)

		// The newest three survive.
		next, ok := f.mgr.PeekUndo()
		require.True(t, ok)
		require.Equal(t, "commit e", next.Description)
	})

	t.Run("failed undo pushes the action back", func(t *testing.T) {
		f := newFixture(t, 0)
		bogus := undo.NewRebaseAction(f.repo.Root(),
			"0000000000000000000000000000000000000001",
			"0000000000000000000000000000000000000002", "main")
		f.mgr.Record(bogus)

		_, err := f.mgr.Undo(ctx)
		require.Error(t, err)
		require.Equal(t, 1, f.mgr.Depths().Undo)
		require.Equal(t, 0, f.mgr.Depths().Redo)
	})
}

func TestHistoryAndClear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	first := f.commit(t, "first")
	f.mgr.Record(undo.NewCommitAction(f.repo.Root(), first))
	second := f.commit(t, "second")
	f.mgr.Record(undo.NewCommitAction(f.repo.Root(), second))

	history := f.mgr.History()
	require.Len(t, history, 2)
	require.Equal(t, "commit first", history[0].Description)
	require.Equal(t, "commit second", history[1].Description)

	f.mgr.ClearRepository(f.repo.Root())
	require.Equal(t, 0, f.mgr.Depths().Undo)
	_, err := f.mgr.Undo(ctx)
	require.ErrorIs(t, err, gferrors.ErrNothingToUndo)
}

func TestSubscribe(t *testing.T) {
	f := newFixture(t, 0)

	var seen []undo.Depths
	unsubscribe := f.mgr.Subscribe(func(d undo.Depths) {
		seen = append(seen, d)
	})

	res := f.commit(t, "watched")
	f.mgr.Record(undo.NewCommitAction(f.repo.Root(), res))
	require.NotEmpty(t, seen)
	require.Equal(t, 1, seen[len(seen)-1].Undo)

	unsubscribe()
	before := len(seen)
	f.mgr.ClearRepository(f.repo.Root())
	require.Equal(t, before, len(seen))
}

func TestHistoryPersistsAcrossManagers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	require.NoError(t, f.mgr.AttachRepository(ctx, f.repo))

	res := f.commit(t, "persisted")
	f.mgr.Record(undo.NewCommitAction(f.repo.Root(), res))

	repoFor := func(path string) (*git.Repo, error) { return f.repo, nil }

	// A second manager, as a new process would build one, sees the recorded
	// action once the repository is attached.
	fresh := undo.NewManager(repoFor, f.backups, 0)
	require.Equal(t, 0, fresh.Depths().Undo)
	require.NoError(t, fresh.AttachRepository(ctx, f.repo))
	require.Equal(t, 1, fresh.Depths().Undo)

	action, err := fresh.Undo(ctx)
	require.NoError(t, err)
	require.Equal(t, "commit persisted", action.Description)

	// The reversal was written back too: a third manager starts with an
	// empty undo stack and the action waiting on the redo stack.
	third := undo.NewManager(repoFor, f.backups, 0)
	require.NoError(t, third.AttachRepository(ctx, f.repo))
	require.Equal(t, undo.Depths{Undo: 0, Redo: 1}, third.Depths())
}
