package rebase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"gitflow.dev/gitflow/internal/git"
	"gitflow.dev/gitflow/testhelpers"
)

// rebaseScene builds a repo with three commits on top of the initial one,
// each touching its own file so they replay cleanly in any order.
func rebaseScene(t *testing.T) (*testhelpers.Scene, *git.Repo, *Engine) {
	t.Helper()
	scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
		for _, name := range []string{"one", "two", "three"} {
			if err := s.Repo.CommitFile(name+".txt", name, name); err != nil {
				return err
			}
		}
		return nil
	})
	repo, err := git.Open(scene.Dir)
	require.NoError(t, err)
	return scene, repo, NewEngine(repo)
}

func TestEnginePreparePlan(t *testing.T) {
	ctx := context.Background()

	t.Run("builds the plan oldest first", func(t *testing.T) {
		_, _, engine := rebaseScene(t)
		plan, err := engine.PreparePlan(ctx, "HEAD~3")
		require.NoError(t, err)
		require.Equal(t, 3, plan.Len())

		entries := plan.Entries()
		require.Equal(t, "one", entries[0].Message)
		require.Equal(t, "two", entries[1].Message)
		require.Equal(t, "three", entries[2].Message)
	})

	t.Run("empty range returns to idle", func(t *testing.T) {
		_, _, engine := rebaseScene(t)
		_, err := engine.PreparePlan(ctx, "HEAD")
		require.Error(t, err)
		require.Equal(t, PhaseIdle, engine.Status().Phase)
	})
}

func TestEngineAllPicksCompletes(t *testing.T) {
	ctx := context.Background()
	scene, repo, engine := rebaseScene(t)

	before, err := repo.Head(ctx)
	require.NoError(t, err)

	plan, err := engine.PreparePlan(ctx, "HEAD~3")
	require.NoError(t, err)
	require.NoError(t, engine.Start(ctx, "HEAD~3", plan))

	status := engine.Status()
	require.Equal(t, PhaseCompleted, status.Phase)
	require.Equal(t, 3, status.Total)

	// Nothing changed, so the history is byte-for-byte identical.
	after, err := repo.Head(ctx)
	require.NoError(t, err)
	require.Equal(t, before, after)
	testhelpers.ExpectCommits(t, scene.Repo, []string{"three", "two", "one", "initial"})
}

func TestEngineSquashAndDrop(t *testing.T) {
	ctx := context.Background()
	scene, _, engine := rebaseScene(t)

	plan, err := engine.PreparePlan(ctx, "HEAD~3")
	require.NoError(t, err)
	require.NoError(t, plan.SetAction(1, ActionSquash))
	require.NoError(t, plan.SetAction(2, ActionDrop))
	require.NoError(t, engine.Start(ctx, "HEAD~3", plan))

	require.Equal(t, PhaseCompleted, engine.Status().Phase)

	messages, err := scene.Repo.ListCurrentBranchCommitMessages()
	require.NoError(t, err)
	// Squash folds "two" into "one"; "three" is gone.
	require.Len(t, messages, 2)
	require.Equal(t, "one", messages[0])
	require.Equal(t, "initial", messages[1])

	_, err = scene.Repo.ReadFile("three.txt")
	require.Error(t, err)
}

func TestEngineEditPause(t *testing.T) {
	ctx := context.Background()
	scene, _, engine := rebaseScene(t)

	plan, err := engine.PreparePlan(ctx, "HEAD~3")
	require.NoError(t, err)
	stopHash := plan.Entries()[1].OriginalHash
	require.NoError(t, plan.SetAction(1, ActionEdit))
	require.NoError(t, engine.Start(ctx, "HEAD~3", plan))

	status := engine.Status()
	require.Equal(t, PhasePaused, status.Phase)
	require.Equal(t, PauseEdit, status.Reason)
	// stopped-sha may hold an abbreviated hash.
	require.True(t, strings.HasPrefix(stopHash, status.PausedHash))
	require.Equal(t, 2, status.Current)
	require.Equal(t, 3, status.Total)
	require.True(t, scene.Repo.RebaseInProgress())

	require.NoError(t, engine.Continue(ctx))
	require.Equal(t, PhaseCompleted, engine.Status().Phase)
	require.False(t, scene.Repo.RebaseInProgress())
	testhelpers.ExpectCommits(t, scene.Repo, []string{"three", "two", "one", "initial"})
}

func TestEngineRewordDeferredAmend(t *testing.T) {
	ctx := context.Background()
	scene, _, engine := rebaseScene(t)

	plan, err := engine.PreparePlan(ctx, "HEAD~3")
	require.NoError(t, err)
	require.NoError(t, plan.SetMessage(0, "one, reworded"))
	require.NoError(t, engine.Start(ctx, "HEAD~3", plan))

	status := engine.Status()
	require.Equal(t, PhasePaused, status.Phase)
	require.Equal(t, PauseReword, status.Reason)

	// Continue applies the stored message before resuming git.
	require.NoError(t, engine.Continue(ctx))
	require.Equal(t, PhaseCompleted, engine.Status().Phase)
	testhelpers.ExpectCommits(t, scene.Repo, []string{"three", "two", "one, reworded", "initial"})
}

func TestEngineConflictPause(t *testing.T) {
	ctx := context.Background()

	// Two consecutive edits to the same file; dropping the first makes the
	// second conflict when it replays against the base.
	scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
		if err := s.Repo.CommitFile("shared.txt", "version one", "set one"); err != nil {
			return err
		}
		return s.Repo.CommitFile("shared.txt", "version two", "set two")
	})
	repo, err := git.Open(scene.Dir)
	require.NoError(t, err)
	engine := NewEngine(repo)

	plan, err := engine.PreparePlan(ctx, "HEAD~2")
	require.NoError(t, err)
	require.NoError(t, plan.SetAction(0, ActionDrop))
	require.NoError(t, engine.Start(ctx, "HEAD~2", plan))

	status := engine.Status()
	require.Equal(t, PhasePaused, status.Phase)
	require.Equal(t, PauseConflict, status.Reason)
	require.Equal(t, []string{"shared.txt"}, status.Conflicts)

	// Continue without resolving stays paused on the same conflict.
	require.NoError(t, engine.Continue(ctx))
	require.Equal(t, PhasePaused, engine.Status().Phase)

	require.NoError(t, scene.Repo.ResolveMergeConflicts())
	require.NoError(t, scene.Repo.MarkMergeConflictsAsResolved())
	require.NoError(t, engine.Continue(ctx))

	require.Equal(t, PhaseCompleted, engine.Status().Phase)
	content, err := scene.Repo.ReadFile("shared.txt")
	require.NoError(t, err)
	require.Equal(t, "version two", content)
}

func TestEngineSkip(t *testing.T) {
	ctx := context.Background()
	scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
		if err := s.Repo.CommitFile("shared.txt", "version one", "set one"); err != nil {
			return err
		}
		return s.Repo.CommitFile("shared.txt", "version two", "set two")
	})
	repo, err := git.Open(scene.Dir)
	require.NoError(t, err)
	engine := NewEngine(repo)

	plan, err := engine.PreparePlan(ctx, "HEAD~2")
	require.NoError(t, err)
	require.NoError(t, plan.SetAction(0, ActionDrop))
	require.NoError(t, engine.Start(ctx, "HEAD~2", plan))
	require.Equal(t, PauseConflict, engine.Status().Reason)

	require.NoError(t, engine.Skip(ctx))
	require.Equal(t, PhaseCompleted, engine.Status().Phase)

	// Both commits are gone; the file is back at its base state.
	_, err = scene.Repo.ReadFile("shared.txt")
	require.Error(t, err)
	testhelpers.ExpectCommits(t, scene.Repo, []string{"initial"})
}

func TestEngineAbort(t *testing.T) {
	ctx := context.Background()
	scene, repo, engine := rebaseScene(t)

	before, err := repo.Head(ctx)
	require.NoError(t, err)

	plan, err := engine.PreparePlan(ctx, "HEAD~3")
	require.NoError(t, err)
	require.NoError(t, plan.SetAction(0, ActionEdit))
	require.NoError(t, engine.Start(ctx, "HEAD~3", plan))
	require.Equal(t, PhasePaused, engine.Status().Phase)

	engine.Abort(ctx)
	require.Equal(t, PhaseIdle, engine.Status().Phase)
	require.False(t, scene.Repo.RebaseInProgress())

	after, err := repo.Head(ctx)
	require.NoError(t, err)
	require.Equal(t, before, after)

	// Abort with nothing in progress is a no-op, not an error.
	engine.Abort(ctx)
	require.Equal(t, PhaseIdle, engine.Status().Phase)
}

func TestEngineRefreshAfterExternalContinue(t *testing.T) {
	ctx := context.Background()
	scene, _, engine := rebaseScene(t)

	plan, err := engine.PreparePlan(ctx, "HEAD~3")
	require.NoError(t, err)
	require.NoError(t, plan.SetAction(2, ActionEdit))
	require.NoError(t, engine.Start(ctx, "HEAD~3", plan))
	require.Equal(t, PhasePaused, engine.Status().Phase)

	// Finish the rebase from "outside" the engine, as a terminal user would.
	require.NoError(t, scene.Repo.Git("-c", "core.editor=true", "rebase", "--continue"))
	require.Equal(t, PhasePaused, engine.Status().Phase)

	engine.Refresh(ctx)
	require.Equal(t, PhaseCompleted, engine.Status().Phase)
}

func TestEngineSubscribe(t *testing.T) {
	ctx := context.Background()
	_, _, engine := rebaseScene(t)

	var phases []Phase
	unsubscribe := engine.Subscribe(func(s Status) {
		phases = append(phases, s.Phase)
	})

	plan, err := engine.PreparePlan(ctx, "HEAD~3")
	require.NoError(t, err)
	require.NoError(t, engine.Start(ctx, "HEAD~3", plan))

	require.Contains(t, phases, PhasePreparing)
	require.Contains(t, phases, PhaseInProgress)
	require.Equal(t, PhaseCompleted, phases[len(phases)-1])

	unsubscribe()
	before := len(phases)
	engine.Abort(ctx)
	require.Equal(t, before, len(phases))
}

func TestEngineRejectsOverlappingRebase(t *testing.T) {
	ctx := context.Background()
	_, _, engine := rebaseScene(t)

	plan, err := engine.PreparePlan(ctx, "HEAD~3")
	require.NoError(t, err)
	require.NoError(t, plan.SetAction(0, ActionEdit))
	require.NoError(t, engine.Start(ctx, "HEAD~3", plan))
	require.Equal(t, PhasePaused, engine.Status().Phase)

	_, err = engine.PreparePlan(ctx, "HEAD~1")
	require.Error(t, err)
	require.Error(t, engine.Start(ctx, "HEAD~1", plan))
	engine.Abort(ctx)
}

func TestEngineResumesFromFreshEngine(t *testing.T) {
	ctx := context.Background()
	scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
		if err := s.Repo.CommitFile("shared.txt", "version one", "set one"); err != nil {
			return err
		}
		return s.Repo.CommitFile("shared.txt", "version two", "set two")
	})
	repo, err := git.Open(scene.Dir)
	require.NoError(t, err)
	engine := NewEngine(repo)

	plan, err := engine.PreparePlan(ctx, "HEAD~2")
	require.NoError(t, err)
	require.NoError(t, plan.SetAction(0, ActionDrop))
	require.NoError(t, engine.Start(ctx, "HEAD~2", plan))
	require.Equal(t, PauseConflict, engine.Status().Reason)

	// A new engine for the same repo, as a new process would build. It has
	// no in-memory state, but the rebase is still paused on disk.
	fresh := NewEngine(repo)
	require.Equal(t, PhaseIdle, fresh.Status().Phase)

	fresh.Refresh(ctx)
	status := fresh.Status()
	require.Equal(t, PhasePaused, status.Phase)
	require.Equal(t, PauseConflict, status.Reason)
	require.Equal(t, []string{"shared.txt"}, status.Conflicts)

	// Starting another rebase from the fresh engine is rejected too.
	_, err = fresh.PreparePlan(ctx, "HEAD~1")
	require.Error(t, err)

	require.NoError(t, scene.Repo.ResolveMergeConflicts())
	require.NoError(t, scene.Repo.MarkMergeConflictsAsResolved())

	// Continue works even without a prior Refresh call.
	resumer := NewEngine(repo)
	require.NoError(t, resumer.Continue(ctx))
	require.Equal(t, PhaseCompleted, resumer.Status().Phase)
	require.False(t, scene.Repo.RebaseInProgress())
	content, err := scene.Repo.ReadFile("shared.txt")
	require.NoError(t, err)
	require.Equal(t, "version two", content)
}

func TestEngineRewordSurvivesEngineRestart(t *testing.T) {
	ctx := context.Background()
	scene, repo, engine := rebaseScene(t)

	plan, err := engine.PreparePlan(ctx, "HEAD~3")
	require.NoError(t, err)
	require.NoError(t, plan.SetMessage(0, "one, reworded"))
	require.NoError(t, engine.Start(ctx, "HEAD~3", plan))
	require.Equal(t, PauseReword, engine.Status().Reason)

	// The deferred message survives into a new engine via the state file.
	fresh := NewEngine(repo)
	fresh.Refresh(ctx)
	require.Equal(t, PauseReword, fresh.Status().Reason)

	require.NoError(t, fresh.Continue(ctx))
	require.Equal(t, PhaseCompleted, fresh.Status().Phase)
	testhelpers.ExpectCommits(t, scene.Repo, []string{"three", "two", "one, reworded", "initial"})
}

func TestEngineRefreshAfterExternalAbort(t *testing.T) {
	ctx := context.Background()
	scene, repo, engine := rebaseScene(t)

	before, err := repo.Head(ctx)
	require.NoError(t, err)

	plan, err := engine.PreparePlan(ctx, "HEAD~3")
	require.NoError(t, err)
	require.NoError(t, plan.SetAction(0, ActionEdit))
	require.NoError(t, engine.Start(ctx, "HEAD~3", plan))
	require.Equal(t, PhasePaused, engine.Status().Phase)

	// Abort from "outside" the engine, as a terminal user would.
	require.NoError(t, scene.Repo.Git("rebase", "--abort"))

	engine.Refresh(ctx)
	require.Equal(t, PhaseIdle, engine.Status().Phase)

	after, err := repo.Head(ctx)
	require.NoError(t, err)
	require.Equal(t, before, after)
}
