package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandError(t *testing.T) {
	t.Run("exit failures are distinguishable from spawn failures", func(t *testing.T) {
		exit := NewCommandError("git", []string{"merge"}, "", "fatal: nope", 128, nil)
		require.True(t, IsExitError(exit))
		require.Equal(t, 128, ExitCode(exit))
		require.Equal(t, "fatal: nope", Stderr(exit))

		spawn := NewCommandError("git", nil, "", "", -1, stderrors.Join(ErrSpawnFailed, ErrExecutableNotFound))
		require.False(t, IsExitError(spawn))
		require.Equal(t, -1, ExitCode(spawn))
		require.ErrorIs(t, spawn, ErrSpawnFailed)
		require.ErrorIs(t, spawn, ErrExecutableNotFound)
	})

	t.Run("message includes command and stderr", func(t *testing.T) {
		err := NewCommandError("git", []string{"merge", "topic"}, "", "fatal: nope", 1, nil)
		require.Contains(t, err.Error(), "git command failed")
		require.Contains(t, err.Error(), "exit 1")
		require.Contains(t, err.Error(), "fatal: nope")
	})

	t.Run("helpers return zero values for other errors", func(t *testing.T) {
		plain := stderrors.New("plain")
		require.False(t, IsExitError(plain))
		require.Equal(t, -1, ExitCode(plain))
		require.Equal(t, "", Stderr(plain))
	})
}

func TestConflictError(t *testing.T) {
	err := NewConflictError("merge", []string{"a.go", "b.go"}, "")
	require.ErrorIs(t, err, ErrConflict)
	require.Contains(t, err.Error(), "a.go, b.go")

	var conflictErr *ConflictError
	require.ErrorAs(t, error(err), &conflictErr)
	require.Equal(t, "merge", conflictErr.Operation)
}

func TestOperationError(t *testing.T) {
	inner := stderrors.New("inner")
	err := NewOperationError("checkout", "pathspec did not match", inner)
	require.Contains(t, err.Error(), "checkout failed: pathspec did not match")
	require.ErrorIs(t, err, inner)
	require.NotErrorIs(t, err, ErrConflict)
}

func TestParseError(t *testing.T) {
	err := NewParseError("commit log", "garbage line", nil)
	require.Contains(t, err.Error(), "commit log")
	require.Contains(t, err.Error(), `"garbage line"`)
}
