package cli

import (
	stderrors "errors"

	"github.com/spf13/cobra"

	"gitflow.dev/gitflow/internal/errors"
	"gitflow.dev/gitflow/internal/git"
	"gitflow.dev/gitflow/internal/output"
	"gitflow.dev/gitflow/internal/runtime"
)

func newUndoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Undo the most recent recorded operation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				action, err := rt.Undo.Undo(cmd.Context())
				if stderrors.Is(err, errors.ErrNothingToUndo) {
					rt.Splog.Info("nothing to undo")
					return nil
				}
				if err != nil {
					return err
				}
				rt.Splog.Success("undid %s", action.Description)
				return nil
			})
		},
	}
}

func newRedoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redo",
		Short: "Re-apply the most recently undone operation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				action, err := rt.Undo.Redo(cmd.Context())
				if stderrors.Is(err, errors.ErrNothingToRedo) {
					rt.Splog.Info("nothing to redo")
					return nil
				}
				if stderrors.Is(err, errors.ErrRedoNotSupported) {
					rt.Splog.Warn("that operation cannot be redone")
					return nil
				}
				if err != nil {
					return err
				}
				rt.Splog.Success("redid %s", action.Description)
				return nil
			})
		},
	}
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show undoable and redoable operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				undoable := rt.Undo.History()
				if len(undoable) == 0 {
					rt.Splog.Info("no recorded operations")
				} else {
					rt.Splog.Info("undoable operations (newest first):")
					for i := len(undoable) - 1; i >= 0; i-- {
						a := undoable[i]
						rt.Splog.Info("  %s  %s", output.Dim(a.Timestamp.Format("15:04:05")), a.Description)
					}
				}
				if next, ok := rt.Undo.PeekRedo(); ok {
					rt.Splog.Info("next redo: %s", next.Description)
				}
				return nil
			})
		},
	}
}
