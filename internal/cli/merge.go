package cli

import (
	"errors"

	"github.com/spf13/cobra"

	gferrors "gitflow.dev/gitflow/internal/errors"
	"gitflow.dev/gitflow/internal/git"
	"gitflow.dev/gitflow/internal/output"
	"gitflow.dev/gitflow/internal/runtime"
	"gitflow.dev/gitflow/internal/undo"
)

func newMergeCmd() *cobra.Command {
	var abort bool

	cmd := &cobra.Command{
		Use:   "merge [branch]",
		Short: "Merge a branch into the current one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				ctx := cmd.Context()
				if abort {
					if err := repo.MergeAbort(ctx); err != nil {
						return err
					}
					rt.Splog.Success("merge aborted")
					return nil
				}
				if len(args) != 1 {
					return errors.New("merge requires a branch name")
				}

				res, err := repo.Merge(ctx, args[0])
				if err != nil {
					var conflict *gferrors.ConflictError
					if errors.As(err, &conflict) {
						rt.Splog.Warn("merge stopped on conflicts:")
						for _, p := range conflict.Paths {
							rt.Splog.Info("  %s", output.Conflict(p))
						}
						rt.Splog.Info("resolve and commit, or run 'gitflow merge --abort'")
						return nil
					}
					return err
				}

				rt.Undo.Record(undo.NewMergeAction(repo.Root(), res))
				if res.FastForward {
					rt.Splog.Success("fast-forwarded to %s", res.NewHead[:7])
				} else {
					rt.Splog.Success("merged %s (%s)", res.MergedBranch, res.NewHead[:7])
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&abort, "abort", false, "abort an in-progress merge")
	return cmd
}

func newCherryPickCmd() *cobra.Command {
	var abort bool

	cmd := &cobra.Command{
		Use:   "cherry-pick [hash]",
		Short: "Apply an existing commit onto the current branch",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				ctx := cmd.Context()
				if abort {
					if err := repo.CherryPickAbort(ctx); err != nil {
						return err
					}
					rt.Splog.Success("cherry-pick aborted")
					return nil
				}
				if len(args) != 1 {
					return errors.New("cherry-pick requires a commit hash")
				}

				res, err := repo.CherryPick(ctx, args[0])
				if err != nil {
					var conflict *gferrors.ConflictError
					if errors.As(err, &conflict) {
						rt.Splog.Warn("cherry-pick stopped on conflicts:")
						for _, p := range conflict.Paths {
							rt.Splog.Info("  %s", output.Conflict(p))
						}
						return nil
					}
					return err
				}

				rt.Undo.Record(undo.NewCherryPickAction(repo.Root(), res))
				rt.Splog.Success("cherry-picked %s as %s", args[0], res.NewHead[:7])
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&abort, "abort", false, "abort an in-progress cherry-pick")
	return cmd
}

func newResetCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "reset <target>",
		Short: "Move HEAD to a target revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				resetMode := git.ResetMode(mode)
				switch resetMode {
				case git.ResetSoft, git.ResetMixed, git.ResetHard:
				default:
					return errors.New("mode must be soft, mixed or hard")
				}

				res, err := repo.Reset(cmd.Context(), resetMode, args[0])
				if err != nil {
					return err
				}
				rt.Undo.Record(undo.NewResetAction(repo.Root(), res))
				rt.Splog.Success("reset --%s to %s (was %s)", res.Mode, res.NewHead[:7], res.PreviousHead[:7])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "mixed", "reset mode: soft, mixed or hard")
	return cmd
}
