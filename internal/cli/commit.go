package cli

import (
	"github.com/spf13/cobra"

	"gitflow.dev/gitflow/internal/git"
	"gitflow.dev/gitflow/internal/runtime"
	"gitflow.dev/gitflow/internal/undo"
)

func newCommitCmd() *cobra.Command {
	var message string
	var all bool
	var amend bool

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Create a commit from the staged changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				ctx := cmd.Context()
				if all {
					if err := repo.StageAll(ctx); err != nil {
						return err
					}
				}

				if amend {
					res, err := repo.AmendCommit(ctx, message)
					if err != nil {
						return err
					}
					rt.Splog.Success("amended %s", res.NewHead[:7])
					return nil
				}

				res, err := repo.CreateCommit(ctx, message)
				if err != nil {
					return err
				}
				rt.Undo.Record(undo.NewCommitAction(repo.Root(), res))
				rt.Splog.Success("created commit %s", res.NewHead[:7])
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "stage all changes first")
	cmd.Flags().BoolVar(&amend, "amend", false, "amend the current HEAD commit")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

func newCheckoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <branch>",
		Short: "Switch to a branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				res, err := repo.Checkout(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				rt.Undo.Record(undo.NewCheckoutAction(repo.Root(), res))
				rt.Splog.Success("switched to %s", res.NewBranch)
				return nil
			})
		},
	}
}
