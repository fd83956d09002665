package cli

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"gitflow.dev/gitflow/internal/git"
	"gitflow.dev/gitflow/internal/output"
	"gitflow.dev/gitflow/internal/rebase"
	"gitflow.dev/gitflow/internal/runtime"
	"gitflow.dev/gitflow/internal/undo"
)

func newRebaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebase",
		Short: "Interactively rebase the current branch",
	}
	cmd.AddCommand(
		newRebaseStartCmd(),
		newRebaseContinueCmd(),
		newRebaseSkipCmd(),
		newRebaseAbortCmd(),
		newRebaseStatusCmd(),
	)
	return cmd
}

func newRebaseStartCmd() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "start <onto>",
		Short: "Plan and start a rebase onto a branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				ctx := cmd.Context()
				onto := args[0]
				engine := rt.Engine(repo)

				prevHead, err := repo.Head(ctx)
				if err != nil {
					return err
				}

				plan, err := engine.PreparePlan(ctx, onto)
				if err != nil {
					return err
				}

				if interactive {
					if err := editPlan(plan); err != nil {
						return err
					}
				}

				if err := engine.Start(ctx, onto, plan); err != nil {
					return err
				}
				reportRebase(rt, engine.Status())

				if engine.Status().Phase == rebase.PhaseCompleted {
					newHead, err := repo.Head(ctx)
					if err != nil {
						return err
					}
					rt.Undo.Record(undo.NewRebaseAction(repo.Root(), prevHead, newHead, onto))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "edit the plan before starting")
	return cmd
}

// editPlan walks the plan oldest-first and lets the user pick an action and
// optionally a new message per commit.
func editPlan(plan *rebase.Plan) error {
	actions := []string{
		string(rebase.ActionPick),
		string(rebase.ActionReword),
		string(rebase.ActionEdit),
		string(rebase.ActionSquash),
		string(rebase.ActionFixup),
		string(rebase.ActionDrop),
	}

	for i, entry := range plan.Entries() {
		var choice string
		prompt := &survey.Select{
			Message: fmt.Sprintf("%s %s", entry.ShortHash, entry.Message),
			Options: actions,
			Default: string(entry.Action),
		}
		if err := survey.AskOne(prompt, &choice); err != nil {
			return err
		}

		if rebase.Action(choice) == rebase.ActionReword {
			var message string
			input := &survey.Input{
				Message: "New message:",
				Default: entry.Message,
			}
			if err := survey.AskOne(input, &message); err != nil {
				return err
			}
			if err := plan.SetMessage(i, message); err != nil {
				return err
			}
			continue
		}
		if err := plan.SetAction(i, rebase.Action(choice)); err != nil {
			return err
		}
	}
	return nil
}

func newRebaseContinueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "continue",
		Short: "Resume a paused rebase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				engine := rt.Engine(repo)
				if err := engine.Continue(cmd.Context()); err != nil {
					return err
				}
				reportRebase(rt, engine.Status())
				return nil
			})
		},
	}
}

func newRebaseSkipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skip",
		Short: "Skip the commit the rebase is stopped on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				engine := rt.Engine(repo)
				if err := engine.Skip(cmd.Context()); err != nil {
					return err
				}
				reportRebase(rt, engine.Status())
				return nil
			})
		},
	}
}

func newRebaseAbortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abort",
		Short: "Abort the rebase and restore the original branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				rt.Engine(repo).Abort(cmd.Context())
				rt.Splog.Success("rebase aborted")
				return nil
			})
		},
	}
}

func newRebaseStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the rebase workflow state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				engine := rt.Engine(repo)
				// A previous process may have left the rebase paused on disk.
				engine.Refresh(cmd.Context())
				reportRebase(rt, engine.Status())
				return nil
			})
		},
	}
}

func reportRebase(rt *runtime.Context, status rebase.Status) {
	switch status.Phase {
	case rebase.PhaseCompleted:
		rt.Splog.Success("rebase completed (%d commits)", status.Total)
	case rebase.PhasePaused:
		switch status.Reason {
		case rebase.PauseConflict:
			rt.Splog.Warn("rebase paused on conflicts (step %d/%d):", status.Current, status.Total)
			for _, p := range status.Conflicts {
				rt.Splog.Info("  %s", output.Conflict(p))
			}
			rt.Splog.Info("resolve, stage, then 'gitflow rebase continue' (or skip/abort)")
		case rebase.PauseReword:
			rt.Splog.Info("rebase paused to reword %s; 'gitflow rebase continue' applies the new message",
				output.Hash(status.PausedHash))
		default:
			rt.Splog.Info("rebase paused for edit at %s; amend, then 'gitflow rebase continue'",
				output.Hash(status.PausedHash))
		}
	case rebase.PhaseFailed:
		rt.Splog.Error("rebase failed: %s", status.Message)
	case rebase.PhaseIdle:
		rt.Splog.Info("no rebase in progress")
	default:
		rt.Splog.Info("rebase %s (step %d/%d)", status.Phase, status.Current, status.Total)
	}
}
