package cli

import (
	"github.com/spf13/cobra"

	"gitflow.dev/gitflow/internal/git"
	"gitflow.dev/gitflow/internal/output"
	"gitflow.dev/gitflow/internal/runtime"
	"gitflow.dev/gitflow/internal/undo"
)

func newBranchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "List, create or delete branches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				ctx := cmd.Context()
				current, err := repo.CurrentBranch(ctx)
				if err != nil {
					return err
				}
				branches, err := repo.Branches(ctx)
				if err != nil {
					return err
				}
				for _, b := range branches {
					rt.Splog.Info("%s", output.Branch(b, b == current))
				}
				return nil
			})
		},
	}

	cmd.AddCommand(newBranchCreateCmd(), newBranchDeleteCmd())
	return cmd
}

func newBranchCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> [start-point]",
		Short: "Create a branch without checking it out",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				start := ""
				if len(args) == 2 {
					start = args[1]
				}
				res, err := repo.CreateBranch(cmd.Context(), args[0], start)
				if err != nil {
					return err
				}
				rt.Undo.Record(undo.NewBranchCreateAction(repo.Root(), res))
				rt.Splog.Success("created branch %s at %s", res.Name, res.StartPoint[:7])
				return nil
			})
		},
	}
}

func newBranchDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				res, err := repo.DeleteBranch(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				rt.Undo.Record(undo.NewBranchDeleteAction(repo.Root(), res))
				rt.Splog.Success("deleted branch %s (was %s)", res.Name, res.DeletedHash[:7])
				return nil
			})
		},
	}
}

func newTagCmd() *cobra.Command {
	var annotation string

	cmd := &cobra.Command{
		Use:   "tag [name] [target]",
		Short: "List or create tags",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				ctx := cmd.Context()
				if len(args) == 0 {
					tags, err := repo.Tags(ctx)
					if err != nil {
						return err
					}
					for _, t := range tags {
						rt.Splog.Info("%s", t)
					}
					return nil
				}

				target := ""
				if len(args) == 2 {
					target = args[1]
				}
				res, err := repo.CreateTag(ctx, args[0], target, annotation)
				if err != nil {
					return err
				}
				rt.Undo.Record(undo.NewTagCreateAction(repo.Root(), res))
				rt.Splog.Success("created tag %s at %s", res.Name, res.Target[:7])
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&annotation, "message", "m", "", "create an annotated tag with this message")

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				res, err := repo.DeleteTag(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				rt.Splog.Success("deleted tag %s (was %s)", res.Name, res.Target[:7])
				return nil
			})
		},
	})
	return cmd
}
