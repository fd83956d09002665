package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"gitflow.dev/gitflow/internal/git"
	"gitflow.dev/gitflow/internal/output"
	"gitflow.dev/gitflow/internal/runtime"
	"gitflow.dev/gitflow/internal/undo"
)

func newStashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stash",
		Short: "Stash and restore working tree changes",
	}
	cmd.AddCommand(
		newStashPushCmd(),
		newStashListCmd(),
		newStashApplyCmd(),
		newStashPopCmd(),
	)
	return cmd
}

func newStashPushCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Stash working tree changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				res, err := repo.CreateStash(cmd.Context(), message)
				if err != nil {
					return err
				}
				rt.Splog.Success("stashed changes as %s", res.StashHash[:7])
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "stash message")
	return cmd
}

func newStashListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stash entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				stashes, err := repo.Stashes(cmd.Context())
				if err != nil {
					return err
				}
				for _, s := range stashes {
					branch := s.Branch
					if branch == "" {
						branch = "?"
					}
					rt.Splog.Info("%s %s: %s", output.Hash(s.Ref), output.Dim("on "+branch), s.Message)
				}
				return nil
			})
		},
	}
}

func newStashApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply [ref]",
		Short: "Apply a stash without dropping it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				ctx := cmd.Context()
				prev, err := repo.Head(ctx)
				if err != nil {
					return err
				}
				ref := ""
				if len(args) == 1 {
					ref = args[0]
				}
				// go-git does not resolve reflog selectors like stash@{1},
				// so ask git itself.
				res, err := repo.Git(ctx, "rev-parse", refOrDefault(ref))
				if err != nil {
					return err
				}
				stashHash := strings.TrimSpace(res.Stdout)
				if err := repo.ApplyStash(ctx, ref); err != nil {
					return err
				}
				rt.Undo.Record(undo.NewStashApplyAction(repo.Root(), prev, stashHash))
				rt.Splog.Success("applied stash")
				return nil
			})
		},
	}
}

func newStashPopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pop",
		Short: "Apply and drop the most recent stash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				if err := repo.PopStash(cmd.Context()); err != nil {
					return err
				}
				rt.Splog.Success("popped stash")
				return nil
			})
		},
	}
}

func refOrDefault(ref string) string {
	if ref == "" {
		return "stash@{0}"
	}
	return ref
}
