package cli

import (
	"github.com/spf13/cobra"

	"gitflow.dev/gitflow/internal/git"
	"gitflow.dev/gitflow/internal/output"
	"gitflow.dev/gitflow/internal/runtime"
)

func newLogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log [rev]",
		Short: "Show commit history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				rev := ""
				if len(args) == 1 {
					rev = args[0]
				}
				commits, err := repo.History(cmd.Context(), rev, limit)
				if err != nil {
					return err
				}
				for _, c := range commits {
					marker := ""
					if c.IsMerge() {
						marker = output.Dim(" (merge)")
					}
					rt.Splog.Info("%s %s%s", output.Hash(c.ShortHash), c.Subject, marker)
					rt.Splog.Info("%s", output.Dim("  "+c.AuthorName+" <"+c.AuthorEmail+"> "+c.AuthorDate.Format("2006-01-02 15:04")))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 30, "maximum number of commits")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show working tree status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				entries, err := repo.Status(cmd.Context())
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					rt.Splog.Info("working tree clean")
					return nil
				}
				for _, e := range entries {
					switch {
					case e.Conflicted():
						rt.Splog.Info("%s %s", output.Conflict("UU"), e.Path)
					case e.Untracked():
						rt.Splog.Info("%s %s", output.Dim("??"), e.Path)
					default:
						rt.Splog.Info("%c%c %s", e.Index, e.Worktree, e.Path)
					}
				}
				return nil
			})
		},
	}
}

func newReflogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "reflog",
		Short: "Show the HEAD reflog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				entries, err := repo.Reflog(cmd.Context(), limit)
				if err != nil {
					return err
				}
				for _, e := range entries {
					rt.Splog.Info("%s %s %s: %s",
						output.Hash(e.Hash[:7]), output.Dim(e.Selector), e.Action, e.Summary)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 30, "maximum number of entries")
	return cmd
}
