package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gitflow.dev/gitflow/internal/git"
	"gitflow.dev/gitflow/internal/output"
	"gitflow.dev/gitflow/internal/runtime"
	"gitflow.dev/gitflow/internal/undo"
)

func newDiscardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discard <path>...",
		Short: "Discard working tree changes, backing up file contents first",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				ctx := cmd.Context()

				description := "discard " + strings.Join(args, ", ")
				b, err := rt.Backups.Capture(repo.Root(), description, args)
				if err != nil {
					return fmt.Errorf("backing up before discard: %w", err)
				}

				if _, err := repo.DiscardPaths(ctx, args...); err != nil {
					// The discard never ran, so the backup is noise.
					_ = rt.Backups.Remove(b.ID)
					return err
				}

				rt.Undo.Record(undo.NewDiscardAction(repo.Root(), b.ID, description, args))
				rt.Splog.Success("discarded %d path(s); contents backed up as %s", len(args), b.ID)
				return nil
			})
		},
	}

	cmd.AddCommand(newDiscardListCmd(), newDiscardRestoreCmd(), newDiscardPruneCmd())
	return cmd
}

func newDiscardListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List discard backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithContext(func(rt *runtime.Context) error {
				backups := rt.Backups.List()
				if len(backups) == 0 {
					rt.Splog.Info("no backups")
					return nil
				}
				for _, b := range backups {
					rt.Splog.Info("%s  %s  %s (%d files)",
						output.Dim(b.CreatedAt.Format(time.RFC3339)), b.ID, b.Description, len(b.Files))
				}
				return nil
			})
		},
	}
}

func newDiscardRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup-id>",
		Short: "Restore a backup's files to their original paths",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithContext(func(rt *runtime.Context) error {
				b, err := rt.Backups.Restore(args[0])
				if err != nil {
					return err
				}
				rt.Splog.Success("restored %d file(s) from %s", len(b.Files), b.ID)
				return nil
			})
		},
	}
}

func newDiscardPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete backups past the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithContext(func(rt *runtime.Context) error {
				if err := rt.Backups.Prune(time.Now()); err != nil {
					return err
				}
				rt.Splog.Success("pruned expired backups")
				return nil
			})
		},
	}
}
