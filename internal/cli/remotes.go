package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"gitflow.dev/gitflow/internal/git"
	"gitflow.dev/gitflow/internal/output"
	"gitflow.dev/gitflow/internal/runtime"
)

func newRemotesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remotes",
		Short: "List configured remotes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRepo(cmd, func(rt *runtime.Context, repo *git.Repo) error {
				remotes, err := repo.Remotes()
				if err != nil {
					return err
				}
				if len(remotes) == 0 {
					rt.Splog.Info("no remotes configured")
					return nil
				}
				for _, r := range remotes {
					rt.Splog.Info("%s  %s", output.Branch(r.Name, false), strings.Join(r.URLs, " "))
					if id, ok := r.Identity(); ok {
						rt.Splog.Info("  %s", output.Dim(id.Host+"/"+id.Owner+"/"+id.Repo))
					}
				}
				return nil
			})
		},
	}
}
