// Package cli wires the gitflow core to a cobra command surface. Commands
// observe workflow state and print it; the core never initiates
// presentation itself.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"gitflow.dev/gitflow/internal/git"
	"gitflow.dev/gitflow/internal/runtime"
)

// NewRootCmd creates the root cobra command.
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gitflow",
		Short:         "gitflow is the git workflow core of the GitFlow client",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("repo", "C", ".", "path to the repository")

	rootCmd.AddCommand(
		newLogCmd(),
		newStatusCmd(),
		newCommitCmd(),
		newCheckoutCmd(),
		newBranchCmd(),
		newTagCmd(),
		newMergeCmd(),
		newCherryPickCmd(),
		newResetCmd(),
		newStashCmd(),
		newReflogCmd(),
		newRebaseCmd(),
		newUndoCmd(),
		newRedoCmd(),
		newHistoryCmd(),
		newDiscardCmd(),
		newRemotesCmd(),
		newKeysCmd(),
	)

	return rootCmd
}

// runWithRepo resolves the process context and the target repository facade
// for a command invocation.
func runWithRepo(cmd *cobra.Command, fn func(rt *runtime.Context, repo *git.Repo) error) error {
	rt, err := runtime.New()
	if err != nil {
		return err
	}
	dir, _ := cmd.Flags().GetString("repo")
	repo, err := rt.Repo(dir)
	if err != nil {
		return err
	}
	return fn(rt, repo)
}

// runWithContext resolves only the process context, for commands that do
// not target a repository.
func runWithContext(fn func(rt *runtime.Context) error) error {
	rt, err := runtime.New()
	if err != nil {
		return err
	}
	return fn(rt)
}
