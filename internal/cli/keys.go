package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"gitflow.dev/gitflow/internal/output"
	"gitflow.dev/gitflow/internal/runtime"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List signing keys available on this machine",
	}
	cmd.AddCommand(newKeysGPGCmd(), newKeysSSHCmd())
	return cmd
}

func newKeysGPGCmd() *cobra.Command {
	var secret bool

	cmd := &cobra.Command{
		Use:   "gpg",
		Short: "List GPG keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithContext(func(rt *runtime.Context) error {
				ctx := cmd.Context()
				list := rt.GPG.ListKeys
				if secret {
					list = rt.GPG.ListSecretKeys
				}
				keys, err := list(ctx)
				if err != nil {
					return err
				}
				if len(keys) == 0 {
					rt.Splog.Info("no GPG keys found")
					return nil
				}
				for _, k := range keys {
					rt.Splog.Info("%s  %s", output.Hash(k.ID), strings.Join(k.UserIDs, "; "))
					if k.Fingerprint != "" {
						rt.Splog.Info("  %s", output.Dim(k.Fingerprint))
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&secret, "secret", false, "list secret (signing-capable) keys")
	return cmd
}

func newKeysSSHCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ssh",
		Short: "List SSH public keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithContext(func(rt *runtime.Context) error {
				keys, err := rt.SSH.ListKeys(cmd.Context())
				if err != nil {
					return err
				}
				if len(keys) == 0 {
					rt.Splog.Info("no SSH keys found")
					return nil
				}
				for _, k := range keys {
					rt.Splog.Info("%s  %s", k.Name, output.Dim(k.Fingerprint))
				}
				return nil
			})
		},
	}
}
