package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"modelrt/internal/install"
	"modelrt/pkg/types"
)

func newVerifyCmd() *cobra.Command {
	var sha256 string
	var size int64
	cmd := &cobra.Command{
		Use:   "verify <path>",
		Short: "Re-verify an already-downloaded artifact's digest, independent of a running daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			artifact := types.Artifact{Name: args[0], Size: size, SHA256: sha256}
			if err := install.VerifyArtifact(args[0], artifact); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s matches sha256:%s\n", args[0], sha256)
			return nil
		},
	}
	cmd.Flags().StringVar(&sha256, "sha256", "", "expected lowercase hex SHA-256 digest (required)")
	cmd.Flags().Int64Var(&size, "size", 0, "expected byte size (informational only, not checked)")
	cmd.MarkFlagRequired("sha256")
	return cmd
}
