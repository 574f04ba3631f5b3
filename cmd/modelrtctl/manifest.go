package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"modelrt/internal/manifest"
)

func newManifestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Manifest document utilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("manifest requires a subcommand: validate")
		},
	}
	cmd.AddCommand(newManifestValidateCmd())
	return cmd
}

func newManifestValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>",
		Short: "Parse and validate a manifest document against invariants I1-I4",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d model(s), schemaVersion=%s, contentVersion=%s\n", len(m.Items), m.SchemaVersion, m.ContentVersion)
			return nil
		},
	}
}
