package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"modelrt/internal/coreerr"
	"modelrt/pkg/types"
)

func newSelectCmd(rf *rootFlags) *cobra.Command {
	var preferredBackend, preferredProvider string
	cmd := &cobra.Command{
		Use:   "select <modelID>",
		Short: "Run the runtime selector against the daemon's live host probe and print the SelectionReport",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var report types.SelectionReport
			err := streamNDJSON(rf.serverAddr+"/v1/models/"+args[0]+"/select", types.SelectionHints{
				PreferredBackend:  preferredBackend,
				PreferredProvider: preferredProvider,
			}, func(raw json.RawMessage) error {
				return json.Unmarshal(raw, &report)
			})
			if err != nil {
				return err
			}
			b, _ := json.MarshalIndent(report, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			if report.FinalDecision.Error != nil {
				return &coreerr.CoreError{Detail: *report.FinalDecision.Error}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&preferredBackend, "backend", "", "override the selector's default backend preference")
	cmd.Flags().StringVar(&preferredProvider, "provider", "", "override the selector's default accelerator provider preference")
	return cmd
}
