package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"modelrt/internal/coreerr"
	"modelrt/pkg/types"
)

func newInstallCmd(rf *rootFlags) *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:   "install <modelID>",
		Short: "Install a model, printing InstallProgress events as they stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := rf.serverAddr + "/v1/models/" + args[0] + "/install"
			if version != "" {
				url += "?version=" + version
			}
			return streamNDJSON(url, nil, func(raw json.RawMessage) error {
				var ev types.InstallProgress
				if err := json.Unmarshal(raw, &ev); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s %d/%d %s\n", ev.Phase, ev.CurrentFile, ev.ReceivedBytes, ev.TotalBytes, progressPercent(ev.Progress))
				if ev.Phase == types.PhaseFailed && ev.Error != nil {
					return &coreerr.CoreError{Detail: *ev.Error}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "install this version instead of the manifest's declared version")
	return cmd
}

func progressPercent(p float64) string {
	return fmt.Sprintf("%.0f%%", p*100)
}
