package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd(rf *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the daemon's scheduler stats and manifest summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			var body map[string]any
			if err := getJSON(rf.serverAddr+"/status", &body); err != nil {
				return err
			}
			b, _ := json.MarshalIndent(body, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}
