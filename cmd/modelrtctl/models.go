package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"modelrt/pkg/types"
)

func newModelsCmd(rf *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List or inspect models known to the daemon's manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			var body struct {
				Models []types.ModelItem `json:"models"`
			}
			if err := getJSON(rf.serverAddr+"/v1/models", &body); err != nil {
				return err
			}
			for _, m := range body.Models {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%v\n", m.ID, m.Type, m.Version, m.Platforms)
			}
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get <modelID>",
		Short: "Show one model's manifest entry as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var item types.ModelItem
			if err := getJSON(rf.serverAddr+"/v1/models/"+args[0], &item); err != nil {
				return err
			}
			b, _ := json.MarshalIndent(item, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	})
	return cmd
}
