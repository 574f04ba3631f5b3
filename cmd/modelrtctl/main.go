// Command modelrtctl is the operator CLI for a running modelrtd daemon:
// manifest validation, install/select against the HTTP API, status
// polling, and a standalone artifact verify that never needs a daemon at
// all. Grounded in the teacher's internal/testctl cobra command tree
// (command groups, persistent flags, SilenceUsage), generalized from
// dev/test-environment actions to runtime-operator actions.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"modelrt/internal/coreerr"
)

// rootFlags are the persistent flags every subcommand inherits.
type rootFlags struct {
	serverAddr string
}

func main() {
	rf := &rootFlags{}
	root := &cobra.Command{
		Use:           "modelrtctl",
		Short:         "Operator CLI for the model lifecycle runtime daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&rf.serverAddr, "server", envDefault("MODELRTCTL_SERVER", "http://127.0.0.1:8080"), "modelrtd base URL")

	root.AddCommand(
		newManifestCmd(),
		newModelsCmd(rf),
		newInstallCmd(rf),
		newSelectCmd(rf),
		newStatusCmd(rf),
		newTailEventsCmd(rf),
		newVerifyCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "modelrtctl:", err)
		os.Exit(exitCodeFor(err))
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// exitCodeFor implements (A6): 0 success (never reached here — only
// called on error), 1 generic failure, 2 for any taxonomy error the
// runtime explicitly marked non-retriable.
func exitCodeFor(err error) int {
	if ce, ok := err.(*coreerr.CoreError); ok && !ce.Retriable() {
		return 2
	}
	return 1
}
