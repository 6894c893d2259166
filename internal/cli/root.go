// Package cli implements the leadscore command tree.
package cli

import "github.com/spf13/cobra"

var (
	version = "dev"
	commit  = "none"
)

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "leadscore",
		Short:         "Score Peruvian B2B leads by guessing and verifying corporate emails",
		Long:          "leadscore guesses corporate mailboxes for each company, verifies them with DNS and SMTP probes, ranks likely decision makers and scores the resulting lead.",
		Version:       version + " (" + commit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default ./config.yaml when present)")

	cmd.AddCommand(newVerifyCmd(&configPath))
	cmd.AddCommand(newCandidatesCmd(&configPath))
	cmd.AddCommand(newProcessCmd(&configPath))
	cmd.AddCommand(newEnqueueCmd(&configPath))
	cmd.AddCommand(newWorkerCmd(&configPath))
	cmd.AddCommand(newServeCmd(&configPath))
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	return newRootCmd().Execute()
}
