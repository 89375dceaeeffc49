// Package cli wires the switchboard commands: a server hosting the agent
// team behind the session API, and a terminal chat client for it.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "switchboard",
	Short: "switchboard - conversational multi-agent handoff router",
	Long: "Switchboard routes conversational requests among specialized agents,\n" +
		"handing sessions off between them without losing history.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
}
