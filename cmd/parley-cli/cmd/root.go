package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "parley-cli",
	Short: "Parley CLI tool",
	Long: `Parley CLI is a command-line interface for the Parley chat service.

Available commands:
  serve      Run the chat server
  version    Print the version number

Use "parley-cli [command] --help" for more information about a specific command.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
