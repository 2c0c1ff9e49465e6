package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the calresolve application
var rootCmd = &cobra.Command{
	Use:   "calresolve",
	Short: "Turns natural-language requests into Google Calendar changes",
	Long: `calresolve interprets free-form calendar requests such as
"move my dentist appointment to Friday 3pm" or "cancel my meeting with Alex"
and carries them out against Google Calendar.

It can run as:
  - An MCP (Model Context Protocol) server for AI assistants (serve)
  - A one-shot command line resolver (resolve)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "calresolve version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of calresolve",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("calresolve version %s\n", version)
		},
	}
}
