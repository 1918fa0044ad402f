package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the inboxai application
var rootCmd = &cobra.Command{
	Use:   "inboxai",
	Short: "Answers questions about your calendar and email",
	Long: `inboxai answers natural-language questions about your Google Calendar and
Gmail. It decides which sources a question needs, fetches them in parallel and
asks a completion model with the gathered context.

It can run as:
  - An interactive chat (default)
  - A one-shot command (inboxai ask)
  - An MCP (Model Context Protocol) server and HTTP message bridge`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// Global flags shared by all commands.
var (
	debugMode bool
	logFormat string
	envFiles  []string
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "inboxai version %s\n" .Version}}`)

	// If no subcommand is provided, run the chat command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "chat")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (default: INBOXAI_LOG_FORMAT or text)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Load environment from these files (default: ./.env)")

	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newConfigureCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
