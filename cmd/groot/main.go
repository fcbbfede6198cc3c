package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/grootai/internal/cli"
	"github.com/cloo-solutions/grootai/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "groot",
		Short: "Groot CLI - call agent tools on a grootd server",
		Long: `Groot CLI calls the tools served by grootd and manages stored conversations.

Environment variables:
  GROOT_API_TOKEN  Bearer token, when grootd requires one
  GROOT_API_URL    grootd base URL (default: http://localhost:8080)`,
		Version:       version,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-token", "", "API token (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "grootd base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.ToolsCmd())
	rootCmd.AddCommand(client.CallCmd())
	rootCmd.AddCommand(client.ConversationCmd())
	rootCmd.AddCommand(client.LoginCmd())
	rootCmd.AddCommand(client.LogoutCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
