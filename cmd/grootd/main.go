package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/grootai/internal/cli"
	"github.com/cloo-solutions/grootai/internal/cli/daemon"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "grootd",
		Short: "Groot tool server",
		Long:  "Groot daemon serving the agent tools over HTTP, or invoking them once from the command line",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(daemon.ServeCmd())
	rootCmd.AddCommand(daemon.InvokeCmd())
	rootCmd.AddCommand(daemon.ToolsCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
