package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cloo-solutions/grootai/internal/config"
	"github.com/cloo-solutions/grootai/internal/conversation"
	"github.com/cloo-solutions/grootai/internal/domain"
	"github.com/cloo-solutions/grootai/internal/tools"
	"github.com/spf13/cobra"
)

// InvokeCmd runs one tool in-process, without a server.
func InvokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoke <tool>",
		Short: "Invoke a tool once and print its outcome",
		Long: `Invoke a tool in-process and print its outcome as JSON.

Examples:
  grootd invoke web_search_tool --args '{"query":"electric car sales 2026"}'
  grootd invoke weather_tool --args '{"area":"Lagos"}'
  grootd invoke history --history turns.json`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         runInvoke,
	}

	cmd.Flags().String("args", "{}", "Tool arguments as a JSON object")
	cmd.Flags().String("history", "", "Path to a JSON array of conversation turns")

	return cmd
}

func runInvoke(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	shutdownTelemetry := initTelemetry(cfg)
	defer shutdownTelemetry()

	rawArgs, _ := cmd.Flags().GetString("args")
	call := tools.Call{Arguments: json.RawMessage(rawArgs)}

	historyPath, _ := cmd.Flags().GetString("history")
	if historyPath != "" {
		turns, err := readTurns(historyPath)
		if err != nil {
			return err
		}
		call.Conversation = conversation.Static(turns)
	}

	rt, err := newRuntime(ctx, cfg, runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	outcome := rt.Directory.Invoke(ctx, args[0], call)
	if err := writeJSON(cmd.OutOrStdout(), outcome); err != nil {
		return err
	}
	if !outcome.OK() {
		return fmt.Errorf("%s failed: %s", args[0], outcome.Failure.Kind)
	}
	return nil
}

// ToolsCmd prints the tool definitions and usage guidance.
func ToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the available tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := tools.Builtins(tools.Services{})
			if err != nil {
				return err
			}

			guidance, _ := cmd.Flags().GetBool("guidance")
			if guidance {
				fmt.Fprint(cmd.OutOrStdout(), dir.Guidance())
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), dir.Definitions())
		},
	}

	cmd.Flags().Bool("guidance", false, "Print the orchestrator guidance instead of definitions")

	return cmd
}

func readTurns(path string) ([]domain.Turn, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	defer f.Close()

	var turns []domain.Turn
	if err := json.NewDecoder(f).Decode(&turns); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	if err := domain.ValidateTurns(turns); err != nil {
		return nil, err
	}
	return turns, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
