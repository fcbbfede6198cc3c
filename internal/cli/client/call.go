package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cloo-solutions/grootai/internal/domain"
	"github.com/spf13/cobra"
)

// CallCmd creates the call command.
func CallCmd() *cobra.Command {
	var (
		rawArgs        string
		conversationID string
		historyFile    string
	)

	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Invoke a tool on grootd",
		Long: `Invokes a tool and prints its value, or its failure kind and detail.

Examples:
  groot call web_search_tool --args '{"query":"electric car sales 2026"}'
  groot call history --conversation c-1
  groot call visual_tool --args '{"prompt":"what breed?","image_url":"https://example.com/dog.jpg"}'`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ToolCallRequest{ConversationID: conversationID}

			if rawArgs != "" {
				if !json.Valid([]byte(rawArgs)) {
					return fmt.Errorf("--args is not valid JSON")
				}
				req.Arguments = json.RawMessage(rawArgs)
			}

			if historyFile != "" {
				data, err := os.ReadFile(historyFile)
				if err != nil {
					return fmt.Errorf("failed to read history: %w", err)
				}
				var turns []domain.Turn
				if err := json.Unmarshal(data, &turns); err != nil {
					return fmt.Errorf("failed to parse history: %w", err)
				}
				req.History = turns
			}

			api, err := NewAPIClient(cmd)
			if err != nil {
				return err
			}

			outcome, status, err := api.CallTool(args[0], req)
			if err != nil {
				return fmt.Errorf("call failed: %w", err)
			}

			out := cmd.OutOrStdout()
			outputJSON, _ := cmd.Flags().GetBool("output")
			if outputJSON {
				output, _ := json.MarshalIndent(outcome, "", "  ")
				fmt.Fprintln(out, string(output))
			} else if outcome.Failure == nil {
				fmt.Fprintln(out, formatValue(outcome.Value))
			}

			if outcome.Failure != nil {
				return fmt.Errorf("%s (%d): %s", outcome.Failure.Kind, status, outcome.Failure.Detail)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&rawArgs, "args", "a", "", "Tool arguments as a JSON object")
	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "Conversation ID stored on grootd")
	cmd.Flags().StringVar(&historyFile, "history", "", "Path to a JSON array of turns to send inline")

	return cmd
}

// formatValue prints string values bare and everything else as indented JSON.
func formatValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
