package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ToolDefinition is the function part of a listed tool.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ToolsResponse represents the GET /tools response.
type ToolsResponse struct {
	Tools []struct {
		Type     string         `json:"type"`
		Function ToolDefinition `json:"function"`
	} `json:"tools"`
	Guidance string `json:"guidance"`
}

// ToolsCmd creates the tools command.
func ToolsCmd() *cobra.Command {
	var showGuidance bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools grootd offers",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClient(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/tools")
			if err != nil {
				return fmt.Errorf("failed to list tools: %w", err)
			}

			var toolsResp ToolsResponse
			if err := json.Unmarshal(resp.Data, &toolsResp); err != nil {
				return fmt.Errorf("failed to parse tools: %w", err)
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				output, _ := json.MarshalIndent(toolsResp, "", "  ")
				fmt.Fprintln(out, string(output))
				return nil
			}
			if showGuidance {
				fmt.Fprint(out, toolsResp.Guidance)
				return nil
			}

			for i, t := range toolsResp.Tools {
				fmt.Fprintf(out, "%s\n   %s\n", t.Function.Name, t.Function.Description)
				if i < len(toolsResp.Tools)-1 {
					fmt.Fprintln(out, strings.Repeat("-", 40))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showGuidance, "guidance", false, "Print the orchestrator guidance")

	return cmd
}
