package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/cloo-solutions/grootai/internal/domain"
	"github.com/spf13/cobra"
)

// ConversationResponse represents a stored conversation.
type ConversationResponse struct {
	ID    string        `json:"id"`
	Turns []domain.Turn `json:"turns"`
}

// ConversationCmd creates the conversation command group.
func ConversationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversation",
		Aliases: []string{"conv"},
		Short:   "Manage conversations stored on grootd",
	}

	cmd.AddCommand(conversationSetCmd())
	cmd.AddCommand(conversationAppendCmd())
	cmd.AddCommand(conversationGetCmd())
	cmd.AddCommand(conversationDeleteCmd())

	return cmd
}

func conversationSetCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Replace a conversation's turns with the JSON array in --file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			turns, err := readTurnsFile(file)
			if err != nil {
				return err
			}
			return sendConversation(cmd, "set", func(api *APIClient) (*APIResponse, error) {
				return api.Put(conversationPath(args[0]), map[string]any{"turns": turns})
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to a JSON array of turns")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func conversationAppendCmd() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "append <id> <text>",
		Short: "Append one turn to a conversation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			turn := domain.Turn{Role: domain.TurnRole(role), Text: args[1]}
			return sendConversation(cmd, "append", func(api *APIClient) (*APIResponse, error) {
				return api.Post(conversationPath(args[0])+"/turns", map[string]any{"turns": []domain.Turn{turn}})
			})
		},
	}

	cmd.Flags().StringVarP(&role, "role", "r", string(domain.TurnRoleUser), "Turn role: user, assistant or system")

	return cmd
}

func conversationGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendConversation(cmd, "get", func(api *APIClient) (*APIResponse, error) {
				return api.Get(conversationPath(args[0]))
			})
		},
	}
}

func conversationDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClient(cmd)
			if err != nil {
				return err
			}
			if _, err := api.Delete(conversationPath(args[0])); err != nil {
				return fmt.Errorf("delete failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted conversation %s\n", args[0])
			return nil
		},
	}
}

func sendConversation(cmd *cobra.Command, action string, send func(api *APIClient) (*APIResponse, error)) error {
	api, err := NewAPIClient(cmd)
	if err != nil {
		return err
	}

	resp, err := send(api)
	if err != nil {
		return fmt.Errorf("%s failed: %w", action, err)
	}

	var conv ConversationResponse
	if err := json.Unmarshal(resp.Data, &conv); err != nil {
		return fmt.Errorf("failed to parse conversation: %w", err)
	}

	out := cmd.OutOrStdout()
	outputJSON, _ := cmd.Flags().GetBool("output")
	if outputJSON {
		output, _ := json.MarshalIndent(conv, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	fmt.Fprintf(out, "Conversation %s (%d turns)\n", conv.ID, len(conv.Turns))
	for _, t := range conv.Turns {
		fmt.Fprintf(out, "[%s] %s\n", t.Role, t.Text)
	}
	return nil
}

func conversationPath(id string) string {
	return "/conversations/" + url.PathEscape(id)
}

func readTurnsFile(path string) ([]domain.Turn, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read turns: %w", err)
	}
	var turns []domain.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("failed to parse turns: %w", err)
	}
	return turns, nil
}
