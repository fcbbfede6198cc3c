package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

// LoginCmd saves the grootd URL and token to the global config.
func LoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save the grootd URL and API token",
		Long:  "Checks that grootd answers with the given URL and token, then saves both to the global config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiToken, _ := cmd.Flags().GetString("api-token")
			apiURL, _ := cmd.Flags().GetString("api-url")
			if apiURL == "" {
				apiURL = defaultAPIURL
			}

			api, err := NewAPIClientWithConfig(apiToken, apiURL)
			if err != nil {
				return err
			}
			if _, err := api.Get("/tools"); err != nil {
				return fmt.Errorf("failed to reach grootd: %w", err)
			}

			if err := SaveGlobalConfig(&GlobalConfig{APIToken: apiToken, APIURL: apiURL}); err != nil {
				return err
			}

			path, _ := GetConfigPath()
			fmt.Fprintf(cmd.OutOrStdout(), "Saved credentials to %s\n", path)
			return nil
		},
	}

	return cmd
}

// LogoutCmd removes the global config.
func LogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove saved credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := DeleteGlobalConfig(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}
