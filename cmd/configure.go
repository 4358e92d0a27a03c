package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anshul-jain-devx108/shopmind/pkg/config"
	"github.com/anshul-jain-devx108/shopmind/pkg/identity"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Configure identity and backend sync settings",
	Long:  `Set the user identity and, optionally, the backend URL and API key for remote session sync.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		backendURL, _ := cmd.Flags().GetString("backend-url")
		apiKey, _ := cmd.Flags().GetString("api-key")
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")

		if name != "" || email != "" {
			id, err := identity.FileProvider{}.Current()
			if err != nil {
				id = identity.Identity{}
			}
			if name != "" {
				id.Name = name
			}
			if email != "" {
				id.Email = email
			}
			if err := identity.Save(id); err != nil {
				return fmt.Errorf("failed to save identity: %w", err)
			}
			fmt.Printf("Identity: %s <%s>\n", id.Name, id.Email)
		}

		if backendURL != "" || apiKey != "" {
			cfg, err := config.GetRemoteConfig()
			if err != nil {
				return fmt.Errorf("failed to get config: %w", err)
			}

			if backendURL != "" {
				cfg.BackendURL = backendURL
			}
			if apiKey != "" {
				cfg.APIKey = apiKey
			}

			if err := config.SaveRemoteConfig(cfg); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Printf("Backend URL: %s\n", cfg.BackendURL)
			if cfg.Configured() {
				fmt.Printf("API Key: %s\n", maskKey(cfg.APIKey))
				fmt.Println("Status: Remote sync enabled")
			} else {
				fmt.Println("Status: Remote sync disabled")
			}
			fmt.Println("Remote sync will take effect on the next session.")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configureCmd)

	configureCmd.Flags().String("backend-url", "", "Backend API URL (e.g., http://localhost:8080)")
	configureCmd.Flags().String("api-key", "", "API key for authentication")
	configureCmd.Flags().String("name", "", "Display name of the current user")
	configureCmd.Flags().String("email", "", "Email of the current user (stable user key)")
}
