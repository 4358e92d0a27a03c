package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/anshul-jain-devx108/shopmind/pkg/config"
	"github.com/anshul-jain-devx108/shopmind/pkg/httpclient"
	"github.com/anshul-jain-devx108/shopmind/pkg/identity"
	"github.com/anshul-jain-devx108/shopmind/pkg/logger"
)

// statusCheckTimeout bounds the backend probe so status never hangs.
const statusCheckTimeout = 5 * time.Second

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show shopmind status",
	Long:  `Displays the configured identity, local session storage, and remote sync status.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Init()
		defer logger.Close()

		fmt.Println("=== ShopMind: Status ===")
		fmt.Println()

		id, err := identity.FileProvider{}.Current()
		switch {
		case errors.Is(err, identity.ErrNoIdentity):
			fmt.Println("Identity: ✗ Not configured")
			fmt.Println("Run 'shopmind configure --name <name> --email <email>'.")
		case err != nil:
			logger.Error("Failed to read identity: %v", err)
			return fmt.Errorf("failed to read identity: %w", err)
		default:
			fmt.Printf("Identity: ✓ %s <%s>\n", id.Name, id.Email)
		}

		fmt.Println()

		st, err := openStore()
		if err != nil {
			logger.Error("Failed to open session store: %v", err)
			return fmt.Errorf("failed to open session store: %w", err)
		}
		defer st.Close()

		count, err := st.Count()
		if err != nil {
			return fmt.Errorf("failed to count sessions: %w", err)
		}
		fmt.Println("Local Store:")
		fmt.Printf("  Database: %s\n", st.Path())
		fmt.Printf("  Sessions: %d\n", count)
		if id.Email != "" {
			if sid, err := st.ActiveSession(id.Email); err == nil {
				fmt.Printf("  Active session: %s\n", sid)
			} else {
				fmt.Println("  Active session: (none)")
			}
		}

		fmt.Println()

		cfg, err := config.GetRemoteConfig()
		if err != nil {
			logger.Error("Failed to get remote config: %v", err)
			fmt.Println("Remote Sync: ✗ Configuration error")
			return nil
		}
		fmt.Println("Remote Sync:")
		if cfg.Configured() {
			fmt.Printf("  Backend: %s\n", cfg.BackendURL)
			fmt.Printf("  API Key: %s\n", maskKey(cfg.APIKey))

			fmt.Print("  Checking backend... ")
			if err := checkBackend(cfg); err != nil {
				logger.Warn("Backend check failed: %v", err)
				if errors.Is(err, httpclient.ErrUnauthorized) {
					fmt.Println("✗ Invalid API key")
					fmt.Println("  Run 'shopmind configure --api-key <key>' to update it.")
				} else {
					fmt.Println("✗ Unreachable")
					fmt.Printf("  Error: %v\n", err)
				}
				fmt.Println("  Status: ✓ Enabled (sessions stay local until the backend is back)")
			} else {
				fmt.Println("✓ Reachable")
				fmt.Println("  Status: ✓ Enabled (local store remains source of truth)")
			}
		} else {
			fmt.Println("  Status: ✗ Not configured (local-only mode)")
			fmt.Println("  Run 'shopmind configure --backend-url <url> --api-key <key>' to enable.")
		}

		return nil
	},
}

// checkBackend probes the backend with the configured API key. Failures are
// informational only; the local store works regardless of the outcome.
func checkBackend(cfg *config.RemoteConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), statusCheckTimeout)
	defer cancel()

	client := httpclient.NewClient(cfg, statusCheckTimeout)

	var resp struct {
		Valid bool `json:"valid"`
	}
	if err := client.Get(ctx, "/api/v1/auth/validate", &resp); err != nil {
		return err
	}
	if !resp.Valid {
		return fmt.Errorf("API key is not valid")
	}

	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
