package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anshul-jain-devx108/shopmind/pkg/config"
	"github.com/anshul-jain-devx108/shopmind/pkg/identity"
	"github.com/anshul-jain-devx108/shopmind/pkg/store"
)

var rootCmd = &cobra.Command{
	Use:   "shopmind",
	Short: "Track and analyze your ShopMind assistant sessions",
	Long: `Shopmind records every conversation with the shopping assistant to local
SQLite storage, mirrors it best-effort to the ShopMind backend when one is
configured, and answers analytics queries over all recorded sessions.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore opens the session database at its configured location.
func openStore() (*store.Store, error) {
	path, err := config.DatabasePath()
	if err != nil {
		return nil, err
	}
	return store.Open(path)
}

// maskKey renders an API key for display without leaking it. Keys too short
// to mask meaningfully (hand-edited config files) are hidden entirely.
func maskKey(key string) string {
	if len(key) < 12 {
		return "****"
	}
	return key[:8] + "..." + key[len(key)-4:]
}

// requireIdentity resolves the configured user identity. Analytics and
// export have no fallback without one, so the error propagates to the user.
func requireIdentity() (identity.Identity, error) {
	id, err := identity.FileProvider{}.Current()
	if err != nil {
		return identity.Identity{}, fmt.Errorf("run 'shopmind configure --name <name> --email <email>' first: %w", err)
	}
	return id, nil
}
