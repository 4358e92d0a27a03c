package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anshul-jain-devx108/shopmind/pkg/logger"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the current session's history",
	Long: `Resets the active session in place: messages and derived metadata are
emptied while the session id and start time are preserved.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Init()
		defer logger.Close()

		id, err := requireIdentity()
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return fmt.Errorf("failed to open session store: %w", err)
		}
		defer st.Close()

		if _, err := st.ActiveSession(id.Email); err != nil {
			fmt.Println("No active session.")
			return nil
		}

		mgr, err := newLifecycle(st)
		if err != nil {
			return err
		}
		defer mgr.Wait()

		if _, err := mgr.RestoreOrCreate(id); err != nil {
			return fmt.Errorf("failed to restore session: %w", err)
		}
		if err := mgr.ClearHistory(); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}

		fmt.Println("Session history cleared.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
}
