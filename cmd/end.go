package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anshul-jain-devx108/shopmind/pkg/logger"
)

var endCmd = &cobra.Command{
	Use:   "end",
	Short: "End the current session",
	Long:  `Terminates the active session for the configured user. Ended sessions are immutable.`,
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
		if err := mgr.EndSession(); err != nil {
			return fmt.Errorf("failed to end session: %w", err)
		}

		fmt.Println("Session ended.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(endCmd)
}
