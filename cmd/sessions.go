package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anshul-jain-devx108/shopmind/pkg/logger"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded sessions",
	Long:  `Lists the session index in first-creation order without loading message bodies.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Init()
		defer logger.Close()

		st, err := openStore()
		if err != nil {
			return fmt.Errorf("failed to open session store: %w", err)
		}
		defer st.Close()

		index, err := st.ListIndex()
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		if len(index) == 0 {
			fmt.Println("No sessions recorded yet.")
			return nil
		}

		for _, entry := range index {
			state := "active"
			duration := ""
			if entry.EndTime != nil {
				state = "ended"
				duration = fmt.Sprintf(", %.1f min", entry.EndTime.Sub(entry.StartTime).Minutes())
			}
			fmt.Printf("%s  %s  %s  %d messages (%s%s)\n",
				entry.StartTime.Format("2006-01-02 15:04"),
				entry.SessionID,
				entry.UserID,
				entry.MessageCount,
				state,
				duration,
			)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}
