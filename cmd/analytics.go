package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anshul-jain-devx108/shopmind/pkg/analytics"
	"github.com/anshul-jain-devx108/shopmind/pkg/logger"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show engagement and popularity statistics",
	Long:  `Computes analytics over all recorded sessions in the local store.`,
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

		report, err := analytics.NewEngine(st).Compute()
		if err != nil {
			return fmt.Errorf("failed to compute analytics: %w", err)
		}

		fmt.Printf("=== ShopMind: Analytics for %s ===\n", id.Email)
		fmt.Println()
		fmt.Printf("Total sessions: %d\n", report.TotalSessions)
		fmt.Printf("Total messages: %d\n", report.TotalMessages)
		fmt.Printf("Average session length: %.1f min\n", report.AverageSessionLength)
		fmt.Println()
		fmt.Println("Engagement:")
		fmt.Printf("  Messages per session: %.1f\n", report.UserEngagement.AverageMessagesPerSession)
		fmt.Printf("  Session duration: %.1f min\n", report.UserEngagement.AverageSessionDuration)
		fmt.Printf("  Product click rate: %.1f%%\n", report.UserEngagement.ProductClickRate)

		if len(report.PopularSearchTerms) > 0 {
			fmt.Println()
			fmt.Println("Top search terms:")
			for _, tc := range report.PopularSearchTerms {
				fmt.Printf("  %4d  %s\n", tc.Count, tc.Term)
			}
		}

		if len(report.PopularCategories) > 0 {
			fmt.Println()
			fmt.Println("Popular categories:")
			for _, cc := range report.PopularCategories {
				fmt.Printf("  %4d  %s\n", cc.Count, cc.Category)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyticsCmd)
}
