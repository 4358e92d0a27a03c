package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anshul-jain-devx108/shopmind/pkg/export"
	"github.com/anshul-jain-devx108/shopmind/pkg/logger"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all sessions and analytics to a snapshot file",
	Long:  `Serializes every recorded session plus freshly computed analytics into a single dated snapshot document.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Init()
		defer logger.Close()

		if _, err := requireIdentity(); err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		outDir, _ := cmd.Flags().GetString("out")

		st, err := openStore()
		if err != nil {
			return fmt.Errorf("failed to open session store: %w", err)
		}
		defer st.Close()

		snap, err := export.BuildSnapshot(st)
		if err != nil {
			return err
		}

		path, err := export.WriteSnapshot(snap, outDir, format)
		if err != nil {
			return err
		}

		fmt.Printf("Exported %d sessions to %s\n", len(snap.Sessions), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("format", "json", "Export format (json or yaml)")
	exportCmd.Flags().String("out", ".", "Directory to write the snapshot into")
}
