// ABOUTME: Backup command for exporting data to YAML
// ABOUTME: Writes sessions, histories and short links to one portable file

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/harper/beacon/internal/storage"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create a YAML backup of all data",
	Long: `Create a YAML backup file containing every session, its location
history and all short links with their click counts.

Examples:
  beacon backup --output beacon.yaml
  beacon backup -o ~/backups/beacon-$(date +%Y%m%d).yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		data, err := storage.ExportToYAML(storage.Stores{Sessions: sessions, History: history, Links: links})
		if err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}

		if output == "" {
			output = fmt.Sprintf("beacon-%s.yaml", time.Now().Format("20060102-150405"))
		}

		if err := os.WriteFile(output, data, 0644); err != nil { //nolint:gosec // 0644 is intentional for backup files
			return fmt.Errorf("failed to write backup: %w", err)
		}

		dir, _ := sessions.List()
		all, _ := links.List()

		color.Green("Backup created: %s", output)
		fmt.Fprintf(cmd.OutOrStdout(), "  %d sessions, %d links\n", len(dir), len(all))
		return nil
	},
}

func init() {
	backupCmd.Flags().StringP("output", "o", "", "output file (default: beacon-YYYYMMDD-HHMMSS.yaml)")

	rootCmd.AddCommand(backupCmd)
}
