// ABOUTME: Import command for restoring data from YAML backup
// ABOUTME: Upserts sessions, replaces their histories and restores short links

package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/harper/beacon/internal/storage"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import data from a YAML backup",
	Long: `Import sessions, histories and short links from a YAML backup file.

This restores data from a backup created with 'beacon backup'. Sessions
and links already present with the same id or code are overwritten;
everything else is kept.

Examples:
  beacon import beacon.yaml
  beacon import --confirm ~/backups/beacon-20241214.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		data, err := os.ReadFile(filename) //nolint:gosec // user-supplied backup path
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		yes, _ := cmd.Flags().GetBool("confirm")
		if !confirm(cmd, yes, fmt.Sprintf("Import data from '%s'?", filename)) {
			return nil
		}

		if err := storage.ImportFromYAML(storage.Stores{Sessions: sessions, History: history, Links: links}, data); err != nil {
			return fmt.Errorf("failed to import: %w", err)
		}

		dir, _ := sessions.List()
		all, _ := links.List()

		color.Green("Import complete")
		fmt.Fprintf(cmd.OutOrStdout(), "  %d sessions, %d links in store\n", len(dir), len(all))
		return nil
	},
}

func init() {
	importCmd.Flags().Bool("confirm", false, "skip confirmation prompt")

	rootCmd.AddCommand(importCmd)
}
