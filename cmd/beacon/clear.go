// ABOUTME: Clear command that empties a session's history
// ABOUTME: Keeps the session and its share links

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harper/beacon/internal/tracker"
	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear <session>",
	Short: "Clear a session's location history",
	Long: `Remove every recorded location from a session. The session, its name
and its share links are kept, so viewers see an empty map.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := findSession(args[0])
		if err != nil {
			return err
		}

		yes, _ := cmd.Flags().GetBool("confirm")
		if !confirm(cmd, yes, fmt.Sprintf("Clear %d locations from '%s'?", len(sess.LocationHistory), sess.Name)) {
			return nil
		}

		if err := tracker.New(sess, trackerDeps(nil)).ClearHistory(); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}

		color.Green("✓ Cleared %s", sess.Name)
		return nil
	},
}

func init() {
	clearCmd.Flags().Bool("confirm", false, "skip confirmation prompt")

	rootCmd.AddCommand(clearCmd)
}
