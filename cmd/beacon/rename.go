// ABOUTME: Rename command for sessions
// ABOUTME: Changes the display name shown to viewers

package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harper/beacon/internal/tracker"
	"github.com/spf13/cobra"
)

var renameCmd = &cobra.Command{
	Use:   "rename <session> <new name>",
	Short: "Rename a session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := findSession(args[0])
		if err != nil {
			return err
		}
		old := sess.Name
		name := strings.TrimSpace(args[1])

		if err := tracker.New(sess, trackerDeps(nil)).Rename(name); err != nil {
			return fmt.Errorf("failed to rename: %w", err)
		}

		color.Green("✓ Renamed %s to %s", old, name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renameCmd)
}
