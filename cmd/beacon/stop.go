// ABOUTME: Stop command that marks a session idle
// ABOUTME: Recovers sessions left live by a tracker that exited without stopping

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop <session>",
	Short: "Mark a session as no longer live",
	Long: `Mark a session idle so viewers stop showing it as live.

A running 'beacon start' stops its own session on Ctrl-C. Use this when
that process died without stopping, leaving the session marked live.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := findSession(args[0])
		if err != nil {
			return err
		}
		if !sess.IsActive {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is not live.\n", sess.Name)
			return nil
		}

		sess.IsActive = false
		if err := sessions.Upsert(sess); err != nil {
			return fmt.Errorf("failed to stop session: %w", err)
		}

		color.Green("✓ Stopped %s", sess.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
