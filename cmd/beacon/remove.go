// ABOUTME: Remove command for deleting a session
// ABOUTME: Deletes the session record, its history and its share links

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <session>",
	Aliases: []string{"rm"},
	Short:   "Remove a session and all its data",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := findSession(args[0])
		if err != nil {
			return err
		}

		yes, _ := cmd.Flags().GetBool("confirm")
		if !confirm(cmd, yes, fmt.Sprintf("Remove '%s', its history and share links?", sess.Name)) {
			return nil
		}

		sessionLinks, err := links.ForSession(sess.ID)
		if err != nil {
			return fmt.Errorf("failed to list links: %w", err)
		}
		for _, l := range sessionLinks {
			if err := links.Delete(l.ShortCode); err != nil {
				return fmt.Errorf("failed to remove link %s: %w", l.ShortCode, err)
			}
		}
		if err := history.Delete(sess.ID); err != nil {
			return fmt.Errorf("failed to remove history: %w", err)
		}
		if err := sessions.Delete(sess.ID); err != nil {
			return fmt.Errorf("failed to remove session: %w", err)
		}

		color.Green("✓ Removed %s", sess.Name)
		if len(sessionLinks) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "  %d share link(s) no longer resolve\n", len(sessionLinks))
		}
		return nil
	},
}

func init() {
	removeCmd.Flags().Bool("confirm", false, "skip confirmation prompt")

	rootCmd.AddCommand(removeCmd)
}
