// ABOUTME: Show command for a single session
// ABOUTME: Prints the session header, its share links and recent history

package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/harper/beacon/internal/ui"
	"github.com/harper/beacon/internal/viewer"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:     "show <session>",
	Aliases: []string{"timeline"},
	Short:   "Show a session and its location history",
	Long: `Show a session's status, distance, share links and recent locations.

The session can be given as its id, a unique id prefix, or its name.

Examples:
  beacon show k3j2h9x
  beacon show commute --recent 50
  beacon show commute --all`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := findSession(args[0])
		if err != nil {
			return err
		}

		recent, _ := cmd.Flags().GetInt("recent")
		if all, _ := cmd.Flags().GetBool("all"); all {
			recent = 0
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.FormatSession(sess, time.Now()))
		if sess.OutOfOrder() {
			color.Yellow("  ⚠ some locations arrived out of order")
		}

		sessionLinks, err := links.ForSession(sess.ID)
		if err != nil {
			return fmt.Errorf("failed to list links: %w", err)
		}
		for _, l := range sessionLinks {
			fmt.Fprintf(out, "  link:     %s\n", ui.FormatLink(l, baseURL()))
		}

		view := viewer.BuildView(sess, time.Now(), recent)
		if len(view.LocationHistory) == 0 {
			return nil
		}
		fmt.Fprintln(out)
		if len(view.LocationHistory) < view.Points {
			fmt.Fprintf(out, "Last %d of %d locations:\n", len(view.LocationHistory), view.Points)
		}
		for _, s := range view.LocationHistory {
			fmt.Fprintln(out, ui.FormatSampleForTimeline(s))
		}
		return nil
	},
}

func init() {
	showCmd.Flags().IntP("recent", "r", viewer.DefaultRecent, "how many recent locations to list")
	showCmd.Flags().Bool("all", false, "list the whole history")

	rootCmd.AddCommand(showCmd)
}
