// ABOUTME: Sessions command listing every known session
// ABOUTME: Shows live/idle state, name, short id and current location

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/harper/beacon/internal/storage"
	"github.com/harper/beacon/internal/ui"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"ls", "list"},
	Short:   "List all tracking sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := sessions.List()
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(dir) == 0 {
			fmt.Fprintln(out, "No sessions yet. Use 'beacon start' or 'beacon track' to create one.")
			return nil
		}

		now := time.Now()
		for _, entry := range dir {
			line := ui.FormatSessionSummary(entry)
			sess, err := sessions.Load(entry.ID)
			if err != nil {
				// a directory entry can outlive its record
				if !errors.Is(err, storage.ErrNotFound) {
					fmt.Fprintf(os.Stderr, "warning: failed to load session %s: %v\n", entry.Name, err)
				}
				fmt.Fprintln(out, line)
				continue
			}
			fmt.Fprintf(out, "%s  %s\n", line, ui.FormatSample(sess.CurrentLocation, now))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}
