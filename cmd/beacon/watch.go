// ABOUTME: Watch command that follows a shared session from the terminal
// ABOUTME: Resolves a short link, counts the view and polls for updates

package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harper/beacon/internal/models"
	"github.com/harper/beacon/internal/shortlink"
	"github.com/harper/beacon/internal/storage"
	"github.com/harper/beacon/internal/ui"
	"github.com/harper/beacon/internal/viewer"
	"github.com/spf13/cobra"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <code>",
	Short: "Follow a shared session by its short code",
	Long: `Follow a short link the way a viewer would: the click is counted, then
the session is printed again whenever it changes.

Examples:
  beacon watch aB3xY9
  beacon watch aB3xY9 --interval 2s`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		link, err := links.Follow(args[0])
		if errors.Is(err, shortlink.ErrNotFound) {
			return fmt.Errorf("short link '%s' not found", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to follow link: %w", err)
		}

		interval := watchInterval
		if interval <= 0 {
			interval = cfg.GetPollInterval()
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		poller := viewer.NewPoller(sessions, link.SessionID, interval, logger)
		err = poller.Run(ctx, func(sess *models.TrackingSession) {
			fmt.Fprintln(out, ui.FormatSession(sess, time.Now()))
		})
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("session behind '%s' no longer exists", args[0])
		}
		return err
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "poll interval (default from config)")

	rootCmd.AddCommand(watchCmd)
}
