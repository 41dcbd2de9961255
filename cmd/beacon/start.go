// ABOUTME: Start command that runs a live tracking session
// ABOUTME: Streams samples from stdin or fixed coordinates until interrupted

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/harper/beacon/internal/geo"
	"github.com/harper/beacon/internal/models"
	"github.com/harper/beacon/internal/tracker"
	"github.com/harper/beacon/internal/ui"
	"github.com/spf13/cobra"
)

var (
	startLat      float64
	startLng      float64
	startAccuracy float64
	startInterval time.Duration
	startSession  string
	startCopy     bool
	startFor      time.Duration
)

var startCmd = &cobra.Command{
	Use:   "start [name]",
	Short: "Start tracking and stream locations into a session",
	Long: `Start a tracking session and keep appending locations until interrupted.

Locations are read one per line from stdin, either as CSV
"lat,lng[,accuracy[,speed[,heading]]]" or as a JSON object with latitude,
longitude, accuracy, timestamp, speed and heading fields. Pass --lat and
--lng instead to report a fixed position every --interval.

The first start of a session creates a short share link; restarting the
same session with --session reuses it.

Examples:
  gpspipe -w | my-filter | beacon start commute
  beacon start --lat 41.8781 --lng -87.6298 --interval 30s
  beacon start --session k3j2h9x --copy`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStart,
}

func init() {
	startCmd.Flags().Float64Var(&startLat, "lat", 0, "fixed latitude instead of reading stdin")
	startCmd.Flags().Float64Var(&startLng, "lng", 0, "fixed longitude instead of reading stdin")
	startCmd.Flags().Float64Var(&startAccuracy, "accuracy", 10, "accuracy in meters for fixed coordinates")
	startCmd.Flags().DurationVar(&startInterval, "interval", 0, "sampling interval for fixed coordinates (default from config)")
	startCmd.Flags().StringVar(&startSession, "session", "", "resume an existing session (id, id prefix or name)")
	startCmd.Flags().BoolVar(&startCopy, "copy", false, "copy the share link to the clipboard")
	startCmd.Flags().DurationVar(&startFor, "for", 0, "stop automatically after this long")

	rootCmd.AddCommand(startCmd)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func startProvider(cmd *cobra.Command) (tracker.Provider, error) {
	latSet := cmd.Flags().Changed("lat")
	lngSet := cmd.Flags().Changed("lng")
	if latSet != lngSet {
		return nil, fmt.Errorf("--lat and --lng must be given together")
	}
	if !latSet {
		return tracker.NewLineReader(cmd.InOrStdin(), logger), nil
	}

	if err := models.ValidateCoordinates(startLat, startLng); err != nil {
		return nil, err
	}
	interval := startInterval
	if interval <= 0 && cfg != nil {
		interval = cfg.GetSampleInterval()
	}
	if interval <= 0 {
		interval = tracker.DefaultSampleInterval
	}
	return &tracker.Static{
		Latitude:  startLat,
		Longitude: startLng,
		Accuracy:  startAccuracy,
		Interval:  interval,
	}, nil
}

func runStart(cmd *cobra.Command, args []string) error {
	provider, err := startProvider(cmd)
	if err != nil {
		return err
	}

	var ctrl *tracker.Controller
	if startSession != "" {
		sess, err := findSession(startSession)
		if err != nil {
			return err
		}
		if ctrl, err = tracker.Resume(sess.ID, trackerDeps(provider)); err != nil {
			return fmt.Errorf("failed to resume session: %w", err)
		}
		if len(args) == 1 {
			if err := ctrl.Rename(args[0]); err != nil {
				return err
			}
		}
	} else {
		name := ""
		if len(args) == 1 {
			if err := models.ValidateName(args[0]); err != nil {
				return err
			}
			name = args[0]
		}
		ctrl = tracker.New(models.NewSession(name), trackerDeps(provider))
	}

	out := cmd.OutOrStdout()
	ctrl.OnSample(func(s models.LocationSample) {
		fmt.Fprintln(out, ui.FormatSampleForTimeline(s))
	})
	failed := make(chan error, 1)
	ctrl.OnError(func(err error) {
		select {
		case failed <- err:
		default:
		}
	})

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if startFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, startFor)
		defer cancel()
	}

	if err := ctrl.Start(ctx); err != nil {
		return fmt.Errorf("failed to start tracking: %w", err)
	}

	sess := ctrl.Session()
	color.Green("✓ Tracking %s", sess.Name)
	fmt.Fprintf(out, "  session: %s\n", sess.ID)
	if url := ctrl.ShareURL(); url != "" {
		fmt.Fprintf(out, "  share:   %s\n", color.CyanString(url))
	}
	if startCopy {
		if err := ctrl.CopyShareLink(tracker.NewTerminalClipboard()); err != nil {
			color.Yellow("⚠ %v", err)
		} else {
			fmt.Fprintln(out, "  (share link copied to clipboard)")
		}
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-failed:
		// end of piped input is a normal finish
		if !errors.Is(err, io.EOF) {
			runErr = err
		}
	}

	if err := ctrl.Stop(); err != nil {
		return fmt.Errorf("failed to stop tracking: %w", err)
	}

	snap := ctrl.Snapshot()
	color.Green("✓ Stopped %s", snap.Name)
	fmt.Fprintf(out, "  %d points, %s\n", len(snap.LocationHistory), geo.FormatDistance(snap.DistanceMeters))
	return runErr
}
