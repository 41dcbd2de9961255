// ABOUTME: Track command that records a single location
// ABOUTME: Appends one sample to a new or existing session without watching

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/harper/beacon/internal/geo"
	"github.com/harper/beacon/internal/models"
	"github.com/harper/beacon/internal/tracker"
	"github.com/harper/beacon/internal/ui"
	"github.com/spf13/cobra"
)

var trackCmd = &cobra.Command{
	Use:     "track <latitude> <longitude>",
	Aliases: []string{"t"},
	Short:   "Record one location",
	Long: `Record a single location. Creates a new session unless --session is given.

Examples:
  beacon track 41.8781 -87.6298
  beacon track --name commute --accuracy 5 41.8781 -87.6298
  beacon track --session commute --at 2024-12-14T15:00:00Z 41.8790 -87.6301

Flags go before the coordinates.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid latitude: %w", err)
		}
		lng, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid longitude: %w", err)
		}
		if err := models.ValidateCoordinates(lat, lng); err != nil {
			return err
		}

		at := time.Now()
		if atStr, _ := cmd.Flags().GetString("at"); atStr != "" {
			at, err = time.Parse(time.RFC3339, atStr)
			if err != nil {
				return fmt.Errorf("invalid timestamp format (use RFC3339, e.g., 2024-12-14T15:00:00Z): %w", err)
			}
		}

		accuracy, _ := cmd.Flags().GetFloat64("accuracy")
		sample := models.NewSampleAt(lat, lng, accuracy, at)
		var speed, heading *float64
		if cmd.Flags().Changed("speed") {
			v, _ := cmd.Flags().GetFloat64("speed")
			speed = models.Float(v)
		}
		if cmd.Flags().Changed("heading") {
			v, _ := cmd.Flags().GetFloat64("heading")
			heading = models.Float(v)
		}
		sample = sample.WithMotion(speed, heading)

		var ctrl *tracker.Controller
		if ref, _ := cmd.Flags().GetString("session"); ref != "" {
			sess, err := findSession(ref)
			if err != nil {
				return err
			}
			ctrl = tracker.New(sess, trackerDeps(nil))
		} else {
			name, _ := cmd.Flags().GetString("name")
			if name != "" {
				if err := models.ValidateName(name); err != nil {
					return err
				}
			}
			ctrl = tracker.New(models.NewSession(name), trackerDeps(nil))
		}

		if err := ctrl.Record(sample); err != nil {
			return fmt.Errorf("failed to record location: %w", err)
		}

		snap := ctrl.Snapshot()
		out := cmd.OutOrStdout()
		color.Green("✓ Recorded location for %s", snap.Name)
		fmt.Fprintln(out, ui.FormatSampleForTimeline(sample))
		fmt.Fprintf(out, "  %s  %d points, %s\n",
			color.New(color.Faint).Sprint(ui.ShortID(snap.SessionID)),
			len(snap.LocationHistory), geo.FormatDistance(snap.DistanceMeters))
		return nil
	},
}

func init() {
	trackCmd.Flags().String("session", "", "append to an existing session (id, id prefix or name)")
	trackCmd.Flags().StringP("name", "n", "", "name for a new session")
	trackCmd.Flags().Float64P("accuracy", "a", 10, "accuracy radius in meters")
	trackCmd.Flags().Float64("speed", 0, "speed in meters per second")
	trackCmd.Flags().Float64("heading", 0, "heading in degrees")
	trackCmd.Flags().String("at", "", "recorded time (RFC3339, e.g., 2024-12-14T15:00:00Z)")
	// negative coordinates are values, not flags
	trackCmd.Flags().SetInterspersed(false)

	rootCmd.AddCommand(trackCmd)
}
