// ABOUTME: Export command for generating GeoJSON, markdown, and YAML output
// ABOUTME: Supports time filtering and point or track geometry

package main

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/harper/beacon/internal/geojson"
	"github.com/harper/beacon/internal/models"
	"github.com/harper/beacon/internal/storage"
	"github.com/spf13/cobra"
)

// durationRegex matches relative duration strings like "24h", "7d", "1w", "1m".
var durationRegex = regexp.MustCompile(`^(\d+)([hdwm])$`)

var exportCmd = &cobra.Command{
	Use:     "export [session]",
	Aliases: []string{"e"},
	Short:   "Export sessions in various formats",
	Long: `Export recorded locations as GeoJSON, Markdown, or YAML.

Examples:
  # Export one session as GeoJSON points
  beacon export commute

  # Export as a track
  beacon export commute --geometry line

  # Export with time filter (relative or absolute)
  beacon export commute --since 24h
  beacon export --from 2024-12-01 --to 2024-12-14

  # Markdown table or full YAML dump
  beacon export commute --format markdown
  beacon export --format yaml --output beacon.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format != "geojson" && format != "markdown" && format != "yaml" {
			return fmt.Errorf("unsupported format: %s (use 'geojson', 'markdown', or 'yaml')", format)
		}

		geometry, _ := cmd.Flags().GetString("geometry")
		if geometry != "points" && geometry != "line" {
			return fmt.Errorf("unsupported geometry: %s (use 'points' or 'line')", geometry)
		}

		window, err := parseWindow(cmd)
		if err != nil {
			return err
		}

		sessionID := ""
		if len(args) == 1 {
			sess, err := findSession(args[0])
			if err != nil {
				return err
			}
			sessionID = sess.ID
		}

		output, _ := cmd.Flags().GetString("output")
		out := cmd.OutOrStdout()

		switch format {
		case "markdown":
			data, err := storage.ExportToMarkdown(sessions, sessionID)
			if err != nil {
				return fmt.Errorf("failed to generate markdown: %w", err)
			}
			return writeOutput(out, output, data, "markdown")
		case "yaml":
			data, err := storage.ExportToYAML(storage.Stores{Sessions: sessions, History: history, Links: links})
			if err != nil {
				return fmt.Errorf("failed to generate YAML: %w", err)
			}
			return writeOutput(out, output, data, "YAML")
		}

		all, err := storage.GetSessions(sessions, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load sessions: %w", err)
		}
		filtered, count := window.apply(all)
		if count == 0 {
			return fmt.Errorf("no locations found")
		}

		var fc *geojson.FeatureCollection
		if geometry == "line" {
			fc = geojson.ToLineFeatureCollection(filtered)
		} else {
			fc = geojson.ToPointsFeatureCollection(filtered)
		}
		data, err := fc.ToJSONIndent()
		if err != nil {
			return fmt.Errorf("failed to generate GeoJSON: %w", err)
		}
		data = append(data, '\n')
		return writeOutput(out, output, data, fmt.Sprintf("%d locations", count))
	},
}

// timeWindow bounds sample timestamps; zero ends are open.
type timeWindow struct {
	from, to time.Time
}

func (w timeWindow) contains(t time.Time) bool {
	if !w.from.IsZero() && t.Before(w.from) {
		return false
	}
	if !w.to.IsZero() && t.After(w.to) {
		return false
	}
	return true
}

// apply returns copies of sessions holding only samples inside w, dropping
// sessions left empty, and the number of samples kept.
func (w timeWindow) apply(in []*models.TrackingSession) ([]*models.TrackingSession, int) {
	out := make([]*models.TrackingSession, 0, len(in))
	count := 0
	for _, sess := range in {
		c := sess.Clone()
		c.Clear()
		for _, s := range sess.LocationHistory {
			if w.contains(s.Time()) {
				c.Append(s)
			}
		}
		if len(c.LocationHistory) == 0 {
			continue
		}
		count += len(c.LocationHistory)
		out = append(out, c)
	}
	return out, count
}

func parseWindow(cmd *cobra.Command) (timeWindow, error) {
	since, _ := cmd.Flags().GetString("since")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")

	var w timeWindow
	var err error
	if since != "" {
		if w.from, err = parseDuration(since); err != nil {
			return w, fmt.Errorf("invalid --since value: %w", err)
		}
	} else if from != "" {
		if w.from, err = parseDate(from); err != nil {
			return w, fmt.Errorf("invalid --from value: %w", err)
		}
	}
	if to != "" {
		if w.to, err = parseDate(to); err != nil {
			return w, fmt.Errorf("invalid --to value: %w", err)
		}
		// Set to end of day
		w.to = w.to.Add(24*time.Hour - time.Second)
	}
	return w, nil
}

// parseDuration parses relative duration strings like "24h", "7d", "1w".
func parseDuration(s string) (time.Time, error) {
	matches := durationRegex.FindStringSubmatch(s)
	if matches == nil {
		return time.Time{}, fmt.Errorf("invalid duration format (use e.g., 24h, 7d, 1w)")
	}

	num, err := strconv.Atoi(matches[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid number in duration '%s': %w", s, err)
	}

	var duration time.Duration
	switch matches[2] {
	case "h":
		duration = time.Duration(num) * time.Hour
	case "d":
		duration = time.Duration(num) * 24 * time.Hour
	case "w":
		duration = time.Duration(num) * 7 * 24 * time.Hour
	case "m":
		duration = time.Duration(num) * 30 * 24 * time.Hour
	}

	return time.Now().Add(-duration), nil
}

// parseDate parses date strings in RFC3339 or YYYY-MM-DD format.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date format (use YYYY-MM-DD or RFC3339)")
}

func init() {
	exportCmd.Flags().StringP("format", "f", "geojson", "output format (geojson, markdown, yaml)")
	exportCmd.Flags().StringP("geometry", "g", "points", "geometry type (points, line)")
	exportCmd.Flags().String("since", "", "relative time filter (e.g., 24h, 7d, 1w)")
	exportCmd.Flags().String("from", "", "start date (YYYY-MM-DD or RFC3339)")
	exportCmd.Flags().String("to", "", "end date (YYYY-MM-DD or RFC3339)")
	exportCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")

	rootCmd.AddCommand(exportCmd)
}
