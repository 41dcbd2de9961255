// ABOUTME: Terminal UI formatting utilities
// ABOUTME: Provides human-readable output for samples, sessions and short links

package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/harper/beacon/internal/geo"
	"github.com/harper/beacon/internal/models"
	"github.com/harper/beacon/internal/shortlink"
)

var faint = color.New(color.Faint)

// FormatCoords renders a sample position with hemisphere letters.
func FormatCoords(s *models.LocationSample) string {
	return geo.FormatCoordinate(s.Latitude, true) + ", " + geo.FormatCoordinate(s.Longitude, false)
}

// FormatSample formats the current location of a session for terminal display.
func FormatSample(s *models.LocationSample, now time.Time) string {
	if s == nil {
		return faint.Sprint("(no location yet)")
	}
	parts := []string{
		color.CyanString(FormatCoords(s)),
		faint.Sprintf("±%.0fm", s.Accuracy),
	}
	if s.Speed != nil {
		parts = append(parts, geo.FormatSpeed(*s.Speed))
	}
	parts = append(parts, faint.Sprint(geo.FormatRelativeAge(now.UnixMilli(), s.Timestamp)))
	return strings.Join(parts, " ")
}

// FormatSampleForTimeline formats one history entry.
func FormatSampleForTimeline(s models.LocationSample) string {
	line := fmt.Sprintf("  %s  %s %s",
		s.Time().Format("Jan 2 15:04:05"),
		color.CyanString(FormatCoords(&s)),
		faint.Sprintf("±%.0fm", s.Accuracy))
	if s.Speed != nil {
		line += " " + geo.FormatSpeed(*s.Speed)
	}
	if s.Heading != nil {
		line += faint.Sprintf(" %.0f°", *s.Heading)
	}
	return line
}

// FormatStatus renders the live/idle badge.
func FormatStatus(active bool) string {
	if active {
		return color.GreenString("● live")
	}
	return faint.Sprint("○ idle")
}

// FormatSessionSummary formats a directory entry.
func FormatSessionSummary(s models.SessionSummary) string {
	return fmt.Sprintf("%s %s %s",
		FormatStatus(s.IsActive),
		color.GreenString(s.Name),
		faint.Sprintf("[%s]", ShortID(s.ID)))
}

// FormatSession formats a session header: name, status, point count,
// distance and the current location.
func FormatSession(s *models.TrackingSession, now time.Time) string {
	if s == nil {
		return faint.Sprint("(no session)")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\n", FormatStatus(s.IsActive), color.GreenString(s.Name), faint.Sprint(s.ID))
	fmt.Fprintf(&b, "  points:   %d\n", len(s.LocationHistory))
	fmt.Fprintf(&b, "  distance: %s\n", geo.FormatDistance(geo.CumulativeDistance(s.LocationHistory)))
	fmt.Fprintf(&b, "  location: %s", FormatSample(s.CurrentLocation, now))
	return b.String()
}

// FormatLink formats a short link with its click count.
func FormatLink(l models.ShortLink, baseURL string) string {
	clicks := "clicks"
	if l.Clicks == 1 {
		clicks = "click"
	}
	return fmt.Sprintf("%s %s %s %s",
		color.CyanString(l.ShortCode),
		shortlink.ShareURL(baseURL, l.ShortCode),
		color.YellowString("%d %s", l.Clicks, clicks),
		faint.Sprintf("→ %s (%s)", ShortID(l.SessionID), FormatRelativeTime(l.Created())))
}

// ShortID trims a UUID to its first block for compact display.
func ShortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// FormatRelativeTime formats a time as relative to now.
func FormatRelativeTime(t time.Time) string {
	diff := time.Since(t)

	// Handle future times (clock skew, bad data)
	if diff < 0 {
		return color.YellowString("in the future")
	}

	if diff < time.Minute {
		return "just now"
	}
	if diff < time.Hour {
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	}
	if diff < 24*time.Hour {
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	days := int(diff.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}
