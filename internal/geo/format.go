// ABOUTME: Human-readable rendering of coordinates, ages, distances and speeds
// ABOUTME: Shared by the CLI, the MCP tools and the viewer API

package geo

import (
	"fmt"
	"math"
)

// FormatCoordinate renders the absolute value to six decimals followed by
// the hemisphere letter. Zero (including -0) is N or E.
func FormatCoordinate(value float64, isLatitude bool) string {
	var dir string
	switch {
	case isLatitude && value >= 0:
		dir = "N"
	case isLatitude:
		dir = "S"
	case value >= 0:
		dir = "E"
	default:
		dir = "W"
	}
	return fmt.Sprintf("%.6f° %s", math.Abs(value), dir)
}

// FormatRelativeAge renders the time between then and now as "{m}m {s}s ago"
// or "{s}s ago". A then later than now (viewer clock behind the producer)
// clamps to zero.
func FormatRelativeAge(nowMillis, thenMillis int64) string {
	diff := nowMillis - thenMillis
	if diff < 0 {
		diff = 0
	}
	minutes := diff / 60000
	seconds := (diff % 60000) / 1000

	if minutes > 0 {
		return fmt.Sprintf("%dm %ds ago", minutes, seconds)
	}
	return fmt.Sprintf("%ds ago", seconds)
}

// FormatDistance renders meters below one kilometer as whole meters and
// anything longer in kilometers with two decimals.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.2f km", meters/1000)
}

// SpeedKMH converts meters per second to kilometers per hour.
func SpeedKMH(mps float64) float64 {
	return mps * 3.6
}

// FormatSpeed renders a speed in m/s as km/h with one decimal.
func FormatSpeed(mps float64) string {
	return fmt.Sprintf("%.1f km/h", SpeedKMH(mps))
}
