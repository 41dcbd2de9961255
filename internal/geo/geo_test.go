// ABOUTME: Tests for distance math and display formatting
// ABOUTME: Includes batch versus incremental distance agreement

package geo

import (
	"math"
	"testing"
	"time"

	"github.com/harper/beacon/internal/models"
)

func sample(lat, lng float64) models.LocationSample {
	return models.NewSampleAt(lat, lng, 5, time.UnixMilli(0))
}

func TestHaversine_SamePoint(t *testing.T) {
	for _, p := range []Point{{0, 0}, {41.8781, -87.6298}, {-33.8688, 151.2093}, {90, 0}} {
		if d := HaversineMeters(p, p); d != 0 {
			t.Errorf("distance from %v to itself = %f, want 0", p, d)
		}
	}
}

func TestHaversine_OneDegreeOnEquator(t *testing.T) {
	d := HaversineMeters(Point{0, 0}, Point{0, 1})
	if math.Abs(d-111195) > 50 {
		t.Errorf("got %f m, want ~111195 m", d)
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	chicago := Point{41.8781, -87.6298}
	nyc := Point{40.7128, -74.0060}

	ab := HaversineMeters(chicago, nyc)
	ba := HaversineMeters(nyc, chicago)
	if math.Abs(ab-ba) > 1e-6 {
		t.Errorf("asymmetric: %f vs %f", ab, ba)
	}
	// Chicago to New York is roughly 1145 km
	if ab < 1100e3 || ab > 1200e3 {
		t.Errorf("unexpected chicago-nyc distance %f", ab)
	}
}

func TestCumulativeDistance_Short(t *testing.T) {
	if d := CumulativeDistance(nil); d != 0 {
		t.Errorf("empty history: got %f", d)
	}
	if d := CumulativeDistance([]models.LocationSample{sample(10, 10)}); d != 0 {
		t.Errorf("single sample: got %f", d)
	}
}

func TestCumulativeDistance_SumOfPairs(t *testing.T) {
	history := []models.LocationSample{
		sample(0, 0),
		sample(0, 1),
		sample(1, 1),
		sample(1, 1),
		sample(41.8781, -87.6298),
	}

	var want float64
	for i := 1; i < len(history); i++ {
		want += HaversineMeters(PointOf(history[i-1]), PointOf(history[i]))
	}

	got := CumulativeDistance(history)
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("got %f, want %f", got, want)
	}
}

func TestTally_MatchesBatch(t *testing.T) {
	history := []models.LocationSample{
		sample(51.5074, -0.1278),
		sample(48.8566, 2.3522),
		sample(52.52, 13.405),
		sample(41.9028, 12.4964),
	}

	var tally Tally
	for i, s := range history {
		tally.Add(s)
		batch := CumulativeDistance(history[:i+1])
		if math.Abs(tally.Meters()-batch) > 1e-6 {
			t.Fatalf("after %d samples: tally %f, batch %f", i+1, tally.Meters(), batch)
		}
	}
	if tally.Count() != len(history) {
		t.Errorf("count = %d, want %d", tally.Count(), len(history))
	}
}

func TestFormatCoordinate(t *testing.T) {
	tests := []struct {
		value float64
		lat   bool
		want  string
	}{
		{40.7128, true, "40.712800° N"},
		{-74.006, false, "74.006000° W"},
		{-33.8688, true, "33.868800° S"},
		{151.2093, false, "151.209300° E"},
		{0, true, "0.000000° N"},
		{0, false, "0.000000° E"},
		{math.Copysign(0, -1), true, "0.000000° N"},
	}

	for _, tt := range tests {
		if got := FormatCoordinate(tt.value, tt.lat); got != tt.want {
			t.Errorf("FormatCoordinate(%v, %v) = %q, want %q", tt.value, tt.lat, got, tt.want)
		}
	}
}

func TestFormatRelativeAge(t *testing.T) {
	now := int64(1_700_000_000_000)
	tests := []struct {
		name string
		then int64
		want string
	}{
		{"just_now", now, "0s ago"},
		{"seconds", now - 42_500, "42s ago"},
		{"minutes", now - (3*60_000 + 7_000), "3m 7s ago"},
		{"exact_minute", now - 60_000, "1m 0s ago"},
		{"future_clamps", now + 30_000, "0s ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatRelativeAge(now, tt.then); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatDistance(t *testing.T) {
	if got := FormatDistance(850.4); got != "850 m" {
		t.Errorf("got %q", got)
	}
	if got := FormatDistance(1240); got != "1.24 km" {
		t.Errorf("got %q", got)
	}
}

func TestSpeed(t *testing.T) {
	if got := SpeedKMH(10); math.Abs(got-36) > 1e-9 {
		t.Errorf("SpeedKMH(10) = %f", got)
	}
	if got := FormatSpeed(2.5); got != "9.0 km/h" {
		t.Errorf("FormatSpeed(2.5) = %q", got)
	}
}
