// ABOUTME: Great-circle distance over location histories
// ABOUTME: Batch and incremental totals sum the same consecutive pairs

package geo

import (
	"math"

	"github.com/harper/beacon/internal/models"
)

// EarthRadiusMeters is the mean spherical Earth radius used by HaversineMeters.
const EarthRadiusMeters = 6371 * 1000.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// PointOf returns the coordinates of a sample.
func PointOf(s models.LocationSample) Point {
	return Point{Lat: s.Latitude, Lon: s.Longitude}
}

// HaversineMeters returns the great-circle distance between a and b.
func HaversineMeters(a, b Point) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// CumulativeDistance sums the distance between each consecutive pair of
// samples. Histories with fewer than two samples have traveled nothing.
func CumulativeDistance(history []models.LocationSample) float64 {
	var t Tally
	for _, s := range history {
		t.Add(s)
	}
	return t.Meters()
}

// Tally accumulates distance one sample at a time. The zero value is ready
// to use.
type Tally struct {
	last   Point
	count  int
	meters float64
}

// Add extends the track by one sample.
func (t *Tally) Add(s models.LocationSample) {
	p := PointOf(s)
	if t.count > 0 {
		t.meters += HaversineMeters(t.last, p)
	}
	t.last = p
	t.count++
}

// Meters returns the distance accumulated so far.
func (t *Tally) Meters() float64 {
	return t.meters
}

// Count returns how many samples have been added.
func (t *Tally) Count() int {
	return t.count
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
