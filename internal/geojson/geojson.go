// ABOUTME: GeoJSON generation utilities
// ABOUTME: Converts session histories to GeoJSON FeatureCollections for map tools

package geojson

import (
	"encoding/json"
	"time"

	"github.com/harper/beacon/internal/geo"
	"github.com/harper/beacon/internal/models"
)

// FeatureCollection represents a GeoJSON FeatureCollection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature represents a GeoJSON Feature.
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   Geometry               `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// Geometry represents a GeoJSON Geometry.
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// PointCoordinates represents [longitude, latitude] for a Point.
type PointCoordinates [2]float64

// LineCoordinates represents [[lng, lat], [lng, lat], ...] for a LineString.
type LineCoordinates []PointCoordinates

func collection(features []Feature) *FeatureCollection {
	return &FeatureCollection{Type: "FeatureCollection", Features: features}
}

// ToPointsFeatureCollection emits one Point per recorded sample, in
// history order.
func ToPointsFeatureCollection(sessions []*models.TrackingSession) *FeatureCollection {
	features := make([]Feature, 0)
	for _, s := range sessions {
		for i, sample := range s.LocationHistory {
			props := map[string]interface{}{
				"session_id":  s.ID,
				"name":        s.Name,
				"index":       i,
				"recorded_at": sample.Time().UTC().Format(time.RFC3339),
				"accuracy_m":  sample.Accuracy,
			}
			if sample.Speed != nil {
				props["speed_kmh"] = geo.SpeedKMH(*sample.Speed)
			}
			if sample.Heading != nil {
				props["heading"] = *sample.Heading
			}
			features = append(features, Feature{
				Type: "Feature",
				Geometry: Geometry{
					Type:        "Point",
					Coordinates: PointCoordinates{sample.Longitude, sample.Latitude},
				},
				Properties: props,
			})
		}
	}
	return collection(features)
}

// ToLineFeatureCollection emits one LineString per session track. Sessions
// with fewer than two samples have no line and are skipped.
func ToLineFeatureCollection(sessions []*models.TrackingSession) *FeatureCollection {
	features := make([]Feature, 0, len(sessions))
	for _, s := range sessions {
		if len(s.LocationHistory) < 2 {
			continue
		}

		coords := make(LineCoordinates, len(s.LocationHistory))
		for i, sample := range s.LocationHistory {
			coords[i] = PointCoordinates{sample.Longitude, sample.Latitude}
		}

		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "LineString",
				Coordinates: coords,
			},
			Properties: map[string]interface{}{
				"session_id":  s.ID,
				"name":        s.Name,
				"is_live":     s.IsActive,
				"point_count": len(s.LocationHistory),
				"distance_m":  geo.CumulativeDistance(s.LocationHistory),
			},
		})
	}
	return collection(features)
}

// ToJSON serializes a FeatureCollection to JSON.
func (fc *FeatureCollection) ToJSON() ([]byte, error) {
	return json.Marshal(fc)
}

// ToJSONIndent serializes a FeatureCollection to indented JSON.
func (fc *FeatureCollection) ToJSONIndent() ([]byte, error) {
	return json.MarshalIndent(fc, "", "  ")
}
