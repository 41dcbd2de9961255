// ABOUTME: Read-only session view assembled for viewers and agents
// ABOUTME: Adds distance, recency and formatted position to a stored session

package viewer

import (
	"time"

	"github.com/harper/beacon/internal/geo"
	"github.com/harper/beacon/internal/models"
)

// DefaultRecent is how many trailing samples a view lists.
const DefaultRecent = 10

// SessionView is what the map page renders for one session.
type SessionView struct {
	ID              string                  `json:"id"`
	Name            string                  `json:"name"`
	IsLive          bool                    `json:"isLive"`
	CreatedAt       int64                   `json:"createdAt"`
	CurrentLocation *models.LocationSample  `json:"currentLocation"`
	LocationHistory []models.LocationSample `json:"locationHistory"`
	Points          int                     `json:"points"`
	DistanceMeters  float64                 `json:"distanceMeters"`
	Distance        string                  `json:"distance"`
	Position        string                  `json:"position,omitempty"`
	LastUpdate      string                  `json:"lastUpdate,omitempty"`
	Speed           string                  `json:"speed,omitempty"`
	OutOfOrder      bool                    `json:"outOfOrder,omitempty"`
}

// BuildView derives the view of session at now. recent limits the listed
// history to a suffix; zero or less lists everything.
func BuildView(session *models.TrackingSession, now time.Time, recent int) SessionView {
	history := session.LocationHistory
	if recent > 0 {
		history = session.Recent(recent)
	}
	meters := geo.CumulativeDistance(session.LocationHistory)

	v := SessionView{
		ID:              session.ID,
		Name:            session.Name,
		IsLive:          session.IsActive,
		CreatedAt:       session.CreatedAt,
		CurrentLocation: session.CurrentLocation,
		LocationHistory: append([]models.LocationSample{}, history...),
		Points:          len(session.LocationHistory),
		DistanceMeters:  meters,
		Distance:        geo.FormatDistance(meters),
		OutOfOrder:      session.OutOfOrder(),
	}
	if cur := session.CurrentLocation; cur != nil {
		v.Position = geo.FormatCoordinate(cur.Latitude, true) + ", " + geo.FormatCoordinate(cur.Longitude, false)
		v.LastUpdate = geo.FormatRelativeAge(now.UnixMilli(), cur.Timestamp)
		if cur.Speed != nil {
			v.Speed = geo.FormatSpeed(*cur.Speed)
		}
	}
	return v
}
