// ABOUTME: Tracking session model and its directory summary
// ABOUTME: Keeps currentLocation in step with the tail of the history

package models

import (
	"fmt"
	"time"
)

// TrackingSession is one continuous act of producing location samples.
type TrackingSession struct {
	ID              string           `json:"id" yaml:"id"`
	Name            string           `json:"name" yaml:"name"`
	IsActive        bool             `json:"isActive" yaml:"is_active"`
	CurrentLocation *LocationSample  `json:"currentLocation" yaml:"current_location,omitempty"`
	LocationHistory []LocationSample `json:"locationHistory" yaml:"location_history"`
	CreatedAt       int64            `json:"createdAt" yaml:"created_at"`
}

// SessionSummary is the directory entry kept for every known session.
type SessionSummary struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	IsActive bool   `json:"isActive" yaml:"is_active"`
}

// DefaultSessionName mirrors the name a fresh session gets when the user
// has not picked one.
func DefaultSessionName(t time.Time) string {
	return fmt.Sprintf("Location Session %s", t.Format("1/2/2006"))
}

// NewSession creates an idle session with a generated ID.
func NewSession(name string) *TrackingSession {
	now := time.Now()
	if name == "" {
		name = DefaultSessionName(now)
	}
	return &TrackingSession{
		ID:              NewSessionID(),
		Name:            name,
		LocationHistory: []LocationSample{},
		CreatedAt:       now.UnixMilli(),
	}
}

// Append adds a sample to the end of the history and makes it current.
func (s *TrackingSession) Append(sample LocationSample) {
	s.LocationHistory = append(s.LocationHistory, sample)
	current := sample
	s.CurrentLocation = &current
}

// Clear empties the history and drops the current location.
func (s *TrackingSession) Clear() {
	s.LocationHistory = []LocationSample{}
	s.CurrentLocation = nil
}

// Summary returns the directory entry for the session.
func (s *TrackingSession) Summary() SessionSummary {
	return SessionSummary{ID: s.ID, Name: s.Name, IsActive: s.IsActive}
}

// Recent returns a copy of at most the last n samples, oldest first.
func (s *TrackingSession) Recent(n int) []LocationSample {
	if n <= 0 {
		return []LocationSample{}
	}
	start := len(s.LocationHistory) - n
	if start < 0 {
		start = 0
	}
	return copySamples(s.LocationHistory[start:])
}

// OutOfOrder reports whether any sample is older than the one before it.
// Samples are kept in arrival order, so a late callback shows up here.
func (s *TrackingSession) OutOfOrder() bool {
	for i := 1; i < len(s.LocationHistory); i++ {
		if s.LocationHistory[i].Timestamp < s.LocationHistory[i-1].Timestamp {
			return true
		}
	}
	return false
}

// Clone returns a deep copy, so snapshots handed to renderers cannot be
// mutated by later appends.
func (s *TrackingSession) Clone() *TrackingSession {
	c := *s
	c.LocationHistory = copySamples(s.LocationHistory)
	if s.CurrentLocation != nil {
		cur := s.CurrentLocation.clone()
		c.CurrentLocation = &cur
	}
	return &c
}

func copySamples(samples []LocationSample) []LocationSample {
	out := make([]LocationSample, len(samples))
	for i, s := range samples {
		out[i] = s.clone()
	}
	return out
}
