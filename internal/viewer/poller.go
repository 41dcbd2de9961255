// ABOUTME: Viewer-side refresh loop re-reading one session on a fixed period
// ABOUTME: Emits only when the stored session changed since the last read

package viewer

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/beacon/internal/models"
	"github.com/harper/beacon/internal/storage"
)

// DefaultPollInterval matches the map page's refresh cadence.
const DefaultPollInterval = 5 * time.Second

// Poller re-reads a session until its context ends. Readers see whatever
// the store holds at read time; a write landing between polls shows up on
// the next one.
type Poller struct {
	sessions  *storage.SessionStore
	sessionID string
	interval  time.Duration
	logger    *log.Logger
}

// NewPoller creates a poller for sessionID. A non-positive interval uses
// DefaultPollInterval.
func NewPoller(sessions *storage.SessionStore, sessionID string, interval time.Duration, logger *log.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Poller{sessions: sessions, sessionID: sessionID, interval: interval, logger: logger}
}

// Run calls fn with the session right away and again after each poll that
// finds it changed. It returns storage.ErrNotFound if the session does not
// exist at the first read, and nil once ctx is done.
func (p *Poller) Run(ctx context.Context, fn func(*models.TrackingSession)) error {
	session, err := p.sessions.Load(p.sessionID)
	if err != nil {
		return err
	}
	last := fingerprintOf(session)
	fn(session)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		session, err := p.sessions.Load(p.sessionID)
		if errors.Is(err, storage.ErrNotFound) {
			p.logger.Debug("session gone, still polling", "session_id", p.sessionID)
			continue
		}
		if err != nil {
			p.logger.Warn("poll failed", "session_id", p.sessionID, "err", err)
			continue
		}
		fp := fingerprintOf(session)
		if fp == last {
			continue
		}
		last = fp
		fn(session)
	}
}

type fingerprint struct {
	name     string
	active   bool
	points   int
	lastTime int64
	lastLat  float64
	lastLng  float64
}

func fingerprintOf(s *models.TrackingSession) fingerprint {
	fp := fingerprint{name: s.Name, active: s.IsActive, points: len(s.LocationHistory)}
	if s.CurrentLocation != nil {
		fp.lastTime = s.CurrentLocation.Timestamp
		fp.lastLat = s.CurrentLocation.Latitude
		fp.lastLng = s.CurrentLocation.Longitude
	}
	return fp
}
