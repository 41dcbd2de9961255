// ABOUTME: Session lifecycle controller driving a provider into the stores
// ABOUTME: Idle/Tracking state machine with share-link creation on first start

package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/harper/beacon/internal/geo"
	"github.com/harper/beacon/internal/models"
	"github.com/harper/beacon/internal/shortlink"
	"github.com/harper/beacon/internal/storage"
)

// State is the controller's tracking state.
type State int

const (
	Idle State = iota
	Tracking
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Tracking:
		return "tracking"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Deps are the collaborators a controller writes through.
type Deps struct {
	Sessions *storage.SessionStore
	History  *storage.HistoryStore
	Links    *shortlink.Directory
	Provider Provider
	BaseURL  string
	Logger   *log.Logger
}

// Snapshot is what a map renderer needs to draw the session.
type Snapshot struct {
	SessionID       string                  `json:"sessionId"`
	Name            string                  `json:"name"`
	CurrentLocation *models.LocationSample  `json:"currentLocation"`
	LocationHistory []models.LocationSample `json:"locationHistory"`
	IsLive          bool                    `json:"isLive"`
	DistanceMeters  float64                 `json:"distanceMeters"`
	ShareURL        string                  `json:"shareUrl,omitempty"`
}

// Controller owns one tracking session. All methods are serialized, so
// provider callbacks arriving on other goroutines see a consistent session.
type Controller struct {
	deps   Deps
	logger *log.Logger

	mu        sync.Mutex
	session   *models.TrackingSession
	state     State
	sub       Subscription
	shareCode string
	distance  geo.Tally
	onError   func(error)
	onSample  func(models.LocationSample)
}

// New creates an idle controller for session.
func New(session *models.TrackingSession, deps Deps) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	c := &Controller{
		deps:    deps,
		logger:  logger.With("session_id", session.ID),
		session: session,
	}
	for _, s := range session.LocationHistory {
		c.distance.Add(s)
	}
	return c
}

// Resume loads an existing session and the newest short link pointing at
// it, so restarting does not mint a second link.
func Resume(sessionID string, deps Deps) (*Controller, error) {
	session, err := deps.Sessions.Load(sessionID)
	if err != nil {
		return nil, err
	}
	c := New(session, deps)
	if deps.Links != nil {
		links, err := deps.Links.ForSession(sessionID)
		if err != nil {
			return nil, err
		}
		var newest int64 = -1
		for _, l := range links {
			if l.CreatedAt > newest {
				newest = l.CreatedAt
				c.shareCode = l.ShortCode
			}
		}
	}
	return c, nil
}

// OnError registers fn to receive watch failures. It runs after the
// controller has already returned to Idle.
func (c *Controller) OnError(fn func(error)) {
	c.mu.Lock()
	c.onError = fn
	c.mu.Unlock()
}

// OnSample registers fn to run after each sample is persisted. fn runs
// with the controller locked and must not call back into it.
func (c *Controller) OnSample(fn func(models.LocationSample)) {
	c.mu.Lock()
	c.onSample = fn
	c.mu.Unlock()
}

// Start takes one reading, persists it, creates the share link on the first
// start, then keeps appending readings from the provider's watch stream.
// Starting while tracking is a no-op.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Tracking {
		return nil
	}
	if c.deps.Provider == nil {
		return Unavailable(ReasonUnsupported, nil)
	}

	sample, err := c.deps.Provider.Current(ctx)
	if err != nil {
		return c.failLocked(asUnavailable(err))
	}
	if err := sample.Validate(); err != nil {
		return c.failLocked(Unavailable(ReasonInvalid, err))
	}

	c.state = Tracking
	c.session.IsActive = true
	if err := c.appendLocked(sample); err != nil {
		c.state = Idle
		c.session.IsActive = false
		return err
	}

	if c.shareCode == "" && c.deps.Links != nil {
		code, err := c.deps.Links.Create(shortlink.ViewerURL(c.deps.BaseURL, c.session.ID), c.session.ID)
		if err != nil {
			c.logger.Warn("could not create share link", "err", err)
		} else {
			c.shareCode = code
			c.logger.Info("share link ready", "url", shortlink.ShareURL(c.deps.BaseURL, code))
		}
	}

	sub, err := c.deps.Provider.Watch(context.WithoutCancel(ctx), c.deliver)
	if err != nil {
		c.stopLocked()
		return c.failLocked(asUnavailable(err))
	}
	c.sub = sub
	c.logger.Info("tracking started")
	return nil
}

// Stop cancels the watch. Recorded data stays; a reading already underway
// may still land after Stop returns.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Idle {
		return nil
	}
	return c.stopLocked()
}

// Record appends a sample taken outside the watch stream, such as a manual
// fix. It works in either state and never creates a share link.
func (c *Controller) Record(sample models.LocationSample) error {
	if err := sample.Validate(); err != nil {
		return Unavailable(ReasonInvalid, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.appendLocked(sample)
}

// ClearHistory empties the history and current location in either state.
func (c *Controller) ClearHistory() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.session.Clone()
	next.Clear()
	if err := c.commitLocked(next); err != nil {
		return err
	}
	c.distance = geo.Tally{}
	return nil
}

// Rename changes the session name.
func (c *Controller) Rename(name string) error {
	if err := models.ValidateName(name); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.session.Clone()
	next.Name = name
	if err := c.deps.Sessions.Upsert(next); err != nil {
		return err
	}
	c.session = next
	return nil
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns a copy of the session.
func (c *Controller) Session() *models.TrackingSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

// ShareCode returns the short code created on first start, if any.
func (c *Controller) ShareCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shareCode
}

// ShareURL returns the public short URL, or "" before the first start.
func (c *Controller) ShareURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shareURLLocked()
}

// Snapshot returns the renderer payload.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session.Clone()
	return Snapshot{
		SessionID:       s.ID,
		Name:            s.Name,
		CurrentLocation: s.CurrentLocation,
		LocationHistory: s.LocationHistory,
		IsLive:          c.state == Tracking,
		DistanceMeters:  c.distance.Meters(),
		ShareURL:        c.shareURLLocked(),
	}
}

// CopyShareLink writes the share URL to cb.
func (c *Controller) CopyShareLink(cb Clipboard) error {
	url := c.ShareURL()
	if url == "" {
		return errors.New("no share link yet; start tracking first")
	}
	if cb == nil {
		return ErrClipboardUnavailable
	}
	if err := cb.WriteText(url); err != nil {
		if errors.Is(err, ErrClipboardUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrClipboardUnavailable, err)
	}
	return nil
}

func (c *Controller) deliver(sample models.LocationSample, err error) {
	c.mu.Lock()

	if err != nil {
		if c.state != Tracking {
			c.mu.Unlock()
			return
		}
		err = asUnavailable(err)
		c.logger.Warn("location watch failed, stopping", "err", err)
		if stopErr := c.stopLocked(); stopErr != nil {
			c.logger.Error("persist after watch failure", "err", stopErr)
		}
		onError := c.onError
		c.mu.Unlock()
		if onError != nil {
			onError(err)
		}
		return
	}

	if verr := sample.Validate(); verr != nil {
		c.logger.Warn("dropping invalid sample", "err", verr)
		c.mu.Unlock()
		return
	}
	if c.state != Tracking {
		c.logger.Debug("sample arrived after stop")
	}
	if perr := c.appendLocked(sample); perr != nil {
		c.logger.Error("persist sample", "err", perr)
	}
	c.mu.Unlock()
}

func (c *Controller) appendLocked(sample models.LocationSample) error {
	next := c.session.Clone()
	next.Append(sample)
	if err := c.commitLocked(next); err != nil {
		return err
	}
	c.distance.Add(sample)
	c.logger.Debug("sample recorded",
		"lat", sample.Latitude, "lng", sample.Longitude, "count", len(c.session.LocationHistory))
	if c.onSample != nil {
		c.onSample(sample)
	}
	return nil
}

// commitLocked persists next and only then makes it the live session, so a
// failed write leaves memory matching storage.
func (c *Controller) commitLocked(next *models.TrackingSession) error {
	if err := c.deps.History.Save(next.ID, next.LocationHistory); err != nil {
		return err
	}
	if err := c.deps.Sessions.Upsert(next); err != nil {
		return err
	}
	c.session = next
	return nil
}

func (c *Controller) stopLocked() error {
	if c.sub != nil {
		c.sub.Cancel()
		c.sub = nil
	}
	c.state = Idle
	c.session.IsActive = false
	c.logger.Info("tracking stopped")
	return c.deps.Sessions.Upsert(c.session)
}

// failLocked returns to Idle and hands back err. History is left alone.
func (c *Controller) failLocked(err error) error {
	c.state = Idle
	c.logger.Warn("location unavailable", "err", err)
	return err
}

func (c *Controller) shareURLLocked() string {
	if c.shareCode == "" {
		return ""
	}
	return shortlink.ShareURL(c.deps.BaseURL, c.shareCode)
}
