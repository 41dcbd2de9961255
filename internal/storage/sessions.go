// ABOUTME: Session record store with a directory of known sessions
// ABOUTME: Notifies subscribers after each successful upsert

package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/harper/beacon/internal/kv"
	"github.com/harper/beacon/internal/models"
)

const (
	// SessionPrefix is the key prefix for session records.
	SessionPrefix = "location_session_"

	// DirectoryKey holds the list of known sessions.
	DirectoryKey = "active_sessions"
)

// SessionKey returns the store key for a session id.
func SessionKey(id string) string {
	return SessionPrefix + id
}

// ChangeFunc receives a copy of a session after it was written.
type ChangeFunc func(session *models.TrackingSession)

// SessionStore persists tracking sessions and the session directory.
type SessionStore struct {
	store  kv.Store
	logger *log.Logger

	mu        sync.Mutex
	nextID    int
	listeners map[int]ChangeFunc
}

// NewSessionStore creates a session store on top of store.
func NewSessionStore(store kv.Store, logger *log.Logger) *SessionStore {
	if logger == nil {
		logger = log.Default()
	}
	return &SessionStore{
		store:     store,
		logger:    logger,
		listeners: make(map[int]ChangeFunc),
	}
}

// Upsert writes the full session record, replacing any previous value, and
// inserts or replaces its directory entry.
func (s *SessionStore) Upsert(session *models.TrackingSession) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("session id is required")
	}

	data, err := kv.EncodeRecord(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.store.Set(SessionKey(session.ID), data); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	dir, err := s.List()
	if err != nil {
		return err
	}
	found := false
	for i := range dir {
		if dir[i].ID == session.ID {
			dir[i] = session.Summary()
			found = true
			break
		}
	}
	if !found {
		dir = append(dir, session.Summary())
	}
	if err := s.saveDirectory(dir); err != nil {
		return err
	}

	s.notify(session)
	return nil
}

// Load returns the session with the given id, or ErrNotFound when it is
// absent or unreadable.
func (s *SessionStore) Load(id string) (*models.TrackingSession, error) {
	raw, err := s.store.Get(SessionKey(id))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var session models.TrackingSession
	if err := kv.DecodeRecord(raw, &session); err != nil || session.ID == "" {
		s.logger.Debug("discarding unreadable session", "session_id", id, "err", err)
		return nil, ErrNotFound
	}
	if session.LocationHistory == nil {
		session.LocationHistory = []models.LocationSample{}
	}
	return &session, nil
}

// List returns the session directory. An unreadable directory is empty.
func (s *SessionStore) List() ([]models.SessionSummary, error) {
	raw, err := s.store.Get(DirectoryKey)
	if errors.Is(err, kv.ErrNotFound) {
		return []models.SessionSummary{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load directory: %w", err)
	}

	var dir []models.SessionSummary
	if err := kv.DecodeRecord(raw, &dir); err != nil {
		s.logger.Debug("discarding unreadable session directory", "err", err)
		return []models.SessionSummary{}, nil
	}
	if dir == nil {
		dir = []models.SessionSummary{}
	}
	return dir, nil
}

// Delete removes a session record and its directory entry. Deleting an
// unknown session is a no-op.
func (s *SessionStore) Delete(id string) error {
	if err := s.store.Delete(SessionKey(id)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	dir, err := s.List()
	if err != nil {
		return err
	}
	kept := dir[:0]
	for _, entry := range dir {
		if entry.ID != id {
			kept = append(kept, entry)
		}
	}
	return s.saveDirectory(kept)
}

// OnChange registers fn to run after every successful Upsert. The returned
// function removes the registration.
func (s *SessionStore) OnChange(fn ChangeFunc) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *SessionStore) saveDirectory(dir []models.SessionSummary) error {
	data, err := kv.EncodeRecord(dir)
	if err != nil {
		return fmt.Errorf("encode directory: %w", err)
	}
	if err := s.store.Set(DirectoryKey, data); err != nil {
		return fmt.Errorf("save directory: %w", err)
	}
	return nil
}

func (s *SessionStore) notify(session *models.TrackingSession) {
	s.mu.Lock()
	fns := make([]ChangeFunc, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(session.Clone())
	}
}
