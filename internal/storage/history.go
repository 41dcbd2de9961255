// ABOUTME: Per-tracking-id append-only sample log over the keyed store
// ABOUTME: Save replaces the whole log; unreadable data loads as empty

package storage

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/harper/beacon/internal/kv"
	"github.com/harper/beacon/internal/models"
)

// HistoryPrefix is the key prefix for stored histories.
const HistoryPrefix = "location-tracker-"

// HistoryKey returns the store key for a tracking id.
func HistoryKey(trackingID string) string {
	return HistoryPrefix + trackingID
}

// HistoryStore persists location histories keyed by tracking id. There is
// no locking; a single writer per device is assumed.
type HistoryStore struct {
	store  kv.Store
	logger *log.Logger
}

// NewHistoryStore creates a history store on top of store.
func NewHistoryStore(store kv.Store, logger *log.Logger) *HistoryStore {
	if logger == nil {
		logger = log.Default()
	}
	return &HistoryStore{store: store, logger: logger}
}

// Save replaces the stored history for trackingID.
func (h *HistoryStore) Save(trackingID string, history []models.LocationSample) error {
	if history == nil {
		history = []models.LocationSample{}
	}
	data, err := kv.EncodeRecord(history)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := h.store.Set(HistoryKey(trackingID), data); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// Load returns the stored history for trackingID. Missing or malformed
// data yields an empty history; only store I/O failures are errors.
func (h *HistoryStore) Load(trackingID string) ([]models.LocationSample, error) {
	raw, err := h.store.Get(HistoryKey(trackingID))
	if errors.Is(err, kv.ErrNotFound) {
		return []models.LocationSample{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	var history []models.LocationSample
	if err := kv.DecodeRecord(raw, &history); err != nil {
		h.logger.Debug("discarding unreadable history", "tracking_id", trackingID, "err", err)
		return []models.LocationSample{}, nil
	}
	if history == nil {
		history = []models.LocationSample{}
	}
	return history, nil
}

// Append loads the history, adds sample to the end and saves it back.
func (h *HistoryStore) Append(trackingID string, sample models.LocationSample) ([]models.LocationSample, error) {
	history, err := h.Load(trackingID)
	if err != nil {
		return nil, err
	}
	history = append(history, sample)
	if err := h.Save(trackingID, history); err != nil {
		return nil, err
	}
	return history, nil
}

// Delete removes the stored history for trackingID.
func (h *HistoryStore) Delete(trackingID string) error {
	return h.store.Delete(HistoryKey(trackingID))
}

// IDs returns every tracking id that has a stored history.
func (h *HistoryStore) IDs() ([]string, error) {
	keys, err := h.store.Keys(HistoryPrefix)
	if err != nil {
		return nil, fmt.Errorf("list histories: %w", err)
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = k[len(HistoryPrefix):]
	}
	return ids, nil
}
