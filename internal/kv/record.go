// ABOUTME: Versioned JSON envelope for values written through a Store
// ABOUTME: Undecodable values are reported as corrupt so callers can treat them as absent

package kv

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// SchemaVersion is the envelope version written by this build.
const SchemaVersion = 1

// ErrCorrupt marks a stored value that could not be decoded.
var ErrCorrupt = errors.New("stored value is corrupt")

type envelope struct {
	V    int             `json:"v"`
	Data json.RawMessage `json:"data"`
}

// EncodeRecord wraps v in a versioned JSON envelope.
func EncodeRecord(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	return json.Marshal(envelope{V: SchemaVersion, Data: data})
}

// DecodeRecord reads an enveloped value into out. Bare values without an
// envelope are accepted as version 0, the layout written before
// versioning existed. Every failure wraps ErrCorrupt.
func DecodeRecord(raw []byte, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ErrCorrupt
	}

	payload := trimmed
	if trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err == nil && env.V > 0 && env.Data != nil {
			if env.V > SchemaVersion {
				return fmt.Errorf("%w: unknown schema version %d", ErrCorrupt, env.V)
			}
			payload = env.Data
		}
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}

// PutRecord encodes v and stores it under key.
func PutRecord(s Store, key string, v any) error {
	data, err := EncodeRecord(v)
	if err != nil {
		return err
	}
	return s.Set(key, data)
}

// GetRecord loads key into out. It returns ErrNotFound for a missing key
// and an ErrCorrupt-wrapped error for an unreadable value.
func GetRecord(s Store, key string, out any) error {
	raw, err := s.Get(key)
	if err != nil {
		return err
	}
	return DecodeRecord(raw, out)
}
