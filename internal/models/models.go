// ABOUTME: Core data models for location samples, sessions and short links
// ABOUTME: Provides constructors and validation shared by every component

package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// ValidateCoordinates checks if latitude and longitude are within valid ranges.
func ValidateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return fmt.Errorf("coordinates cannot be NaN")
	}
	if math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return fmt.Errorf("coordinates cannot be infinite")
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	return nil
}

// ValidateName checks if a name is valid (non-empty, within length limits).
// Note: This validates the raw input - callers should trim whitespace themselves if needed.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("name cannot be empty or whitespace")
	}
	if len(name) > 255 {
		return fmt.Errorf("name too long (max 255 characters)")
	}
	return nil
}

// LocationSample is one reading from a location provider. Samples are
// values; nothing mutates them after construction.
type LocationSample struct {
	Latitude  float64  `json:"latitude" yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64  `json:"longitude" yaml:"longitude" validate:"gte=-180,lte=180"`
	Accuracy  float64  `json:"accuracy" yaml:"accuracy" validate:"gte=0"`
	Timestamp int64    `json:"timestamp" yaml:"timestamp"`
	Speed     *float64 `json:"speed,omitempty" yaml:"speed,omitempty" validate:"omitempty,gte=0"`
	Heading   *float64 `json:"heading,omitempty" yaml:"heading,omitempty" validate:"omitempty,gte=0,lte=360"`
}

// NewSample creates a sample stamped with the current time.
func NewSample(lat, lng, accuracy float64) LocationSample {
	return NewSampleAt(lat, lng, accuracy, time.Now())
}

// NewSampleAt creates a sample with a specific recorded time.
func NewSampleAt(lat, lng, accuracy float64, at time.Time) LocationSample {
	return LocationSample{
		Latitude:  lat,
		Longitude: lng,
		Accuracy:  accuracy,
		Timestamp: at.UnixMilli(),
	}
}

// WithMotion returns a copy of s carrying speed (m/s) and heading (degrees).
// Nil leaves the field unset.
func (s LocationSample) WithMotion(speed, heading *float64) LocationSample {
	s.Speed = copyFloat(speed)
	s.Heading = copyFloat(heading)
	return s
}

// Time returns the sample timestamp as a time.Time.
func (s LocationSample) Time() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// Validate checks ranges and rejects NaN or infinite values.
func (s LocationSample) Validate() error {
	if err := ValidateCoordinates(s.Latitude, s.Longitude); err != nil {
		return err
	}
	if math.IsNaN(s.Accuracy) || math.IsInf(s.Accuracy, 0) {
		return fmt.Errorf("accuracy must be a finite number")
	}
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid sample: %w", err)
	}
	return nil
}

// Equal reports whether two samples carry the same values.
func (s LocationSample) Equal(o LocationSample) bool {
	return s.Latitude == o.Latitude &&
		s.Longitude == o.Longitude &&
		s.Accuracy == o.Accuracy &&
		s.Timestamp == o.Timestamp &&
		floatPtrEqual(s.Speed, o.Speed) &&
		floatPtrEqual(s.Heading, o.Heading)
}

// clone copies the sample along with its optional fields.
func (s LocationSample) clone() LocationSample {
	s.Speed = copyFloat(s.Speed)
	s.Heading = copyFloat(s.Heading)
	return s
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Float returns a pointer to f, for optional sample fields.
func Float(f float64) *float64 {
	return &f
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}
