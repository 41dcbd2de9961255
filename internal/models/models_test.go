// ABOUTME: Unit tests for data models
// ABOUTME: Tests constructors, validators, and session history methods

package models

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewSample(t *testing.T) {
	before := time.Now().UnixMilli()
	s := NewSample(41.8781, -87.6298, 12)
	after := time.Now().UnixMilli()

	if s.Latitude != 41.8781 || s.Longitude != -87.6298 {
		t.Errorf("unexpected coordinates (%f, %f)", s.Latitude, s.Longitude)
	}
	if s.Accuracy != 12 {
		t.Errorf("expected accuracy 12, got %f", s.Accuracy)
	}
	if s.Timestamp < before || s.Timestamp > after {
		t.Error("Timestamp should be between before and after test times")
	}
	if s.Speed != nil || s.Heading != nil {
		t.Error("expected speed and heading unset")
	}
}

func TestNewSampleAt(t *testing.T) {
	at := time.Date(2024, 12, 14, 15, 0, 0, 0, time.UTC)
	s := NewSampleAt(40.7128, -74.006, 5, at)

	if !s.Time().Equal(at) {
		t.Errorf("expected time %v, got %v", at, s.Time())
	}
}

func TestWithMotion_CopiesPointers(t *testing.T) {
	speed := 3.5
	s := NewSample(0, 0, 1).WithMotion(&speed, nil)
	speed = 99

	if s.Speed == nil || *s.Speed != 3.5 {
		t.Errorf("expected speed 3.5, got %v", s.Speed)
	}
	if s.Heading != nil {
		t.Error("expected heading unset")
	}
}

func TestSampleValidate(t *testing.T) {
	tests := []struct {
		name    string
		sample  LocationSample
		wantErr bool
	}{
		{"valid", NewSample(41.8781, -87.6298, 10), false},
		{"valid_with_motion", NewSample(1, 1, 0).WithMotion(Float(2), Float(359)), false},
		{"negative_accuracy", NewSample(1, 1, -1), true},
		{"nan_accuracy", NewSample(1, 1, math.NaN()), true},
		{"inf_accuracy", NewSample(1, 1, math.Inf(1)), true},
		{"bad_latitude", NewSample(91, 0, 1), true},
		{"bad_longitude", NewSample(0, -181, 1), true},
		{"negative_speed", NewSample(1, 1, 1).WithMotion(Float(-1), nil), true},
		{"heading_too_large", NewSample(1, 1, 1).WithMotion(nil, Float(361)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sample.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSampleEqual(t *testing.T) {
	a := NewSampleAt(1, 2, 3, time.UnixMilli(1000)).WithMotion(Float(1), nil)
	b := NewSampleAt(1, 2, 3, time.UnixMilli(1000)).WithMotion(Float(1), nil)
	if !a.Equal(b) {
		t.Error("expected samples to be equal")
	}

	c := b.WithMotion(Float(2), nil)
	if a.Equal(c) {
		t.Error("expected samples with different speed to differ")
	}
	if a.Equal(b.WithMotion(nil, nil)) {
		t.Error("expected nil speed to differ from set speed")
	}
}

func TestNewSession(t *testing.T) {
	s := NewSession("commute")

	if s.Name != "commute" {
		t.Errorf("expected name 'commute', got '%s'", s.Name)
	}
	if _, err := uuid.Parse(s.ID); err != nil {
		t.Errorf("expected UUID session id, got %q", s.ID)
	}
	if s.IsActive {
		t.Error("new session should be idle")
	}
	if s.CurrentLocation != nil || len(s.LocationHistory) != 0 {
		t.Error("new session should have no locations")
	}
	if s.CreatedAt == 0 {
		t.Error("expected non-zero CreatedAt")
	}
}

func TestNewSession_DefaultName(t *testing.T) {
	s := NewSession("")
	if !strings.HasPrefix(s.Name, "Location Session ") {
		t.Errorf("unexpected default name %q", s.Name)
	}
}

func TestNewSession_UniqueIDs(t *testing.T) {
	if NewSession("a").ID == NewSession("b").ID {
		t.Error("expected unique IDs for different sessions")
	}
}

func TestSessionAppend_CurrentIsLast(t *testing.T) {
	s := NewSession("walk")
	for i := 0; i < 3; i++ {
		s.Append(NewSampleAt(float64(i), 0, 1, time.UnixMilli(int64(i))))
	}

	if len(s.LocationHistory) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(s.LocationHistory))
	}
	if s.CurrentLocation == nil || !s.CurrentLocation.Equal(s.LocationHistory[2]) {
		t.Error("current location should equal the last history element")
	}
}

func TestSessionClear(t *testing.T) {
	s := NewSession("walk")
	s.Append(NewSample(1, 1, 1))
	s.Clear()

	if len(s.LocationHistory) != 0 {
		t.Errorf("expected empty history, got %d", len(s.LocationHistory))
	}
	if s.LocationHistory == nil {
		t.Error("history should be empty, not nil")
	}
	if s.CurrentLocation != nil {
		t.Error("expected current location cleared")
	}
}

func TestSessionRecent(t *testing.T) {
	s := NewSession("walk")
	for i := 0; i < 5; i++ {
		s.Append(NewSampleAt(float64(i), 0, 1, time.UnixMilli(int64(i))))
	}

	recent := s.Recent(2)
	if len(recent) != 2 || recent[0].Latitude != 3 || recent[1].Latitude != 4 {
		t.Errorf("unexpected suffix %+v", recent)
	}
	if len(s.Recent(10)) != 5 {
		t.Error("Recent larger than history should return everything")
	}
	if len(s.Recent(0)) != 0 {
		t.Error("Recent(0) should be empty")
	}
}

func TestSessionOutOfOrder(t *testing.T) {
	s := NewSession("walk")
	s.Append(NewSampleAt(0, 0, 1, time.UnixMilli(2000)))
	s.Append(NewSampleAt(0, 0, 1, time.UnixMilli(3000)))
	if s.OutOfOrder() {
		t.Error("monotonic history reported out of order")
	}

	s.Append(NewSampleAt(0, 0, 1, time.UnixMilli(2500)))
	if !s.OutOfOrder() {
		t.Error("late sample not detected")
	}
}

func TestSessionClone_Independent(t *testing.T) {
	s := NewSession("walk")
	s.Append(NewSample(1, 1, 1))

	c := s.Clone()
	s.Append(NewSample(2, 2, 1))
	s.CurrentLocation.Latitude = 50

	if len(c.LocationHistory) != 1 {
		t.Errorf("clone history changed: %d", len(c.LocationHistory))
	}
	if c.CurrentLocation.Latitude != 1 {
		t.Errorf("clone current location changed: %f", c.CurrentLocation.Latitude)
	}
}

func TestSessionClone_CopiesOptionalFields(t *testing.T) {
	s := NewSession("walk")
	speed, heading := 3.5, 90.0
	sample := NewSample(1, 1, 1)
	sample.Speed = &speed
	sample.Heading = &heading
	s.Append(sample)

	c := s.Clone()
	*s.LocationHistory[0].Speed = 99
	*s.CurrentLocation.Heading = 180

	if *c.LocationHistory[0].Speed != 3.5 {
		t.Errorf("clone speed changed: %f", *c.LocationHistory[0].Speed)
	}
	if *c.CurrentLocation.Heading != 90 {
		t.Errorf("clone heading changed: %f", *c.CurrentLocation.Heading)
	}
}

func TestSessionRecent_DoesNotAlias(t *testing.T) {
	s := NewSession("walk")
	for i := 0; i < 3; i++ {
		s.Append(NewSampleAt(float64(i), 0, 1, time.UnixMilli(int64(i))))
	}

	for _, n := range []int{2, 10} {
		recent := s.Recent(n)
		recent[len(recent)-1].Latitude = 77
		if s.LocationHistory[2].Latitude != 2 {
			t.Fatalf("Recent(%d) shares storage with the session", n)
		}
	}
}

func TestSessionSummary(t *testing.T) {
	s := NewSession("walk")
	s.IsActive = true

	sum := s.Summary()
	if sum.ID != s.ID || sum.Name != "walk" || !sum.IsActive {
		t.Errorf("unexpected summary %+v", sum)
	}
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{"valid_chicago", 41.8781, -87.6298, false},
		{"valid_origin", 0, 0, false},
		{"valid_north_pole", 90, 0, false},
		{"valid_south_pole", -90, 0, false},
		{"valid_antimeridian_east", 0, 180, false},
		{"valid_antimeridian_west", 0, -180, false},
		{"invalid_lat_too_high", 91, 0, true},
		{"invalid_lat_too_low", -91, 0, true},
		{"invalid_lng_too_high", 0, 181, true},
		{"invalid_lng_too_low", 0, -181, true},
		{"invalid_lat_nan", math.NaN(), 0, true},
		{"invalid_lng_nan", 0, math.NaN(), true},
		{"invalid_lat_inf", math.Inf(1), 0, true},
		{"invalid_lat_neg_inf", math.Inf(-1), 0, true},
		{"invalid_lng_inf", 0, math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCoordinates(tt.lat, tt.lng)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCoordinates(%f, %f) error = %v, wantErr %v", tt.lat, tt.lng, err, tt.wantErr)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid_simple", "harper", false},
		{"valid_with_spaces", "my car", false},
		{"valid_single_char", "a", false},
		{"invalid_empty", "", true},
		{"invalid_whitespace_only", "   ", true},
		{"invalid_tabs_only", "\t\t", true},
		{"invalid_newlines_only", "\n\n", true},
		{"valid_max_length", strings.Repeat("a", 255), false},
		{"invalid_too_long", strings.Repeat("a", 256), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateName_ErrorMessages(t *testing.T) {
	err := ValidateName("")
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Errorf("expected error about empty name, got %v", err)
	}

	err = ValidateName(strings.Repeat("a", 300))
	if err == nil || !strings.Contains(err.Error(), "too long") {
		t.Errorf("expected error about length, got %v", err)
	}
}

func TestValidateCoordinates_ErrorMessages(t *testing.T) {
	err := ValidateCoordinates(math.NaN(), 0)
	if err == nil || !strings.Contains(err.Error(), "NaN") {
		t.Errorf("expected error about NaN, got %v", err)
	}

	err = ValidateCoordinates(math.Inf(1), 0)
	if err == nil || !strings.Contains(err.Error(), "infinite") {
		t.Errorf("expected error about infinite, got %v", err)
	}

	err = ValidateCoordinates(100, 0)
	if err == nil || !strings.Contains(err.Error(), "latitude") {
		t.Errorf("expected error about latitude, got %v", err)
	}

	err = ValidateCoordinates(0, 200)
	if err == nil || !strings.Contains(err.Error(), "longitude") {
		t.Errorf("expected error about longitude, got %v", err)
	}
}
