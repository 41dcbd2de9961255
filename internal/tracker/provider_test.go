// ABOUTME: Tests for location providers and sample line parsing
// ABOUTME: Covers CSV and JSON lines, end of input and interval polling

package tracker

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harper/beacon/internal/logging"
	"github.com/harper/beacon/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringsReader(s string) io.Reader { return strings.NewReader(s) }

func TestParseSample(t *testing.T) {
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		line    string
		wantErr bool
		check   func(t *testing.T, s models.LocationSample)
	}{
		{"lat_lng", "40.7128,-74.006", false, func(t *testing.T, s models.LocationSample) {
			assert.Equal(t, 40.7128, s.Latitude)
			assert.Equal(t, -74.006, s.Longitude)
			assert.Zero(t, s.Accuracy)
			assert.Equal(t, now.UnixMilli(), s.Timestamp)
			assert.Nil(t, s.Speed)
		}},
		{"with_motion", "40.7, -74.0, 8, 3.5, 270", false, func(t *testing.T, s models.LocationSample) {
			assert.Equal(t, 8.0, s.Accuracy)
			require.NotNil(t, s.Speed)
			assert.Equal(t, 3.5, *s.Speed)
			require.NotNil(t, s.Heading)
			assert.Equal(t, 270.0, *s.Heading)
		}},
		{"json", `{"latitude":51.5,"longitude":-0.12,"accuracy":3,"timestamp":1700000000000}`, false, func(t *testing.T, s models.LocationSample) {
			assert.Equal(t, int64(1700000000000), s.Timestamp)
		}},
		{"json_no_timestamp", `{"latitude":51.5,"longitude":-0.12}`, false, func(t *testing.T, s models.LocationSample) {
			assert.Equal(t, now.UnixMilli(), s.Timestamp)
		}},
		{"one_field", "40.7", true, nil},
		{"six_fields", "1,2,3,4,5,6", true, nil},
		{"not_number", "north,west", true, nil},
		{"out_of_range", "95,0", true, nil},
		{"bad_json", `{"latitude":`, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseSample(tt.line, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}

func TestLineReader_Current(t *testing.T) {
	r := NewLineReader(stringsReader("# header\n\n1,2,3\n4,5\n"), logging.Discard())
	ctx := context.Background()

	s, err := r.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.Latitude)

	s, err = r.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4.0, s.Latitude)

	_, err = r.Current(ctx)
	assert.ErrorIs(t, err, ErrLocationUnavailable)
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineReader_WatchSkipsMalformed(t *testing.T) {
	r := NewLineReader(stringsReader("1,1\ngarbage\n2,2\n"), logging.Discard())

	var (
		mu      sync.Mutex
		samples []models.LocationSample
		final   error
	)
	sub, err := r.Watch(context.Background(), func(s models.LocationSample, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			final = err
			return
		}
		samples = append(samples, s)
	})
	require.NoError(t, err)

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, samples, 2)
	assert.Equal(t, 2.0, samples[1].Latitude)
	assert.ErrorIs(t, final, io.EOF)
}

func TestStatic_Current(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &Static{Latitude: 1, Longitude: 2, Accuracy: 3, Now: func() time.Time { return at }}

	got, err := s.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, at.UnixMilli(), got.Timestamp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Current(ctx)
	assert.Error(t, err)
}

func TestPoll_DeliversUntilCancel(t *testing.T) {
	s := &Static{Latitude: 1, Longitude: 1, Interval: 5 * time.Millisecond}

	got := make(chan models.LocationSample, 100)
	sub, err := s.Watch(context.Background(), func(sample models.LocationSample, err error) {
		if err == nil {
			got <- sample
		}
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		select {
		case <-got:
		case <-time.After(2 * time.Second):
			t.Fatal("no reading delivered")
		}
	}
	sub.Cancel()

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poll did not stop")
	}
}

func TestPoll_ErrorEndsWatch(t *testing.T) {
	tk := &Ticker{
		Interval: time.Millisecond,
		Source: func(context.Context) (models.LocationSample, error) {
			return models.LocationSample{}, errors.New("no fix")
		},
	}

	var calls int
	var last error
	sub, err := tk.Watch(context.Background(), func(_ models.LocationSample, err error) {
		calls++
		last = err
	})
	require.NoError(t, err)

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poll did not stop after error")
	}
	assert.Equal(t, 1, calls)
	assert.Error(t, last)
}

func TestLocationUnavailableError(t *testing.T) {
	err := Unavailable(ReasonTimeout, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrLocationUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "timeout")

	assert.Equal(t, "location unavailable: permission denied", Unavailable(ReasonPermissionDenied, nil).Error())
	assert.False(t, errors.Is(errors.New("other"), ErrLocationUnavailable))
}

func TestTerminalClipboard_NotATerminal(t *testing.T) {
	var buf strings.Builder
	cb := &TerminalClipboard{Out: &buf, Fd: ^uintptr(0)}
	assert.ErrorIs(t, cb.WriteText("https://beacon.example/s/abc123"), ErrClipboardUnavailable)
	assert.Empty(t, buf.String())
}
