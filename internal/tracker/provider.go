// ABOUTME: Location provider collaborator and the implementations the CLI drives
// ABOUTME: Static coordinates, line-oriented readers and interval polling

package tracker

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/beacon/internal/models"
)

// DefaultSampleInterval is how often a polled provider takes a reading.
const DefaultSampleInterval = 10 * time.Second

// WatchFunc receives each sample or failure from a watch. Exactly one of
// the two is meaningful.
type WatchFunc func(sample models.LocationSample, err error)

// Subscription is a running watch. Cancel stops future readings; a reading
// already underway may still be delivered.
type Subscription interface {
	Cancel()
	Done() <-chan struct{}
}

// Provider produces location samples.
type Provider interface {
	// Current takes a single reading.
	Current(ctx context.Context) (models.LocationSample, error)
	// Watch delivers readings to fn until the subscription is cancelled,
	// ctx ends, or the provider runs dry.
	Watch(ctx context.Context, fn WatchFunc) (Subscription, error)
}

type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *subscription) Cancel()               { s.cancel() }
func (s *subscription) Done() <-chan struct{} { return s.done }

// CurrentFunc takes a single reading.
type CurrentFunc func(ctx context.Context) (models.LocationSample, error)

// Poll calls current every interval and hands the result to fn. A failed
// reading is delivered and ends the watch.
func Poll(ctx context.Context, interval time.Duration, current CurrentFunc, fn WatchFunc) Subscription {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	sub := &subscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			sample, err := current(ctx)
			if err != nil && ctx.Err() != nil {
				return
			}
			fn(sample, err)
			if err != nil {
				return
			}
		}
	}()
	return sub
}

// Static reports the same coordinates on every reading.
type Static struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
	Interval  time.Duration
	Now       func() time.Time
}

// Current returns the fixed coordinates stamped with the current time.
func (s *Static) Current(ctx context.Context) (models.LocationSample, error) {
	if err := ctx.Err(); err != nil {
		return models.LocationSample{}, err
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return models.NewSampleAt(s.Latitude, s.Longitude, s.Accuracy, now()), nil
}

// Watch polls Current every Interval.
func (s *Static) Watch(ctx context.Context, fn WatchFunc) (Subscription, error) {
	return Poll(ctx, s.Interval, s.Current, fn), nil
}

// Ticker turns any one-shot source into a watchable provider.
type Ticker struct {
	Source   CurrentFunc
	Interval time.Duration
}

// Current delegates to Source.
func (t *Ticker) Current(ctx context.Context) (models.LocationSample, error) {
	return t.Source(ctx)
}

// Watch polls Source every Interval.
func (t *Ticker) Watch(ctx context.Context, fn WatchFunc) (Subscription, error) {
	return Poll(ctx, t.Interval, t.Source, fn), nil
}

// LineReader reads one sample per line, either CSV
// "lat,lng[,accuracy[,speed[,heading]]]" or a JSON sample object. Blank
// lines and lines starting with '#' are skipped. Malformed lines are logged
// and skipped while watching.
type LineReader struct {
	mu      sync.Mutex
	scanner *bufio.Scanner
	now     func() time.Time
	logger  *log.Logger
}

// NewLineReader reads samples from r.
func NewLineReader(r io.Reader, logger *log.Logger) *LineReader {
	if logger == nil {
		logger = log.Default()
	}
	return &LineReader{scanner: bufio.NewScanner(r), now: time.Now, logger: logger}
}

// Current reads the next sample. End of input is reported as a missing fix
// wrapping io.EOF.
func (l *LineReader) Current(ctx context.Context) (models.LocationSample, error) {
	if err := ctx.Err(); err != nil {
		return models.LocationSample{}, err
	}
	sample, err := l.next()
	if err != nil {
		return models.LocationSample{}, asUnavailable(err)
	}
	return sample, nil
}

// Watch delivers every following line until input ends or the
// subscription is cancelled.
func (l *LineReader) Watch(ctx context.Context, fn WatchFunc) (Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := &subscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		for ctx.Err() == nil {
			sample, err := l.next()
			var perr *ParseError
			if errors.As(err, &perr) {
				l.logger.Warn("skipping malformed sample line", "line", perr.Line, "err", perr.Err)
				continue
			}
			if err != nil {
				fn(models.LocationSample{}, asUnavailable(err))
				return
			}
			fn(sample, nil)
		}
	}()
	return sub, nil
}

func (l *LineReader) next() (models.LocationSample, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for l.scanner.Scan() {
		line := strings.TrimSpace(l.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sample, err := ParseSample(line, l.now())
		if err != nil {
			return models.LocationSample{}, &ParseError{Line: line, Err: err}
		}
		return sample, nil
	}
	if err := l.scanner.Err(); err != nil {
		return models.LocationSample{}, fmt.Errorf("read samples: %w", err)
	}
	return models.LocationSample{}, io.EOF
}

// ParseError reports a line that is not a sample.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %q: %v", e.Line, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// ParseSample decodes a CSV or JSON sample line. Samples without a
// timestamp are stamped with now.
func ParseSample(line string, now time.Time) (models.LocationSample, error) {
	if strings.HasPrefix(line, "{") {
		var s models.LocationSample
		if err := json.Unmarshal([]byte(line), &s); err != nil {
			return models.LocationSample{}, err
		}
		if s.Timestamp == 0 {
			s.Timestamp = now.UnixMilli()
		}
		return s, s.Validate()
	}

	fields := strings.Split(line, ",")
	if len(fields) < 2 || len(fields) > 5 {
		return models.LocationSample{}, fmt.Errorf("expected 2 to 5 comma separated values, got %d", len(fields))
	}
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return models.LocationSample{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		vals[i] = v
	}

	var accuracy float64
	if len(vals) > 2 {
		accuracy = vals[2]
	}
	s := models.NewSampleAt(vals[0], vals[1], accuracy, now)
	var speed, heading *float64
	if len(vals) > 3 {
		speed = models.Float(vals[3])
	}
	if len(vals) > 4 {
		heading = models.Float(vals[4])
	}
	if speed != nil || heading != nil {
		s = s.WithMotion(speed, heading)
	}
	return s, s.Validate()
}
