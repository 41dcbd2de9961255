// ABOUTME: Short-link directory mapping public codes to session viewer URLs
// ABOUTME: Generates collision-free codes and counts how often each is followed

// Package shortlink maps short public codes to session-viewing links.
package shortlink

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/beacon/internal/kv"
	"github.com/harper/beacon/internal/models"
)

const (
	// Alphabet is the 62-character set short codes are drawn from.
	Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// CodeLength is the fixed length of every short code.
	CodeLength = 6

	// RecordPrefix is the key prefix for link records.
	RecordPrefix = "short_url_"

	// IndexKey holds the ordered list of live codes.
	IndexKey = "short_url_index"
)

// ErrNotFound is returned when a code does not resolve.
var ErrNotFound = errors.New("short link not found")

// RecordKey returns the store key for a code.
func RecordKey(code string) string {
	return RecordPrefix + code
}

// CodeSource produces candidate short codes.
type CodeSource func() (string, error)

// RandomCode draws CodeLength characters uniformly from Alphabet using
// crypto/rand.
func RandomCode() (string, error) {
	code := make([]byte, CodeLength)
	max := big.NewInt(int64(len(Alphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		code[i] = Alphabet[n.Int64()]
	}
	return string(code), nil
}

// ValidCode reports whether code has the shape of a generated short code.
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// Stats summarizes the directory for the admin view.
type Stats struct {
	Links  int `json:"links"`
	Clicks int `json:"clicks"`
}

// Directory stores short links and the index of live codes. The record and
// the index are separate keys written one after the other, so they can
// drift apart; List tolerates codes whose record is gone.
type Directory struct {
	store  kv.Store
	codes  CodeSource
	now    func() time.Time
	logger *log.Logger
}

// Option configures a Directory.
type Option func(*Directory)

// WithCodeSource replaces the random code generator.
func WithCodeSource(src CodeSource) Option {
	return func(d *Directory) { d.codes = src }
}

// WithClock replaces time.Now for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Directory) { d.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Directory) { d.logger = l }
}

// New creates a directory on top of store.
func New(store kv.Store, opts ...Option) *Directory {
	d := &Directory{
		store:  store,
		codes:  RandomCode,
		now:    time.Now,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Create stores a new link to target for sessionID and returns its code.
// Codes already in the index, or already stored under their record key,
// are regenerated until a free one turns up.
func (d *Directory) Create(target, sessionID string) (string, error) {
	index, err := d.loadIndex()
	if err != nil {
		return "", err
	}
	taken := make(map[string]struct{}, len(index))
	for _, c := range index {
		taken[c] = struct{}{}
	}

	var code string
	for attempt := 1; ; attempt++ {
		code, err = d.codes()
		if err != nil {
			return "", fmt.Errorf("generate short code: %w", err)
		}
		dup, err := d.codeTaken(taken, code)
		if err != nil {
			return "", err
		}
		if !dup {
			break
		}
		d.logger.Debug("short code collision, regenerating", "code", code, "attempt", attempt)
	}

	link := models.ShortLink{
		ShortCode:   code,
		OriginalURL: target,
		SessionID:   sessionID,
		CreatedAt:   d.now().UnixMilli(),
		Clicks:      0,
	}
	if err := d.save(link); err != nil {
		return "", err
	}
	if err := d.saveIndex(append(index, code)); err != nil {
		return "", err
	}

	d.logger.Debug("short link created", "code", code, "session_id", sessionID)
	return code, nil
}

// codeTaken checks the record key too, since the index may have drifted.
func (d *Directory) codeTaken(index map[string]struct{}, code string) (bool, error) {
	if _, ok := index[code]; ok {
		return true, nil
	}
	_, err := d.store.Get(RecordKey(code))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, kv.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("check short code: %w", err)
	}
}

// Resolve returns the link for code, or ErrNotFound.
func (d *Directory) Resolve(code string) (*models.ShortLink, error) {
	raw, err := d.store.Get(RecordKey(code))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get short link: %w", err)
	}

	var link models.ShortLink
	if err := kv.DecodeRecord(raw, &link); err != nil || link.ShortCode == "" {
		d.logger.Debug("discarding unreadable short link", "code", code, "err", err)
		return nil, ErrNotFound
	}
	return &link, nil
}

// RecordClick increments the click count for code. Unknown codes are
// ignored. Concurrent increments are not atomic; the last write wins.
func (d *Directory) RecordClick(code string) error {
	link, err := d.Resolve(code)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	link.Clicks++
	return d.save(*link)
}

// Follow resolves code and counts the visit, returning the link as it was
// stored after the click.
func (d *Directory) Follow(code string) (*models.ShortLink, error) {
	link, err := d.Resolve(code)
	if err != nil {
		return nil, err
	}
	link.Clicks++
	if err := d.save(*link); err != nil {
		return nil, err
	}
	return link, nil
}

// List returns every link in index order. Codes whose record is missing
// or unreadable are skipped.
func (d *Directory) List() ([]models.ShortLink, error) {
	index, err := d.loadIndex()
	if err != nil {
		return nil, err
	}

	links := make([]models.ShortLink, 0, len(index))
	for _, code := range index {
		link, err := d.Resolve(code)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	return links, nil
}

// ListNewestFirst returns List sorted by creation time, newest first.
func (d *Directory) ListNewestFirst() ([]models.ShortLink, error) {
	links, err := d.List()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].CreatedAt > links[j].CreatedAt
	})
	return links, nil
}

// ForSession returns the links pointing at sessionID.
func (d *Directory) ForSession(sessionID string) ([]models.ShortLink, error) {
	links, err := d.List()
	if err != nil {
		return nil, err
	}
	out := links[:0]
	for _, l := range links {
		if l.SessionID == sessionID {
			out = append(out, l)
		}
	}
	return out, nil
}

// Stats totals links and clicks.
func (d *Directory) Stats() (Stats, error) {
	links, err := d.List()
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Links: len(links)}
	for _, l := range links {
		st.Clicks += l.Clicks
	}
	return st, nil
}

// Restore writes link as-is, keeping its code, timestamp and clicks, and
// appends the code to the index if it is not there yet.
func (d *Directory) Restore(link models.ShortLink) error {
	if !ValidCode(link.ShortCode) {
		return fmt.Errorf("invalid short code %q", link.ShortCode)
	}
	if err := d.save(link); err != nil {
		return err
	}

	index, err := d.loadIndex()
	if err != nil {
		return err
	}
	for _, c := range index {
		if c == link.ShortCode {
			return nil
		}
	}
	return d.saveIndex(append(index, link.ShortCode))
}

// Delete removes the record for code and strikes it from the index.
// Deleting an unknown code is a no-op.
func (d *Directory) Delete(code string) error {
	if err := d.store.Delete(RecordKey(code)); err != nil {
		return fmt.Errorf("delete short link: %w", err)
	}

	index, err := d.loadIndex()
	if err != nil {
		return err
	}
	kept := make([]string, 0, len(index))
	for _, c := range index {
		if c != code {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(index) {
		return nil
	}
	return d.saveIndex(kept)
}

func (d *Directory) save(link models.ShortLink) error {
	data, err := kv.EncodeRecord(link)
	if err != nil {
		return fmt.Errorf("encode short link: %w", err)
	}
	if err := d.store.Set(RecordKey(link.ShortCode), data); err != nil {
		return fmt.Errorf("save short link: %w", err)
	}
	return nil
}

func (d *Directory) loadIndex() ([]string, error) {
	raw, err := d.store.Get(IndexKey)
	if errors.Is(err, kv.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get short link index: %w", err)
	}

	var index []string
	if err := kv.DecodeRecord(raw, &index); err != nil {
		d.logger.Debug("discarding unreadable short link index", "err", err)
		return []string{}, nil
	}
	if index == nil {
		index = []string{}
	}
	return index, nil
}

func (d *Directory) saveIndex(index []string) error {
	data, err := kv.EncodeRecord(index)
	if err != nil {
		return fmt.Errorf("encode short link index: %w", err)
	}
	if err := d.store.Set(IndexKey, data); err != nil {
		return fmt.Errorf("save short link index: %w", err)
	}
	return nil
}
