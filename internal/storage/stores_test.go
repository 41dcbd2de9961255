// ABOUTME: Tests for the history and session stores
// ABOUTME: Covers round trips, corrupt data recovery and the session directory

package storage

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/harper/beacon/internal/kv"
	"github.com/harper/beacon/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomHistory(r *rand.Rand, n int) []models.LocationSample {
	history := make([]models.LocationSample, n)
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := range history {
		ts = ts.Add(time.Duration(r.Intn(10_000)) * time.Millisecond)
		s := models.NewSampleAt(r.Float64()*180-90, r.Float64()*360-180, r.Float64()*50, ts)
		if r.Intn(2) == 0 {
			s = s.WithMotion(models.Float(r.Float64()*30), models.Float(r.Float64()*360))
		}
		history[i] = s
	}
	return history
}

func TestHistoryStore_RoundTrip(t *testing.T) {
	hs := NewHistoryStore(kv.NewMemory(), nil)
	r := rand.New(rand.NewSource(7))

	for _, n := range []int{0, 1, 2, 17, 200} {
		want := randomHistory(r, n)
		require.NoError(t, hs.Save("trip", want))

		got, err := hs.Load("trip")
		require.NoError(t, err)
		require.Len(t, got, n)
		for i := range want {
			assert.True(t, want[i].Equal(got[i]), "sample %d differs: %+v vs %+v", i, want[i], got[i])
		}
	}
}

func TestHistoryStore_LoadMissing(t *testing.T) {
	hs := NewHistoryStore(kv.NewMemory(), nil)

	got, err := hs.Load("nobody")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestHistoryStore_MalformedIsEmpty(t *testing.T) {
	store := kv.NewMemory()
	hs := NewHistoryStore(store, nil)

	for _, raw := range []string{"{not json", "", `{"v":99,"data":[]}`, `"a string"`} {
		require.NoError(t, store.Set(HistoryKey("bad"), []byte(raw)))
		got, err := hs.Load("bad")
		require.NoError(t, err, "raw %q", raw)
		assert.Empty(t, got, "raw %q", raw)
	}
}

func TestHistoryStore_LegacyBareArray(t *testing.T) {
	store := kv.NewMemory()
	hs := NewHistoryStore(store, nil)

	legacy := `[{"latitude":41.8781,"longitude":-87.6298,"timestamp":1700000000000,"accuracy":12}]`
	require.NoError(t, store.Set("location-tracker-abc", []byte(legacy)))

	got, err := hs.Load("abc")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 41.8781, got[0].Latitude)
	assert.Equal(t, int64(1700000000000), got[0].Timestamp)
}

func TestHistoryStore_SaveReplaces(t *testing.T) {
	hs := NewHistoryStore(kv.NewMemory(), nil)

	require.NoError(t, hs.Save("t", []models.LocationSample{models.NewSample(1, 1, 1), models.NewSample(2, 2, 1)}))
	require.NoError(t, hs.Save("t", []models.LocationSample{models.NewSample(3, 3, 1)}))

	got, err := hs.Load("t")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3.0, got[0].Latitude)
}

func TestHistoryStore_AppendAndIDs(t *testing.T) {
	hs := NewHistoryStore(kv.NewMemory(), nil)

	_, err := hs.Append("a", models.NewSample(1, 1, 1))
	require.NoError(t, err)
	got, err := hs.Append("a", models.NewSample(2, 2, 1))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = hs.Append("b", models.NewSample(3, 3, 1))
	require.NoError(t, err)

	ids, err := hs.IDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, hs.Delete("a"))
	ids, err = hs.IDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestSessionStore_UpsertLoad(t *testing.T) {
	ss := NewSessionStore(kv.NewMemory(), nil)

	sess := models.NewSession("commute")
	sess.Append(models.NewSample(41.8781, -87.6298, 8))
	sess.IsActive = true
	require.NoError(t, ss.Upsert(sess))

	got, err := ss.Load(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Name, got.Name)
	assert.True(t, got.IsActive)
	require.Len(t, got.LocationHistory, 1)
	require.NotNil(t, got.CurrentLocation)
	assert.True(t, got.CurrentLocation.Equal(got.LocationHistory[0]))
	assert.Equal(t, sess.CreatedAt, got.CreatedAt)
}

func TestSessionStore_LoadNotFound(t *testing.T) {
	store := kv.NewMemory()
	ss := NewSessionStore(store, nil)

	_, err := ss.Load("missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, store.Set(SessionKey("garbled"), []byte("}{")))
	_, err = ss.Load("garbled")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(SessionKey("empty"), []byte(`{"v":1,"data":{}}`)))
	_, err = ss.Load("empty")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionStore_LegacyRecord(t *testing.T) {
	store := kv.NewMemory()
	ss := NewSessionStore(store, nil)

	legacy := `{"id":"k3j2h","name":"Location Session 1/2/2025","isActive":true,` +
		`"currentLocation":null,"locationHistory":[],"createdAt":1735776000000}`
	require.NoError(t, store.Set("location_session_k3j2h", []byte(legacy)))

	got, err := ss.Load("k3j2h")
	require.NoError(t, err)
	assert.Equal(t, "Location Session 1/2/2025", got.Name)
	assert.Nil(t, got.CurrentLocation)
}

func TestSessionStore_DirectoryInsertThenReplace(t *testing.T) {
	ss := NewSessionStore(kv.NewMemory(), nil)

	a := models.NewSession("a")
	b := models.NewSession("b")
	require.NoError(t, ss.Upsert(a))
	require.NoError(t, ss.Upsert(b))

	a.Name = "a-renamed"
	a.IsActive = true
	require.NoError(t, ss.Upsert(a))

	dir, err := ss.List()
	require.NoError(t, err)
	require.Len(t, dir, 2)
	assert.Equal(t, models.SessionSummary{ID: a.ID, Name: "a-renamed", IsActive: true}, dir[0])
	assert.Equal(t, b.ID, dir[1].ID)
}

func TestSessionStore_Delete(t *testing.T) {
	ss := NewSessionStore(kv.NewMemory(), nil)

	a := models.NewSession("a")
	b := models.NewSession("b")
	require.NoError(t, ss.Upsert(a))
	require.NoError(t, ss.Upsert(b))

	require.NoError(t, ss.Delete(a.ID))
	require.NoError(t, ss.Delete("never-existed"))

	_, err := ss.Load(a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	dir, err := ss.List()
	require.NoError(t, err)
	require.Len(t, dir, 1)
	assert.Equal(t, b.ID, dir[0].ID)
}

func TestSessionStore_CorruptDirectoryIsEmpty(t *testing.T) {
	store := kv.NewMemory()
	ss := NewSessionStore(store, nil)
	require.NoError(t, store.Set(DirectoryKey, []byte("nope")))

	dir, err := ss.List()
	require.NoError(t, err)
	assert.Empty(t, dir)

	// the next upsert rebuilds it
	require.NoError(t, ss.Upsert(models.NewSession("fresh")))
	dir, err = ss.List()
	require.NoError(t, err)
	assert.Len(t, dir, 1)
}

func TestSessionStore_OnChange(t *testing.T) {
	ss := NewSessionStore(kv.NewMemory(), nil)

	var seen []string
	cancel := ss.OnChange(func(s *models.TrackingSession) {
		seen = append(seen, s.Name)
	})

	sess := models.NewSession("first")
	require.NoError(t, ss.Upsert(sess))
	sess.Name = "second"
	require.NoError(t, ss.Upsert(sess))

	cancel()
	sess.Name = "third"
	require.NoError(t, ss.Upsert(sess))

	assert.Equal(t, []string{"first", "second"}, seen)
}

func TestSessionStore_OnChangeGetsCopy(t *testing.T) {
	ss := NewSessionStore(kv.NewMemory(), nil)

	var got *models.TrackingSession
	ss.OnChange(func(s *models.TrackingSession) { got = s })

	sess := models.NewSession("walk")
	sess.Append(models.NewSample(1, 1, 1))
	require.NoError(t, ss.Upsert(sess))

	sess.Append(models.NewSample(2, 2, 1))
	require.NotNil(t, got)
	assert.Len(t, got.LocationHistory, 1)
}

func TestSessionStore_UpsertRequiresID(t *testing.T) {
	ss := NewSessionStore(kv.NewMemory(), nil)
	assert.Error(t, ss.Upsert(&models.TrackingSession{}))
	assert.Error(t, ss.Upsert(nil))
}
