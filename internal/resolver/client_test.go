package resolver

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_Resolve_SingleTrack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("url"); got != "https://artist.bandcamp.com/track/song" {
			t.Errorf("url param = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"tracks": [{
				"title": "Song",
				"artist": "Artist",
				"album": "Record",
				"artworkUrl": "https://img.example/a.jpg",
				"durationSeconds": 215.5,
				"streamUrls": {"mp3-128": "https://stream.example/song.mp3"}
			}]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	tracks, err := c.Resolve(context.Background(), "https://artist.bandcamp.com/track/song")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("len(tracks) = %d, want 1", len(tracks))
	}
	tr := tracks[0]
	if tr.Title != "Song" || tr.Artist != "Artist" || tr.Album != "Record" {
		t.Errorf("metadata = %+v", tr)
	}
	if tr.StreamURL != "https://stream.example/song.mp3" {
		t.Errorf("StreamURL = %q", tr.StreamURL)
	}
	if tr.Duration != 215500*time.Millisecond {
		t.Errorf("Duration = %v, want 3m35.5s", tr.Duration)
	}
}

func TestClient_Resolve_QualityFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{
			"success": true,
			"tracks": [{"title": "T", "streamUrls": {"mp3-v0": "https://stream.example/v0.mp3"}}]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "mp3-128")
	tracks, err := c.Resolve(context.Background(), "https://a.bandcamp.com/track/t")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if tracks[0].StreamURL != "https://stream.example/v0.mp3" {
		t.Errorf("StreamURL = %q, want fallback quality", tracks[0].StreamURL)
	}
}

func TestClient_Resolve_FailureIsErrUnresolved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"success": false, "tracks": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.Resolve(context.Background(), "https://a.bandcamp.com/track/t")
	if !errors.Is(err, ErrUnresolved) {
		t.Errorf("error = %v, want ErrUnresolved", err)
	}
}

func TestClient_Resolve_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if _, err := c.Resolve(context.Background(), "https://a.bandcamp.com/track/t"); err == nil {
		t.Error("Resolve() should fail on bad status")
	}
}

func newTestCache(t *testing.T, inner Resolver, ttlDays int) *Cache {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := InitSchema(db); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return NewCacheWithDB(inner, db, ttlDays)
}

func TestCache_SecondResolveSkipsNetwork(t *testing.T) {
	inner := NewMock()
	inner.SetTracks("https://a.bandcamp.com/album/r", []Track{
		{Title: "One", Artist: "A", Album: "R", Duration: time.Minute, StreamURL: "https://s/1.mp3"},
		{Title: "Two", Artist: "A", Album: "R", Duration: 2 * time.Minute, StreamURL: "https://s/2.mp3"},
	})
	cache := newTestCache(t, inner, 7)

	first, err := cache.Resolve(context.Background(), "https://a.bandcamp.com/album/r")
	if err != nil {
		t.Fatalf("first Resolve() error = %v", err)
	}
	second, err := cache.Resolve(context.Background(), "https://a.bandcamp.com/album/r")
	if err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}

	if calls := inner.Calls(); len(calls) != 1 {
		t.Errorf("inner calls = %d, want 1", len(calls))
	}
	if len(second) != len(first) {
		t.Fatalf("cached len = %d, want %d", len(second), len(first))
	}
	for i := range first {
		if second[i] != first[i] {
			t.Errorf("track %d: cached %+v != fresh %+v", i, second[i], first[i])
		}
	}
}

func TestCache_ErrorIsNotCached(t *testing.T) {
	inner := NewMock()
	cache := newTestCache(t, inner, 7)

	if _, err := cache.Resolve(context.Background(), "https://a.bandcamp.com/track/x"); !errors.Is(err, ErrUnresolved) {
		t.Fatalf("error = %v, want ErrUnresolved", err)
	}

	inner.SetTracks("https://a.bandcamp.com/track/x", []Track{{Title: "X"}})
	tracks, err := cache.Resolve(context.Background(), "https://a.bandcamp.com/track/x")
	if err != nil {
		t.Fatalf("Resolve() after failure error = %v", err)
	}
	if len(tracks) != 1 || tracks[0].Title != "X" {
		t.Errorf("tracks = %+v", tracks)
	}
}
