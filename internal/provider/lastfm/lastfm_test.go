package lastfm

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/sydlexius/calliope/internal/provider"
	"github.com/sydlexius/calliope/internal/reconcile"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("loading fixture %s: %v", name, err)
	}
	return data
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Query().Get("api_key") != "test-key" {
			w.Write([]byte(`{"error":10,"message":"Invalid API key"}`))
			return
		}
		if r.URL.Query().Get("method") == "track.search" {
			w.Write([]byte(`{"results":{}}`))
			return
		}
		if r.URL.Query().Get("track") == "nonexistent-track-xyz" {
			w.Write([]byte(`{"error":6,"message":"Track not found","links":[]}`))
			return
		}
		w.Write(loadFixture(t, "track_bohemian.json"))
	}))
}

func newTestAdapter(t *testing.T, apiKey, baseURL string) *Adapter {
	t.Helper()
	limiter := provider.NewRateLimiterMap()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewWithBaseURL(apiKey, limiter, logger, baseURL)
}

func TestName(t *testing.T) {
	a := newTestAdapter(t, "test-key", "http://localhost")
	if a.Name() != reconcile.LastFm {
		t.Errorf("expected %s, got %s", reconcile.LastFm, a.Name())
	}
}

func TestRequiresAuth(t *testing.T) {
	a := newTestAdapter(t, "test-key", "http://localhost")
	if !a.RequiresAuth() {
		t.Error("Last.fm should require auth")
	}
}

func TestFetch(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	a := newTestAdapter(t, "test-key", srv.URL)

	q := reconcile.Query{Title: "Bohemian Rhapsody", Artist: "Queen"}
	p, err := a.Fetch(context.Background(), q)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if p.Provider != reconcile.LastFm {
		t.Errorf("expected provider lastfm, got %s", p.Provider)
	}
	if p.Title != "Bohemian Rhapsody" {
		t.Errorf("expected title Bohemian Rhapsody, got %s", p.Title)
	}
	if p.Artist != "Queen" {
		t.Errorf("expected artist Queen, got %s", p.Artist)
	}
	if p.Album != "A Night at the Opera" {
		t.Errorf("expected album A Night at the Opera, got %s", p.Album)
	}
	if p.Duration != 354 {
		t.Errorf("expected duration 354, got %d", p.Duration)
	}
	if p.Genre != "rock" {
		t.Errorf("expected genre rock, got %s", p.Genre)
	}
	wantCover := "https://lastfm.freetls.fastly.net/i/u/300x300/2a96cbd8b46e442fc41c2b86b821562f.png"
	if p.CoverArtURL != wantCover {
		t.Errorf("expected extralarge cover, got %s", p.CoverArtURL)
	}
	if p.Year != 0 {
		t.Errorf("expected no year, got %d", p.Year)
	}
}

func TestFetchSendsParams(t *testing.T) {
	var gotMethod, gotTrack, gotArtist, gotFormat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.URL.Query().Get("method")
		gotTrack = r.URL.Query().Get("track")
		gotArtist = r.URL.Query().Get("artist")
		gotFormat = r.URL.Query().Get("format")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":6,"message":"Track not found"}`))
	}))
	defer srv.Close()

	a := newTestAdapter(t, "test-key", srv.URL)
	_, _ = a.Fetch(context.Background(), reconcile.Query{Title: "Karma Police", Artist: "Radiohead"})

	if gotMethod != "track.getInfo" {
		t.Errorf("method = %q, want track.getInfo", gotMethod)
	}
	if gotTrack != "Karma Police" {
		t.Errorf("track = %q, want Karma Police", gotTrack)
	}
	if gotArtist != "Radiohead" {
		t.Errorf("artist = %q, want Radiohead", gotArtist)
	}
	if gotFormat != "json" {
		t.Errorf("format = %q, want json", gotFormat)
	}
}

func TestFetchTrackNotFound(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	a := newTestAdapter(t, "test-key", srv.URL)

	_, err := a.Fetch(context.Background(), reconcile.Query{Title: "nonexistent-track-xyz", Artist: "nobody"})
	if err == nil {
		t.Fatal("expected error for unknown track")
	}
	if _, ok := err.(*provider.ErrNotFound); !ok {
		t.Errorf("expected ErrNotFound, got %T: %v", err, err)
	}
}

func TestFetchMissingKey(t *testing.T) {
	a := newTestAdapter(t, "", "http://localhost")

	_, err := a.Fetch(context.Background(), reconcile.Query{Title: "anything", Artist: "anyone"})
	if err == nil {
		t.Fatal("expected error without API key")
	}
	if _, ok := err.(*provider.ErrAuthRequired); !ok {
		t.Errorf("expected ErrAuthRequired, got %T: %v", err, err)
	}
}

func TestFetchInvalidKey(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	a := newTestAdapter(t, "wrong-key", srv.URL)

	_, err := a.Fetch(context.Background(), reconcile.Query{Title: "anything", Artist: "anyone"})
	if err == nil {
		t.Fatal("expected error for invalid API key")
	}
	if _, ok := err.(*provider.ErrAuthRequired); !ok {
		t.Errorf("expected ErrAuthRequired, got %T: %v", err, err)
	}
}

func TestParseDurationMS(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"354000", 354},
		{"1500", 1},
		{"0", 0},
		{"", 0},
		{"abc", 0},
	}
	for _, c := range cases {
		if got := parseDurationMS(c.in); got != c.want {
			t.Errorf("parseDurationMS(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestLargestImage(t *testing.T) {
	images := []Image{
		{URL: "small.png", Size: "small"},
		{URL: "large.png", Size: "large"},
		{URL: "", Size: "extralarge"},
	}
	if got := largestImage(images); got != "large.png" {
		t.Errorf("largestImage = %q, want large.png", got)
	}
	if got := largestImage(nil); got != "" {
		t.Errorf("largestImage(nil) = %q, want empty", got)
	}
}

func TestTestConnection(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	a := newTestAdapter(t, "test-key", srv.URL)

	if err := a.TestConnection(context.Background()); err != nil {
		t.Fatalf("TestConnection: %v", err)
	}
}
