package reconcile

import (
	"errors"
	"math"
	"testing"
)

func TestNormalize_MusicBrainzScore(t *testing.T) {
	q := Query{Title: "Bohemian Rhapsody", Artist: "Queen"}
	tests := []struct {
		name  string
		score int
		want  float64
	}{
		{"scaled", 95, 0.95},
		{"zero", 0, 0},
		{"full", 100, 1},
		{"clamped above", 120, 1},
		{"clamped below", -5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Normalize(q, RawPayload{
				Provider:      MusicBrainz,
				Title:         "Bohemian Rhapsody",
				Artist:        "Queen",
				ReportedScore: tt.score,
			})
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if rec.Confidence != tt.want {
				t.Errorf("Confidence = %v, want %v", rec.Confidence, tt.want)
			}
		})
	}
}

func TestNormalize_ExactMatchProviders(t *testing.T) {
	q := Query{Title: "Bohemian Rhapsody", Artist: "Queen"}
	tests := []struct {
		name     string
		provider Provider
		title    string
		artist   string
		want     float64
	}{
		{"discogs exact", Discogs, "Bohemian Rhapsody", "Queen", 0.9},
		{"discogs case and spacing", Discogs, "  BOHEMIAN rhapsody ", "queen", 0.9},
		{"discogs miss", Discogs, "Bohemian Rhapsody (Live)", "Queen", 0.7},
		{"spotify exact", Spotify, "Bohemian Rhapsody", "Queen", 0.85},
		{"spotify miss", Spotify, "Bohemian Rhapsody", "Queen + Adam Lambert", 0.65},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Normalize(q, RawPayload{Provider: tt.provider, Title: tt.title, Artist: tt.artist})
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if rec.Confidence != tt.want {
				t.Errorf("Confidence = %v, want %v", rec.Confidence, tt.want)
			}
		})
	}
}

func TestNormalize_ExactMatchDiacritics(t *testing.T) {
	q := Query{Title: "Señorita", Artist: "Shawn Mendes"}
	rec, err := Normalize(q, RawPayload{Provider: Discogs, Title: "Senorita", Artist: "SHAWN MENDES"})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if rec.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9 (diacritic-stripped match)", rec.Confidence)
	}
}

func TestNormalize_FixedConfidence(t *testing.T) {
	q := Query{Title: "Bohemian Rhapsody", Artist: "Queen"}
	tests := []struct {
		provider Provider
		want     float64
	}{
		{LastFm, 0.75},
		{Genius, 0.7},
	}
	for _, tt := range tests {
		rec, err := Normalize(q, RawPayload{Provider: tt.provider, Title: "anything", Artist: "anyone"})
		if err != nil {
			t.Fatalf("Normalize(%s): %v", tt.provider, err)
		}
		if rec.Confidence != tt.want {
			t.Errorf("%s Confidence = %v, want %v", tt.provider, rec.Confidence, tt.want)
		}
	}
}

func TestNormalize_YouTubeTokenOverlap(t *testing.T) {
	q := Query{Title: "Bohemian Rhapsody", Artist: "Queen"}
	tests := []struct {
		name  string
		video string
		want  float64
	}{
		{"official video noise", "Queen - Bohemian Rhapsody (Official Video)", 0.6},
		{"exact capped", "Queen Bohemian Rhapsody", 0.6},
		{"half overlap", "Queen - Greatest Hits Full Album Live Stream 1981", 0.125},
		{"no overlap", "lofi hip hop radio", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Normalize(q, RawPayload{Provider: YouTube, Title: tt.video, VideoTitle: tt.video})
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if math.Abs(rec.Confidence-tt.want) > 1e-9 {
				t.Errorf("Confidence = %v, want %v", rec.Confidence, tt.want)
			}
		})
	}
}

func TestNormalize_Completeness(t *testing.T) {
	q := Query{Title: "Bohemian Rhapsody", Artist: "Queen"}
	rec, err := Normalize(q, RawPayload{
		Provider:   YouTube,
		Title:      "Bohemian Rhapsody",
		Artist:     "Queen",
		Duration:   355,
		VideoTitle: "Queen - Bohemian Rhapsody (Official Video)",
		CoverArtURL: "https://i.ytimg.com/vi/fJ9rUzIMcZQ/hqdefault.jpg",
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := 4.0 / 7.0
	if math.Abs(rec.Completeness-want) > 1e-9 {
		t.Errorf("Completeness = %v, want %v", rec.Completeness, want)
	}
}

func TestNormalize_AllFieldsPresent(t *testing.T) {
	q := Query{Title: "Bohemian Rhapsody", Artist: "Queen"}
	rec, err := Normalize(q, RawPayload{
		Provider:    MusicBrainz,
		Title:       "Bohemian Rhapsody",
		Artist:      "Queen",
		Album:       "A Night at the Opera",
		Year:        1975,
		Genre:       "Rock",
		Duration:    354,
		CoverArtURL: "https://coverartarchive.org/release/x/front.jpg",
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if rec.Completeness != 1 {
		t.Errorf("Completeness = %v, want 1", rec.Completeness)
	}
}

func TestNormalize_InvalidRecords(t *testing.T) {
	q := Query{Title: "Bohemian Rhapsody", Artist: "Queen"}
	tests := []struct {
		name    string
		payload RawPayload
	}{
		{"missing provider", RawPayload{Title: "Bohemian Rhapsody"}},
		{"unknown provider", RawPayload{Provider: "napster", Title: "Bohemian Rhapsody"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(q, tt.payload)
			var invalid *ErrInvalidRecord
			if !errors.As(err, &invalid) {
				t.Fatalf("Normalize error = %v, want ErrInvalidRecord", err)
			}
		})
	}
}

func TestWeights_Validate(t *testing.T) {
	if err := DefaultWeights().Validate(); err != nil {
		t.Fatalf("DefaultWeights().Validate: %v", err)
	}
	tests := []struct {
		name string
		w    Weights
	}{
		{"sum below one", Weights{Confidence: 0.5, Completeness: 0.3, CorroborationBonus: 0.1}},
		{"confidence above one", Weights{Confidence: 1.2, Completeness: -0.2, CorroborationBonus: 0.1}},
		{"negative bonus", Weights{Confidence: 0.7, Completeness: 0.3, CorroborationBonus: -0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.w.Validate(); err == nil {
				t.Errorf("Validate() = nil, want error for %+v", tt.w)
			}
		})
	}
}

func TestWeights_Overall(t *testing.T) {
	w := DefaultWeights()
	rec := SourceRecord{Confidence: 0.95, Completeness: 6.0 / 7.0}
	want := 0.7*0.95 + 0.3*(6.0/7.0)
	if got := w.Overall(rec); math.Abs(got-want) > 1e-9 {
		t.Errorf("Overall = %v, want %v", got, want)
	}
}

func TestParseProvider(t *testing.T) {
	tests := []struct {
		in   string
		want Provider
	}{
		{"musicbrainz", MusicBrainz},
		{"MusicBrainz", MusicBrainz},
		{"Last.fm", LastFm},
		{"lastfm", LastFm},
		{"YOUTUBE", YouTube},
	}
	for _, tt := range tests {
		got, err := ParseProvider(tt.in)
		if err != nil {
			t.Fatalf("ParseProvider(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseProvider(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if _, err := ParseProvider("napster"); err == nil {
		t.Error("ParseProvider(napster) = nil error, want failure")
	}
}

func TestProviderPriority(t *testing.T) {
	order := AllProviders()
	for i := 1; i < len(order); i++ {
		if order[i-1].Priority() <= order[i].Priority() {
			t.Errorf("priority not strictly descending at %s (%d) vs %s (%d)",
				order[i-1], order[i-1].Priority(), order[i], order[i].Priority())
		}
	}
	if MusicBrainz.Priority() <= Discogs.Priority() {
		t.Error("MusicBrainz should outrank Discogs")
	}
	if YouTube.Priority() >= Genius.Priority() {
		t.Error("YouTube should rank below Genius")
	}
}
