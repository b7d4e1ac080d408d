// Package reconcile merges per-provider track metadata into a single
// authoritative record. It is a pure transformation: callers fetch provider
// payloads, normalize them into scored SourceRecords, and merge those into a
// MergedMetadata with per-field provenance. The package performs no I/O and
// holds no state between calls.
package reconcile

import (
	"fmt"
	"strings"
)

// Provider identifies a metadata source.
type Provider string

// The closed set of known providers.
const (
	MusicBrainz Provider = "musicbrainz"
	Discogs     Provider = "discogs"
	Spotify     Provider = "spotify"
	LastFm      Provider = "lastfm"
	Genius      Provider = "genius"
	YouTube     Provider = "youtube"
)

// AllProviders returns every known provider, highest priority first.
func AllProviders() []Provider {
	return []Provider{MusicBrainz, Discogs, Spotify, LastFm, Genius, YouTube}
}

// Priority returns the provider's tie-break rank. Higher ranks win ties;
// the order reflects how structured each source's metadata is.
func (p Provider) Priority() int {
	switch p {
	case MusicBrainz:
		return 6
	case Discogs:
		return 5
	case Spotify:
		return 4
	case LastFm:
		return 3
	case Genius:
		return 2
	case YouTube:
		return 1
	default:
		return 0
	}
}

// Valid reports whether p is one of the known providers.
func (p Provider) Valid() bool {
	return p.Priority() > 0
}

// DisplayName returns a human-readable name for the provider.
func (p Provider) DisplayName() string {
	switch p {
	case MusicBrainz:
		return "MusicBrainz"
	case Discogs:
		return "Discogs"
	case Spotify:
		return "Spotify"
	case LastFm:
		return "Last.fm"
	case Genius:
		return "Genius"
	case YouTube:
		return "YouTube"
	default:
		return string(p)
	}
}

// ParseProvider resolves a user-supplied name (tag or display name,
// case-insensitive) to a Provider.
func ParseProvider(s string) (Provider, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, p := range AllProviders() {
		if needle == string(p) || needle == strings.ToLower(p.DisplayName()) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

// Field names one of the universal metadata fields every provider is
// evaluated against.
type Field string

// The universal field set.
const (
	FieldTitle       Field = "title"
	FieldArtist      Field = "artist"
	FieldAlbum       Field = "album"
	FieldYear        Field = "year"
	FieldGenre       Field = "genre"
	FieldDuration    Field = "duration"
	FieldCoverArtURL Field = "cover_art_url"
)

// fieldCount is the constant size of the universal field set, so
// completeness is comparable across providers and never divides by zero.
const fieldCount = 7

// Fields returns the universal field set in merge order.
func Fields() []Field {
	return []Field{
		FieldTitle,
		FieldArtist,
		FieldAlbum,
		FieldYear,
		FieldGenre,
		FieldDuration,
		FieldCoverArtURL,
	}
}

// ParseField resolves a user-supplied field name to a Field.
func ParseField(s string) (Field, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, f := range Fields() {
		if needle == string(f) {
			return f, nil
		}
	}
	// Common aliases from interactive use.
	switch needle {
	case "cover", "cover_art", "coverart", "artwork":
		return FieldCoverArtURL, nil
	case "length":
		return FieldDuration, nil
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// Numeric reports whether the field holds a number rather than text.
func (f Field) Numeric() bool {
	return f == FieldYear || f == FieldDuration
}
