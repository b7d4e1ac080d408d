package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/sydlexius/calliope/internal/reconcile"
)

// AccessTier classifies a provider's access model.
type AccessTier string

// Access tier constants for classifying a provider's access model.
const (
	TierFree     AccessTier = "free"     // No key, no limit known
	TierFreeKey  AccessTier = "free_key" // Free account/sign-up required
	TierFreemium AccessTier = "freemium" // Free tier with quota, paid for more
	TierLocal    AccessTier = "local"    // Local tool, no network account
)

// RateLimitInfo documents the known rate limits for a provider.
type RateLimitInfo struct {
	RequestsPerSecond float64 `json:"requests_per_second,omitempty"`
	RequestsPerDay    int     `json:"requests_per_day,omitempty"` // 0 = unknown/unlimited
}

// Capability describes a provider's access model and documented rate limits.
type Capability struct {
	Tier      AccessTier     `json:"tier"`
	HelpURL   string         `json:"help_url,omitempty"`
	RateLimit *RateLimitInfo `json:"rate_limit,omitempty"`
}

// Capabilities returns the known capability metadata for each provider.
func Capabilities() map[reconcile.Provider]Capability {
	return map[reconcile.Provider]Capability{
		reconcile.MusicBrainz: {
			Tier:      TierFree,
			RateLimit: &RateLimitInfo{RequestsPerSecond: 1},
		},
		reconcile.Discogs: {
			Tier:      TierFreeKey,
			HelpURL:   "https://www.discogs.com/settings/developers",
			RateLimit: &RateLimitInfo{RequestsPerSecond: 1, RequestsPerDay: 1000},
		},
		reconcile.Spotify: {
			Tier:      TierFreeKey,
			HelpURL:   "https://developer.spotify.com/dashboard",
			RateLimit: &RateLimitInfo{RequestsPerSecond: 5},
		},
		reconcile.LastFm: {
			Tier:      TierFreeKey,
			HelpURL:   "https://www.last.fm/api/account/create",
			RateLimit: &RateLimitInfo{RequestsPerSecond: 5},
		},
		reconcile.Genius: {
			Tier:      TierFreeKey,
			HelpURL:   "https://genius.com/api-clients",
			RateLimit: &RateLimitInfo{RequestsPerSecond: 2},
		},
		reconcile.YouTube: {
			Tier:      TierLocal,
			HelpURL:   "https://github.com/yt-dlp/yt-dlp",
			RateLimit: &RateLimitInfo{RequestsPerSecond: 1},
		},
	}
}

// Client is the interface all metadata source adapters must implement.
// Fetch maps the provider's best hit for the query onto the universal
// fields; the caller scores and merges the payloads it collects.
type Client interface {
	// Name returns the unique provider identifier.
	Name() reconcile.Provider

	// RequiresAuth returns true if this provider needs credentials to function.
	RequiresAuth() bool

	// Fetch looks the query up and returns the provider's best matching
	// payload. A nil error always carries a non-nil payload.
	Fetch(ctx context.Context, q reconcile.Query) (*reconcile.RawPayload, error)
}

// TestableClient is an optional interface adapters can implement for the
// `calliope providers --check` connectivity test.
type TestableClient interface {
	Client
	TestConnection(ctx context.Context) error
}

// ErrProviderUnavailable indicates a transient failure (rate-limited, timeout, server error).
type ErrProviderUnavailable struct {
	Provider   reconcile.Provider
	Cause      error
	RetryAfter time.Duration
}

func (e *ErrProviderUnavailable) Error() string {
	return fmt.Sprintf("provider %s unavailable: %v", e.Provider, e.Cause)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Cause }

// ErrNotFound indicates the provider has no match for the requested track.
type ErrNotFound struct {
	Provider reconcile.Provider
	Query    reconcile.Query
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("provider %s: no match for %q by %q", e.Provider, e.Query.Title, e.Query.Artist)
}

// ErrAuthRequired indicates the provider needs credentials but none are configured.
type ErrAuthRequired struct {
	Provider reconcile.Provider
}

func (e *ErrAuthRequired) Error() string {
	return fmt.Sprintf("provider %s: credentials not configured", e.Provider)
}
