package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sydlexius/calliope/internal/provider"
	"github.com/sydlexius/calliope/internal/reconcile"
)

const defaultBaseURL = "https://ws.audioscrobbler.com/2.0"

// Last.fm error codes that matter to us.
const (
	errCodeNotFound      = 6
	errCodeInvalidAPIKey = 10
	errCodeRateLimited   = 29
)

// Adapter implements the provider.Client interface for Last.fm.
type Adapter struct {
	client  *http.Client
	limiter *provider.RateLimiterMap
	logger  *slog.Logger
	baseURL string
	apiKey  string
}

// New creates a Last.fm adapter with the default base URL.
func New(apiKey string, limiter *provider.RateLimiterMap, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(apiKey, limiter, logger, defaultBaseURL)
}

// NewWithBaseURL creates a Last.fm adapter with a custom base URL (for testing).
func NewWithBaseURL(apiKey string, limiter *provider.RateLimiterMap, logger *slog.Logger, baseURL string) *Adapter {
	return &Adapter{
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: limiter,
		logger:  logger.With(slog.String("provider", "lastfm")),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// Name returns the provider name.
func (a *Adapter) Name() reconcile.Provider { return reconcile.LastFm }

// RequiresAuth returns whether this provider needs credentials.
func (a *Adapter) RequiresAuth() bool { return true }

// Fetch looks the track up with track.getInfo and maps the response.
// Last.fm resolves a single track rather than ranking candidates, so there
// is no hit selection here.
func (a *Adapter) Fetch(ctx context.Context, q reconcile.Query) (*reconcile.RawPayload, error) {
	if a.apiKey == "" {
		return nil, &provider.ErrAuthRequired{Provider: reconcile.LastFm}
	}

	if err := a.limiter.Wait(ctx, reconcile.LastFm); err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: reconcile.LastFm,
			Cause:    fmt.Errorf("rate limiter: %w", err),
		}
	}

	params := url.Values{
		"method":  {"track.getInfo"},
		"track":   {q.Title},
		"artist":  {q.Artist},
		"api_key": {a.apiKey},
		"format":  {"json"},
	}
	reqURL := a.baseURL + "/?" + params.Encode()

	body, err := a.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var resp InfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing track info: %w", err)
	}

	// Last.fm reports failures as 200s with an error payload.
	switch resp.Error {
	case 0:
	case errCodeNotFound:
		return nil, &provider.ErrNotFound{Provider: reconcile.LastFm, Query: q}
	case errCodeInvalidAPIKey:
		return nil, &provider.ErrAuthRequired{Provider: reconcile.LastFm}
	case errCodeRateLimited:
		return nil, &provider.ErrProviderUnavailable{
			Provider:   reconcile.LastFm,
			Cause:      fmt.Errorf("rate limited: %s", resp.Message),
			RetryAfter: 2 * time.Second,
		}
	default:
		return nil, &provider.ErrProviderUnavailable{
			Provider: reconcile.LastFm,
			Cause:    fmt.Errorf("lastfm error %d: %s", resp.Error, resp.Message),
		}
	}
	if resp.Track.Name == "" {
		return nil, &provider.ErrNotFound{Provider: reconcile.LastFm, Query: q}
	}

	return mapTrack(&resp.Track), nil
}

// TestConnection verifies the API key is valid.
func (a *Adapter) TestConnection(ctx context.Context) error {
	if a.apiKey == "" {
		return &provider.ErrAuthRequired{Provider: reconcile.LastFm}
	}
	params := url.Values{
		"method":  {"track.search"},
		"track":   {"test"},
		"api_key": {a.apiKey},
		"format":  {"json"},
		"limit":   {"1"},
	}
	reqURL := a.baseURL + "/?" + params.Encode()
	body, err := a.doRequest(ctx, reqURL)
	if err != nil {
		return err
	}
	var resp InfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	if resp.Error == errCodeInvalidAPIKey {
		return &provider.ErrAuthRequired{Provider: reconcile.LastFm}
	}
	return nil
}

func (a *Adapter) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Calliope/1.0")
	req.Header.Set("Accept", "application/json")

	a.logger.Debug("requesting", slog.String("url", reqURL))

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: reconcile.LastFm,
			Cause:    err,
		}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrAuthRequired{Provider: reconcile.LastFm}
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrProviderUnavailable{
			Provider: reconcile.LastFm,
			Cause:    fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	return io.ReadAll(io.LimitReader(resp.Body, 512*1024))
}

// mapTrack converts a Last.fm track to the universal payload.
func mapTrack(track *TrackInfo) *reconcile.RawPayload {
	p := &reconcile.RawPayload{
		Provider: reconcile.LastFm,
		Title:    track.Name,
		Artist:   track.Artist.Name,
		Album:    track.Album.Title,
		Duration: parseDurationMS(track.Duration),
	}
	if len(track.TopTags.Tag) > 0 {
		p.Genre = track.TopTags.Tag[0].Name
	}
	p.CoverArtURL = largestImage(track.Album.Image)
	return p
}

// parseDurationMS converts Last.fm's stringly millisecond duration to
// whole seconds. Unparseable or zero durations map to zero (absent).
func parseDurationMS(s string) int {
	ms, err := strconv.Atoi(s)
	if err != nil || ms <= 0 {
		return 0
	}
	return ms / 1000
}

// largestImage picks the biggest artwork URL. Last.fm orders the image
// array ascending by size.
func largestImage(images []Image) string {
	for i := len(images) - 1; i >= 0; i-- {
		if images[i].URL != "" {
			return images[i].URL
		}
	}
	return ""
}
