package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/sydlexius/calliope/internal/provider"
	"github.com/sydlexius/calliope/internal/reconcile"
)

const (
	defaultBaseURL  = "https://api.spotify.com/v1"
	defaultTokenURL = "https://accounts.spotify.com/api/token"
)

// Adapter implements the provider.Client interface for Spotify. Access uses
// the client-credentials flow; the OAuth2 transport refreshes the bearer
// token transparently.
type Adapter struct {
	client   *http.Client
	limiter  *provider.RateLimiterMap
	logger   *slog.Logger
	baseURL  string
	hasCreds bool
}

// New creates a Spotify adapter with the default endpoints.
func New(clientID, clientSecret string, limiter *provider.RateLimiterMap, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(clientID, clientSecret, limiter, logger, defaultBaseURL, defaultTokenURL)
}

// NewWithBaseURL creates a Spotify adapter with custom endpoints (for testing).
func NewWithBaseURL(clientID, clientSecret string, limiter *provider.RateLimiterMap, logger *slog.Logger, baseURL, tokenURL string) *Adapter {
	a := &Adapter{
		limiter: limiter,
		logger:  logger.With(slog.String("provider", "spotify")),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	if clientID != "" && clientSecret != "" {
		conf := &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
		}
		a.client = conf.Client(context.Background())
		a.client.Timeout = 10 * time.Second
		a.hasCreds = true
	} else {
		a.client = &http.Client{Timeout: 10 * time.Second}
	}
	return a
}

// Name returns the provider name.
func (a *Adapter) Name() reconcile.Provider { return reconcile.Spotify }

// RequiresAuth returns whether this provider needs credentials.
func (a *Adapter) RequiresAuth() bool { return true }

// Fetch searches Spotify tracks for the query and maps the top hit.
func (a *Adapter) Fetch(ctx context.Context, q reconcile.Query) (*reconcile.RawPayload, error) {
	if !a.hasCreds {
		return nil, &provider.ErrAuthRequired{Provider: reconcile.Spotify}
	}

	if err := a.limiter.Wait(ctx, reconcile.Spotify); err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: reconcile.Spotify,
			Cause:    fmt.Errorf("rate limiter: %w", err),
		}
	}

	params := url.Values{
		"q":     {buildQuery(q)},
		"type":  {"track"},
		"limit": {"20"},
	}
	reqURL := a.baseURL + "/search?" + params.Encode()

	body, err := a.doRequest(ctx, q, reqURL)
	if err != nil {
		return nil, err
	}

	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}
	if len(resp.Tracks.Items) == 0 {
		return nil, &provider.ErrNotFound{Provider: reconcile.Spotify, Query: q}
	}

	return mapTrack(&resp.Tracks.Items[0]), nil
}

// TestConnection verifies the client credentials by requesting a token.
func (a *Adapter) TestConnection(ctx context.Context) error {
	if !a.hasCreds {
		return &provider.ErrAuthRequired{Provider: reconcile.Spotify}
	}
	reqURL := a.baseURL + "/search?" + url.Values{
		"q":     {"test"},
		"type":  {"track"},
		"limit": {"1"},
	}.Encode()
	_, err := a.doRequest(ctx, reconcile.Query{}, reqURL)
	return err
}

// buildQuery renders Spotify's fielded search expression.
func buildQuery(q reconcile.Query) string {
	parts := []string{fmt.Sprintf("track:%q", q.Title)}
	if q.Artist != "" {
		parts = append(parts, fmt.Sprintf("artist:%q", q.Artist))
	}
	if q.Album != "" {
		parts = append(parts, fmt.Sprintf("album:%q", q.Album))
	}
	return strings.Join(parts, " ")
}

func (a *Adapter) doRequest(ctx context.Context, q reconcile.Query, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	a.logger.Debug("requesting", slog.String("url", reqURL))

	resp, err := a.client.Do(req)
	if err != nil {
		// A rejected token exchange surfaces through the transport.
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, &provider.ErrAuthRequired{Provider: reconcile.Spotify}
		}
		return nil, &provider.ErrProviderUnavailable{
			Provider: reconcile.Spotify,
			Cause:    err,
		}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrNotFound{Provider: reconcile.Spotify, Query: q}
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrAuthRequired{Provider: reconcile.Spotify}
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrProviderUnavailable{
			Provider:   reconcile.Spotify,
			Cause:      fmt.Errorf("HTTP %d", resp.StatusCode),
			RetryAfter: retryAfter(resp),
		}
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrProviderUnavailable{
			Provider: reconcile.Spotify,
			Cause:    fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	return io.ReadAll(io.LimitReader(resp.Body, 512*1024))
}

// retryAfter reads Spotify's Retry-After header (whole seconds), falling
// back to a short default when absent.
func retryAfter(resp *http.Response) time.Duration {
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 2 * time.Second
}

// mapTrack converts a Spotify track to the universal payload. Search-level
// album objects carry no genres, so genre stays absent.
func mapTrack(track *Track) *reconcile.RawPayload {
	p := &reconcile.RawPayload{
		Provider: reconcile.Spotify,
		Title:    track.Name,
		Album:    track.Album.Name,
		Year:     parseYear(track.Album.ReleaseDate),
	}
	if len(track.Artists) > 0 {
		p.Artist = track.Artists[0].Name
	}
	if track.DurationMS > 0 {
		p.Duration = track.DurationMS / 1000
	}
	if len(track.Album.Genres) > 0 {
		p.Genre = track.Album.Genres[0]
	}
	p.CoverArtURL = largestImage(track.Album.Images)
	return p
}

// largestImage picks the widest artwork URL.
func largestImage(images []Image) string {
	best := ""
	bestWidth := -1
	for _, img := range images {
		if img.URL != "" && img.Width > bestWidth {
			best = img.URL
			bestWidth = img.Width
		}
	}
	return best
}

// parseYear extracts the year from a release date, which may be YYYY,
// YYYY-MM, or YYYY-MM-DD depending on the album's date precision.
func parseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
