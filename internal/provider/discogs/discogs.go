package discogs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sydlexius/calliope/internal/provider"
	"github.com/sydlexius/calliope/internal/reconcile"
)

const defaultBaseURL = "https://api.discogs.com"

// Adapter implements the provider.Client interface for Discogs.
type Adapter struct {
	client  *http.Client
	limiter *provider.RateLimiterMap
	logger  *slog.Logger
	baseURL string
	token   string
}

// New creates a Discogs adapter with the default base URL. token is the
// personal access token; an empty token leaves the adapter constructible
// but every fetch fails with ErrAuthRequired.
func New(token string, limiter *provider.RateLimiterMap, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(token, limiter, logger, defaultBaseURL)
}

// NewWithBaseURL creates a Discogs adapter with a custom base URL (for testing).
func NewWithBaseURL(token string, limiter *provider.RateLimiterMap, logger *slog.Logger, baseURL string) *Adapter {
	return &Adapter{
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: limiter,
		logger:  logger.With(slog.String("provider", "discogs")),
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// Name returns the provider name.
func (a *Adapter) Name() reconcile.Provider { return reconcile.Discogs }

// RequiresAuth returns whether this provider needs credentials.
func (a *Adapter) RequiresAuth() bool { return true }

// Fetch searches Discogs releases for the query and maps the top hit.
func (a *Adapter) Fetch(ctx context.Context, q reconcile.Query) (*reconcile.RawPayload, error) {
	if a.token == "" {
		return nil, &provider.ErrAuthRequired{Provider: reconcile.Discogs}
	}

	if err := a.limiter.Wait(ctx, reconcile.Discogs); err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: reconcile.Discogs,
			Cause:    fmt.Errorf("rate limiter: %w", err),
		}
	}

	params := url.Values{
		"q":        {buildQuery(q)},
		"type":     {"release"},
		"per_page": {"25"},
	}
	reqURL := a.baseURL + "/database/search?" + params.Encode()

	body, err := a.doRequest(ctx, q, reqURL)
	if err != nil {
		return nil, err
	}

	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}
	if len(resp.Results) == 0 {
		return nil, &provider.ErrNotFound{Provider: reconcile.Discogs, Query: q}
	}

	return mapRelease(&resp.Results[0]), nil
}

// TestConnection verifies the personal access token is valid.
func (a *Adapter) TestConnection(ctx context.Context) error {
	if a.token == "" {
		return &provider.ErrAuthRequired{Provider: reconcile.Discogs}
	}
	reqURL := a.baseURL + "/database/search?q=test&type=release&per_page=1"
	_, err := a.doRequest(ctx, reconcile.Query{}, reqURL)
	return err
}

// buildQuery renders the Discogs search expression: quoted title, scoped
// artist, quoted album when present.
func buildQuery(q reconcile.Query) string {
	parts := []string{fmt.Sprintf("%q", q.Title)}
	if q.Artist != "" {
		parts = append(parts, fmt.Sprintf("artist:%q", q.Artist))
	}
	if q.Album != "" {
		parts = append(parts, fmt.Sprintf("%q", q.Album))
	}
	return strings.Join(parts, " ")
}

func (a *Adapter) doRequest(ctx context.Context, q reconcile.Query, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Discogs token="+a.token)
	req.Header.Set("User-Agent", "Calliope/1.0")
	req.Header.Set("Accept", "application/json")

	a.logger.Debug("requesting", slog.String("url", reqURL))

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: reconcile.Discogs,
			Cause:    err,
		}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return nil, &provider.ErrNotFound{Provider: reconcile.Discogs, Query: q}
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &provider.ErrAuthRequired{Provider: reconcile.Discogs}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &provider.ErrProviderUnavailable{
			Provider: reconcile.Discogs,
			Cause:    fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	return io.ReadAll(resp.Body)
}

// mapRelease converts a Discogs search result to the universal payload.
// Discogs titles releases as "Artist - Title"; both the track title and the
// album inherit the release title because track-level granularity is not
// available from the search endpoint.
func mapRelease(r *Release) *reconcile.RawPayload {
	artist, title := splitTitle(r.Title)

	p := &reconcile.RawPayload{
		Provider:    reconcile.Discogs,
		Title:       title,
		Artist:      artist,
		Album:       title,
		Year:        int(r.Year),
		CoverArtURL: r.CoverImage,
	}
	if len(r.Genre) > 0 {
		p.Genre = r.Genre[0]
	}
	return p
}

// splitTitle breaks the combined "Artist - Title" form on the first
// separator; titles without one are returned whole with no artist.
func splitTitle(s string) (artist, title string) {
	if i := strings.Index(s, " - "); i >= 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+3:])
	}
	return "", s
}
