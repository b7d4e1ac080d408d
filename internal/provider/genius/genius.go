package genius

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

const defaultBaseURL = "https://api.genius.com"

// Adapter implements the provider.Client interface for Genius. Genius is a
// lyrics site first, so hits carry title, artist, year, and art but no
// album or duration.
type Adapter struct {
	client      *http.Client
	limiter     *provider.RateLimiterMap
	logger      *slog.Logger
	baseURL     string
	accessToken string
}

// New creates a Genius adapter with the default base URL.
func New(accessToken string, limiter *provider.RateLimiterMap, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(accessToken, limiter, logger, defaultBaseURL)
}

// NewWithBaseURL creates a Genius adapter with a custom base URL (for testing).
func NewWithBaseURL(accessToken string, limiter *provider.RateLimiterMap, logger *slog.Logger, baseURL string) *Adapter {
	return &Adapter{
		client:      &http.Client{Timeout: 10 * time.Second},
		limiter:     limiter,
		logger:      logger.With(slog.String("provider", "genius")),
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
	}
}

// Name returns the provider name.
func (a *Adapter) Name() reconcile.Provider { return reconcile.Genius }

// RequiresAuth returns whether this provider needs credentials.
func (a *Adapter) RequiresAuth() bool { return true }

// Fetch searches Genius for the query and maps the first song hit.
func (a *Adapter) Fetch(ctx context.Context, q reconcile.Query) (*reconcile.RawPayload, error) {
	if a.accessToken == "" {
		return nil, &provider.ErrAuthRequired{Provider: reconcile.Genius}
	}

	if err := a.limiter.Wait(ctx, reconcile.Genius); err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: reconcile.Genius,
			Cause:    fmt.Errorf("rate limiter: %w", err),
		}
	}

	params := url.Values{
		"q": {q.Title + " " + q.Artist},
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

	for _, hit := range resp.Response.Hits {
		if hit.Type != "" && hit.Type != "song" {
			continue
		}
		return mapSong(&hit.Result), nil
	}
	return nil, &provider.ErrNotFound{Provider: reconcile.Genius, Query: q}
}

// TestConnection verifies the access token is valid.
func (a *Adapter) TestConnection(ctx context.Context) error {
	if a.accessToken == "" {
		return &provider.ErrAuthRequired{Provider: reconcile.Genius}
	}
	reqURL := a.baseURL + "/search?q=test"
	_, err := a.doRequest(ctx, reconcile.Query{}, reqURL)
	return err
}

func (a *Adapter) doRequest(ctx context.Context, q reconcile.Query, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.accessToken)
	req.Header.Set("User-Agent", "Calliope/1.0")
	req.Header.Set("Accept", "application/json")

	a.logger.Debug("requesting", slog.String("url", reqURL))

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: reconcile.Genius,
			Cause:    err,
		}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrNotFound{Provider: reconcile.Genius, Query: q}
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrAuthRequired{Provider: reconcile.Genius}
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrProviderUnavailable{
			Provider:   reconcile.Genius,
			Cause:      fmt.Errorf("HTTP %d", resp.StatusCode),
			RetryAfter: 2 * time.Second,
		}
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrProviderUnavailable{
			Provider: reconcile.Genius,
			Cause:    fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	return io.ReadAll(io.LimitReader(resp.Body, 512*1024))
}

// mapSong converts a Genius song hit to the universal payload.
func mapSong(song *Song) *reconcile.RawPayload {
	return &reconcile.RawPayload{
		Provider:    reconcile.Genius,
		Title:       song.Title,
		Artist:      song.PrimaryArtist.Name,
		Year:        parseDisplayYear(song.ReleaseDateForDisplay),
		CoverArtURL: song.SongArtImageURL,
	}
}

// parseDisplayYear pulls the year out of Genius's human-readable release
// date ("October 31, 1975" or just "1975"): the last token is the year.
func parseDisplayYear(display string) int {
	fields := strings.Fields(display)
	if len(fields) == 0 {
		return 0
	}
	year, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return 0
	}
	return year
}
