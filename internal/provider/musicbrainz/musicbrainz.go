package musicbrainz

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
	"github.com/sydlexius/calliope/internal/version"
)

const (
	defaultBaseURL     = "https://musicbrainz.org/ws/2"
	defaultCoverArtURL = "https://coverartarchive.org"
)

// Adapter implements the provider.Client interface for MusicBrainz.
type Adapter struct {
	client      *http.Client
	limiter     *provider.RateLimiterMap
	logger      *slog.Logger
	baseURL     string
	coverArtURL string
	userAgent   string
}

// New creates a MusicBrainz adapter with the default endpoints. userAgent
// may be empty; MusicBrainz policy wants a contactable agent string, so the
// build default is used when the config leaves it blank.
func New(userAgent string, limiter *provider.RateLimiterMap, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(userAgent, limiter, logger, defaultBaseURL, defaultCoverArtURL)
}

// NewWithBaseURL creates a MusicBrainz adapter with custom endpoints (for testing).
func NewWithBaseURL(userAgent string, limiter *provider.RateLimiterMap, logger *slog.Logger, baseURL, coverArtURL string) *Adapter {
	if userAgent == "" {
		userAgent = fmt.Sprintf("Calliope/%s (https://github.com/sydlexius/calliope)", version.Version)
	}
	return &Adapter{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter:     limiter,
		logger:      logger.With(slog.String("provider", "musicbrainz")),
		baseURL:     strings.TrimRight(baseURL, "/"),
		coverArtURL: strings.TrimRight(coverArtURL, "/"),
		userAgent:   userAgent,
	}
}

// Name returns the provider name.
func (a *Adapter) Name() reconcile.Provider { return reconcile.MusicBrainz }

// RequiresAuth returns whether this provider needs credentials.
func (a *Adapter) RequiresAuth() bool { return false }

// Fetch searches MusicBrainz recordings for the query and maps the top hit.
func (a *Adapter) Fetch(ctx context.Context, q reconcile.Query) (*reconcile.RawPayload, error) {
	params := url.Values{
		"query": {buildQuery(q)},
		"fmt":   {"json"},
		"limit": {"5"},
	}
	reqURL := a.baseURL + "/recording?" + params.Encode()

	body, err := a.doRequest(ctx, q, reqURL)
	if err != nil {
		return nil, err
	}

	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}
	if len(resp.Recordings) == 0 {
		return nil, &provider.ErrNotFound{Provider: reconcile.MusicBrainz, Query: q}
	}

	// MusicBrainz orders hits by its own relevance score; the top hit is
	// the match and its score feeds straight into confidence.
	return a.mapRecording(&resp.Recordings[0]), nil
}

// TestConnection verifies connectivity to the MusicBrainz API.
func (a *Adapter) TestConnection(ctx context.Context) error {
	params := url.Values{
		"query": {"test"},
		"fmt":   {"json"},
		"limit": {"1"},
	}
	reqURL := a.baseURL + "/recording?" + params.Encode()
	_, err := a.doRequest(ctx, reconcile.Query{}, reqURL)
	return err
}

// buildQuery renders the Lucene search expression for a track lookup.
func buildQuery(q reconcile.Query) string {
	parts := []string{
		"title:" + quoteTerm(q.Title),
		"artist:" + quoteTerm(q.Artist),
	}
	if q.Album != "" {
		parts = append(parts, "release:"+quoteTerm(q.Album))
	}
	if q.Year != 0 {
		parts = append(parts, fmt.Sprintf("date:%d", q.Year))
	}
	return strings.Join(parts, " AND ")
}

func quoteTerm(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// doRequest executes an HTTP GET with rate limiting and standard headers.
func (a *Adapter) doRequest(ctx context.Context, q reconcile.Query, reqURL string) ([]byte, error) {
	if err := a.limiter.Wait(ctx, reconcile.MusicBrainz); err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: reconcile.MusicBrainz,
			Cause:    fmt.Errorf("rate limiter: %w", err),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "application/json")

	a.logger.Debug("requesting", slog.String("url", reqURL))

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: reconcile.MusicBrainz,
			Cause:    err,
		}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrNotFound{Provider: reconcile.MusicBrainz, Query: q}
	}

	if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrProviderUnavailable{
			Provider:   reconcile.MusicBrainz,
			Cause:      fmt.Errorf("HTTP %d", resp.StatusCode),
			RetryAfter: 2 * time.Second,
		}
	}

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrProviderUnavailable{
			Provider: reconcile.MusicBrainz,
			Cause:    fmt.Errorf("unexpected HTTP %d", resp.StatusCode),
		}
	}

	return io.ReadAll(io.LimitReader(resp.Body, 512*1024))
}

// mapRecording converts a MusicBrainz recording to the universal payload.
func (a *Adapter) mapRecording(rec *MBRecording) *reconcile.RawPayload {
	p := &reconcile.RawPayload{
		Provider:      reconcile.MusicBrainz,
		Title:         rec.Title,
		ReportedScore: rec.Score,
	}

	if len(rec.ArtistCredit) > 0 {
		p.Artist = rec.ArtistCredit[0].Name
		if p.Artist == "" && rec.ArtistCredit[0].Artist != nil {
			p.Artist = rec.ArtistCredit[0].Artist.Name
		}
	}

	if rec.Length > 0 {
		p.Duration = rec.Length / 1000
	}

	// The first release carries the album context. The Cover Art Archive
	// serves art by release MBID, not recording MBID.
	if len(rec.Releases) > 0 {
		rel := rec.Releases[0]
		p.Album = rel.Title
		p.Year = parseYear(rel.Date)
		if rel.ID != "" {
			p.CoverArtURL = a.coverArtURL + "/release/" + rel.ID + "/front"
		}
	}

	return p
}

// parseYear extracts the year from a MusicBrainz date, which may be YYYY,
// YYYY-MM, or YYYY-MM-DD.
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
