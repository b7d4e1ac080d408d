// Package youtube resolves track metadata by searching YouTube through a
// local yt-dlp binary. It needs no API key, but the results are the least
// structured of any provider: the video title mixes artist, track, and
// channel noise, so the payload carries the raw title for similarity
// scoring downstream.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sydlexius/calliope/internal/provider"
	"github.com/sydlexius/calliope/internal/reconcile"
)

const (
	defaultBinPath       = "yt-dlp"
	defaultSearchResults = 5
	maxSearchResults     = 25
)

// Adapter shells out to yt-dlp for YouTube searches.
type Adapter struct {
	binPath       string
	searchResults int
	limiter       *provider.RateLimiterMap
	logger        *slog.Logger

	// run is swapped in tests so no real binary is needed.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// New creates a YouTube adapter. binPath may be empty to use yt-dlp from
// PATH; searchResults outside 1..25 falls back to the default of 5.
func New(binPath string, searchResults int, limiter *provider.RateLimiterMap, logger *slog.Logger) *Adapter {
	if binPath == "" {
		binPath = defaultBinPath
	}
	if searchResults < 1 || searchResults > maxSearchResults {
		searchResults = defaultSearchResults
	}
	return &Adapter{
		binPath:       binPath,
		searchResults: searchResults,
		limiter:       limiter,
		logger:        logger.With(slog.String("provider", "youtube")),
		run:           runCommand,
	}
}

// Name returns the provider identifier.
func (a *Adapter) Name() reconcile.Provider {
	return reconcile.YouTube
}

// RequiresAuth reports whether the provider needs credentials. yt-dlp
// searches anonymously.
func (a *Adapter) RequiresAuth() bool {
	return false
}

// Fetch searches YouTube for the queried track and maps the best-matching
// hit to a raw payload.
func (a *Adapter) Fetch(ctx context.Context, q reconcile.Query) (*reconcile.RawPayload, error) {
	video, err := a.Resolve(ctx, q)
	if err != nil {
		return nil, err
	}
	return mapVideo(video), nil
}

// Resolve returns the best-matching video for the query. Callers that need
// the video itself, like the downloader wanting its URL, use this instead
// of Fetch.
func (a *Adapter) Resolve(ctx context.Context, q reconcile.Query) (*Video, error) {
	if err := a.limiter.Wait(ctx, "youtube"); err != nil {
		return nil, err
	}

	search := fmt.Sprintf("ytsearch%d:%s %s", a.searchResults, q.Artist, q.Title)
	a.logger.Debug("searching", slog.String("search", search))

	out, err := a.run(ctx, a.binPath, "--dump-json", "--no-download", "--no-warnings", search)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, exec.ErrNotFound) {
			return nil, &provider.ErrProviderUnavailable{
				Provider: "youtube",
				Cause:    fmt.Errorf("yt-dlp not installed: %w", err),
			}
		}
		return nil, &provider.ErrProviderUnavailable{Provider: "youtube", Cause: err}
	}

	videos, err := parseDumpJSON(out)
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{Provider: "youtube", Cause: err}
	}
	if len(videos) == 0 {
		return nil, &provider.ErrNotFound{Provider: "youtube", Query: q}
	}

	return pickBest(q, videos), nil
}

// TestConnection verifies the yt-dlp binary is runnable.
func (a *Adapter) TestConnection(ctx context.Context) error {
	out, err := a.run(ctx, a.binPath, "--version")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return &provider.ErrProviderUnavailable{
				Provider: "youtube",
				Cause:    fmt.Errorf("yt-dlp not installed: %w", err),
			}
		}
		return &provider.ErrProviderUnavailable{Provider: "youtube", Cause: err}
	}
	a.logger.Debug("yt-dlp available", slog.String("version", strings.TrimSpace(string(out))))
	return nil
}

// runCommand executes the binary and returns its stdout. Stderr's first
// line is folded into the error since yt-dlp reports failures there.
func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := firstLine(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// parseDumpJSON decodes the newline-delimited JSON documents that
// --dump-json emits, one per search hit.
func parseDumpJSON(out []byte) ([]Video, error) {
	dec := json.NewDecoder(bytes.NewReader(out))
	var videos []Video
	for {
		var v Video
		if err := dec.Decode(&v); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decoding yt-dlp output: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, nil
}

// pickBest returns the hit whose title best matches the query. yt-dlp
// returns hits in YouTube's own ranking order, so ties keep the earlier hit.
func pickBest(q reconcile.Query, videos []Video) *Video {
	want := q.Artist + " " + q.Title
	best := &videos[0]
	bestScore := reconcile.Similarity(want, videos[0].Title)
	for i := 1; i < len(videos); i++ {
		if s := reconcile.Similarity(want, videos[i].Title); s > bestScore {
			best = &videos[i]
			bestScore = s
		}
	}
	return best
}

// mapVideo converts a yt-dlp search hit into a raw payload. The video
// title is kept verbatim in both Title and VideoTitle: the raw form is
// what similarity scoring runs against.
func mapVideo(v *Video) *reconcile.RawPayload {
	p := &reconcile.RawPayload{
		Provider:    reconcile.YouTube,
		Title:       v.Title,
		VideoTitle:  v.Title,
		Artist:      v.Channel,
		Album:       v.Album,
		Year:        parseUploadYear(v.UploadDate),
		CoverArtURL: v.Thumbnail,
	}
	if p.Artist == "" {
		p.Artist = v.Uploader
	}
	if v.Duration > 0 {
		p.Duration = int(v.Duration)
	}
	return p
}

// parseUploadYear extracts the year from yt-dlp's YYYYMMDD upload date.
func parseUploadYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
