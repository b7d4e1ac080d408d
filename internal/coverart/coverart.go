// Package coverart fetches and prepares album art for embedding. Providers
// hand back JPEG, PNG, or WebP at arbitrary sizes; everything is normalized
// to a bounded JPEG so downstream tag embedding never has to care what the
// source looked like.
package coverart

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png" // register PNG decoder
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/sydlexius/calliope/internal/filesystem"
)

const (
	// maxFetchBytes caps the download size. Covers past this point are
	// almost certainly not covers.
	maxFetchBytes = 10 << 20

	defaultMaxDimension = 1200
	defaultJPEGQuality  = 90

	// CoverFileName is the filename used when saving art next to audio.
	CoverFileName = "cover.jpg"
)

// Art is processed cover art, always JPEG.
type Art struct {
	Data     []byte
	MIMEType string
	Width    int
	Height   int
}

// Fetcher downloads and normalizes cover art.
type Fetcher struct {
	client       *http.Client
	logger       *slog.Logger
	maxDimension int
	quality      int
}

// NewFetcher creates a Fetcher with default processing settings.
func NewFetcher(logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client:       &http.Client{Timeout: 30 * time.Second},
		logger:       logger.With(slog.String("component", "coverart")),
		maxDimension: defaultMaxDimension,
		quality:      defaultJPEGQuality,
	}
}

// Fetch downloads the image at rawURL and normalizes it.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Art, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Calliope/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching cover art: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, fmt.Errorf("fetching cover art: HTTP %d", resp.StatusCode)
	}

	// A truncated download fails the decode below, so the silent limit is
	// safe.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("reading cover art: %w", err)
	}

	art, err := f.Prepare(data)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("fetched cover art",
		slog.String("url", rawURL),
		slog.Int("width", art.Width),
		slog.Int("height", art.Height),
		slog.Int("bytes", len(art.Data)))
	return art, nil
}

// Prepare decodes raw image bytes, downscales anything larger than the
// maximum dimension, and re-encodes as JPEG. PNG and WebP input is
// converted; alpha is dropped in the process, which is acceptable for
// album covers.
func (f *Fetcher) Prepare(data []byte) (*Art, error) {
	format, replay, err := DetectFormat(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("detecting format: %w", err)
	}

	img, _, err := image.Decode(replay)
	if err != nil {
		return nil, fmt.Errorf("decoding %s image: %w", format, err)
	}

	bounds := img.Bounds()
	origW := bounds.Dx()
	origH := bounds.Dy()

	newW, newH := fitDimensions(origW, origH, f.maxDimension, f.maxDimension)
	if newW != origW || newH != origH {
		dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	out, err := encodeJPEG(img, f.quality)
	if err != nil {
		return nil, err
	}

	return &Art{
		Data:     out,
		MIMEType: "image/jpeg",
		Width:    newW,
		Height:   newH,
	}, nil
}

// Save writes the art atomically as cover.jpg in dir and returns the full
// path.
func (f *Fetcher) Save(dir string, art *Art) (string, error) {
	target := filepath.Join(dir, CoverFileName)
	if err := filesystem.WriteFileAtomic(target, art.Data, 0o644); err != nil {
		return "", fmt.Errorf("writing cover art: %w", err)
	}
	f.logger.Debug("saved cover art", slog.String("path", target))
	return target, nil
}
