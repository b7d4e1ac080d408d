// Package download drives yt-dlp to fetch audio for reconciled tracks,
// tags the result with the merged selections, and files it into the
// library tree. Downloads stage under a per-job directory so a failed or
// cancelled job never leaves partial files in the library.
package download

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sydlexius/calliope/internal/config"
	"github.com/sydlexius/calliope/internal/coverart"
	"github.com/sydlexius/calliope/internal/event"
	"github.com/sydlexius/calliope/internal/filesystem"
	"github.com/sydlexius/calliope/internal/reconcile"
	"github.com/sydlexius/calliope/internal/tag"
)

// Request describes one track to download and deliver.
type Request struct {
	VideoURL string
	Merged   *reconcile.MergedMetadata
	Art      *coverart.Art
}

// Result is the outcome of one delivery job.
type Result struct {
	JobID string
	Path  string
	Err   error
}

// Downloader runs yt-dlp and delivers finished audio into the library.
type Downloader struct {
	cfg       config.DownloadConfig
	ytdlpPath string
	bus       *event.Bus
	logger    *slog.Logger

	// run is swapped in tests so no real binary is needed.
	run func(ctx context.Context, name string, args ...string) error
}

// New creates a Downloader. bus may be nil when nothing observes progress.
func New(cfg config.DownloadConfig, ytdlpPath string, bus *event.Bus, logger *slog.Logger) *Downloader {
	if ytdlpPath == "" {
		ytdlpPath = "yt-dlp"
	}
	return &Downloader{
		cfg:       cfg,
		ytdlpPath: ytdlpPath,
		bus:       bus,
		logger:    logger.With(slog.String("component", "download")),
		run:       runCommand,
	}
}

// Audio downloads the audio stream of videoURL into a fresh staging
// directory and returns the path of the produced file.
func (d *Downloader) Audio(ctx context.Context, videoURL string) (string, error) {
	jobDir := filepath.Join(d.cfg.StagingDir, uuid.New().String())
	if err := os.MkdirAll(jobDir, 0o755); err != nil { //nolint:gosec // G301: 0755 is appropriate for application data directories
		return "", fmt.Errorf("creating staging directory: %w", err)
	}

	args := []string{
		"--extract-audio",
		"--audio-format", d.cfg.AudioFormat,
		"-f", "bestaudio/best",
		"--no-playlist",
		"--no-warnings",
		"--retries", "10",
		"--fragment-retries", "10",
		"-o", filepath.Join(jobDir, "%(title)s.%(ext)s"),
		videoURL,
	}
	if err := d.run(ctx, d.ytdlpPath, args...); err != nil {
		os.RemoveAll(jobDir) //nolint:errcheck
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("yt-dlp download failed: %w", err)
	}

	path, err := stagedFile(jobDir)
	if err != nil {
		os.RemoveAll(jobDir) //nolint:errcheck
		return "", err
	}
	return path, nil
}

// Deliver downloads, tags, embeds cover art, and moves the finished file
// into the library. Returns the final library path.
func (d *Downloader) Deliver(ctx context.Context, req Request) (string, error) {
	staged, err := d.Audio(ctx, req.VideoURL)
	if err != nil {
		return "", err
	}
	// The staging subdir is removed no matter how delivery ends; a
	// successful move leaves it empty anyway.
	defer os.RemoveAll(filepath.Dir(staged)) //nolint:errcheck

	if req.Merged != nil {
		if err := tag.Write(staged, req.Merged); err != nil {
			return "", err
		}
	}
	if d.cfg.EmbedCoverArt && req.Art != nil {
		if err := tag.WriteCoverArt(staged, req.Art.Data); err != nil {
			return "", err
		}
	}

	dest := d.libraryPath(req.Merged, staged)
	if err := filesystem.MoveFile(staged, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// DeliverAll runs deliveries through a bounded worker pool. One failed job
// never aborts the others; each Result carries its own error.
func (d *Downloader) DeliverAll(ctx context.Context, reqs []Request) []Result {
	results := make([]Result, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.parallel())

	for i, req := range reqs {
		jobID := uuid.New().String()
		results[i].JobID = jobID
		d.publish(event.DownloadQueued, jobID, "")

		g.Go(func() error {
			logger := d.logger.With(slog.String("job_id", jobID), slog.String("url", req.VideoURL))
			logger.Info("download started")

			path, err := d.Deliver(ctx, req)
			if err != nil {
				logger.Warn("download failed", slog.String("error", err.Error()))
				results[i].Err = err
				d.publish(event.DownloadFailed, jobID, "")
				return nil
			}

			logger.Info("download delivered", slog.String("path", path))
			results[i].Path = path
			d.publish(event.DownloadCompleted, jobID, path)
			return nil
		})
	}

	// Workers always return nil; failures live in results.
	_ = g.Wait()
	return results
}

func (d *Downloader) parallel() int {
	if d.cfg.Parallel < 1 {
		return 1
	}
	return d.cfg.Parallel
}

func (d *Downloader) publish(t event.Type, jobID, path string) {
	if d.bus == nil {
		return
	}
	data := map[string]any{"job_id": jobID}
	if path != "" {
		data["path"] = path
	}
	d.bus.Publish(event.Event{Type: t, Data: data})
}

// libraryPath builds library/Artist/Album/Title.ext from the merged
// selections, sanitized per component. Unresolved components fall back to
// Unknown buckets; a missing title keeps the staged filename.
func (d *Downloader) libraryPath(m *reconcile.MergedMetadata, staged string) string {
	artist, album, title := "", "", ""
	if m != nil {
		artist = m.Text(reconcile.FieldArtist)
		album = m.Text(reconcile.FieldAlbum)
		title = m.Text(reconcile.FieldTitle)
	}
	if artist == "" {
		artist = "Unknown Artist"
	}
	if album == "" {
		album = "Unknown Album"
	}

	ext := filepath.Ext(staged)
	name := filepath.Base(staged)
	if title != "" {
		name = filesystem.Sanitize(title) + ext
	}
	return filepath.Join(d.cfg.Directory, filesystem.Sanitize(artist), filesystem.Sanitize(album), name)
}

// stagedFile returns the single audio file yt-dlp left in the job
// directory.
func stagedFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading staging directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		// In-flight fragments never survive a successful run; skip them in
		// case of leftovers.
		if strings.HasSuffix(e.Name(), ".part") || strings.HasSuffix(e.Name(), ".ytdl") {
			continue
		}
		return filepath.Join(dir, e.Name()), nil
	}
	return "", fmt.Errorf("no file produced in %s", dir)
}

// runCommand executes the binary, folding the first stderr line into the
// error since yt-dlp reports failures there.
func runCommand(ctx context.Context, name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if i := strings.IndexByte(msg, '\n'); i >= 0 {
			msg = msg[:i]
		}
		if msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}
