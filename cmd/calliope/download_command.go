package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sydlexius/calliope/internal/coverart"
	"github.com/sydlexius/calliope/internal/download"
	"github.com/sydlexius/calliope/internal/reconcile"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var (
		title       string
		artist      string
		album       string
		year        int
		url         string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download a track from YouTube, tag it, and file it into the library",
		Long: `Download reconciles metadata for the track, fetches the matching YouTube
video's audio with yt-dlp, writes the merged tags and cover art, and moves
the result into the library as Artist/Album/Title. Pass --url to download a
specific video instead of the search's best match.`,
		Example: `  calliope download --title "Bohemian Rhapsody" --artist "Queen"
  calliope download --title "Kashmir" --artist "Led Zeppelin" --interactive
  calliope download --title "Hurt" --artist "Johnny Cash" --url https://www.youtube.com/watch?v=8AHCfZTRGiI`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer env.close()

			// Interrupt cancels yt-dlp and cleans the staging directory.
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			query := reconcile.Query{Title: title, Artist: artist, Album: album, Year: year}
			lr, err := runLookup(runCtx, env, query)
			if err != nil {
				return err
			}

			merged := lr.Merged
			if interactive {
				merged, err = interactiveOverrides(cmd, env, lr)
				if err != nil {
					return err
				}
			}

			videoURL := url
			if videoURL == "" {
				if env.youtube == nil {
					return fmt.Errorf("the youtube provider is disabled; enable it or pass --url")
				}
				video, err := env.youtube.Resolve(runCtx, query)
				if err != nil {
					return fmt.Errorf("finding a video to download: %w", err)
				}
				videoURL = video.WebpageURL
				if videoURL == "" {
					videoURL = "https://www.youtube.com/watch?v=" + video.ID
				}
			}

			var art *coverart.Art
			if env.cfg.Download.EmbedCoverArt {
				if coverURL := merged.Text(reconcile.FieldCoverArtURL); coverURL != "" {
					art, err = coverart.NewFetcher(env.logger).Fetch(runCtx, coverURL)
					if err != nil {
						env.logger.Warn("cover art fetch failed", "url", coverURL, "error", err)
						art = nil
					}
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Downloading %s\n", videoURL)
			dl := download.New(env.cfg.Download, env.cfg.Providers.YouTube.YtDlpPath, nil, env.logger)
			dest, err := dl.Deliver(runCtx, download.Request{VideoURL: videoURL, Merged: merged, Art: art})
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, struct {
					Path     string                    `json:"path"`
					Metadata *reconcile.MergedMetadata `json:"metadata"`
				}{Path: dest, Metadata: merged})
			}
			fmt.Fprintf(out, "Delivered %s (merge confidence %.2f)\n", dest, merged.MergeConfidence)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "track title to search for")
	cmd.Flags().StringVar(&artist, "artist", "", "artist name to search for")
	cmd.Flags().StringVar(&album, "album", "", "album name to narrow the search")
	cmd.Flags().IntVar(&year, "year", 0, "release year to narrow the search")
	cmd.Flags().StringVar(&url, "url", "", "download this video instead of the search's best match")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "review the merge and pin fields before downloading")

	return cmd
}
