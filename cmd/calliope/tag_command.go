package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sydlexius/calliope/internal/coverart"
	"github.com/sydlexius/calliope/internal/reconcile"
	"github.com/sydlexius/calliope/internal/tag"
)

func newTagCommand(ctx *commandContext) *cobra.Command {
	var (
		title  string
		artist string
		album  string
		year   int
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "tag FILE",
		Short: "Reconcile metadata for an audio file and write it to its tags",
		Long: `Tag reads the file's existing tags, queries the providers with them (or
with the --title/--artist overrides), and writes the merged result back.
Fields the merge did not resolve keep their current values.`,
		Example: `  calliope tag ~/music/incoming/track.mp3
  calliope tag --dry-run track.flac
  calliope tag --title "Bohemian Rhapsody" --artist "Queen" rip.m4a`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer env.close()

			path := args[0]
			track, err := tag.Read(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}

			query := track.Query()
			if title != "" {
				query.Title = title
			}
			if artist != "" {
				query.Artist = artist
			}
			if album != "" {
				query.Album = album
			}
			if year != 0 {
				query.Year = year
			}
			if query.Title == "" && query.Artist == "" {
				return fmt.Errorf("%s has no usable title or artist tags; pass --title and --artist", path)
			}

			lr, err := runLookup(cmd.Context(), env, query)
			if err != nil {
				return err
			}
			merged := lr.Merged

			out := cmd.OutOrStdout()
			changes := tagChanges(track, merged)
			if dryRun {
				if ctx.jsonOutput() {
					return writeJSON(cmd, merged)
				}
				if len(changes) == 0 {
					fmt.Fprintln(out, "Tags already match the merged metadata.")
					return nil
				}
				fmt.Fprintln(out, renderTable([]string{"Field", "Current", "New"}, changes))
				fmt.Fprintln(out, "Run again without --dry-run to apply.")
				return nil
			}

			if err := tag.Write(path, merged); err != nil {
				return err
			}
			embedCoverArt(cmd, env, path, merged)

			if ctx.jsonOutput() {
				return writeJSON(cmd, merged)
			}
			if len(changes) > 0 {
				fmt.Fprintln(out, renderTable([]string{"Field", "Current", "New"}, changes))
			}
			fmt.Fprintf(out, "Tagged %s (merge confidence %.2f)\n", path, merged.MergeConfidence)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "title to search with instead of the existing tag")
	cmd.Flags().StringVar(&artist, "artist", "", "artist to search with instead of the existing tag")
	cmd.Flags().StringVar(&album, "album", "", "album to search with instead of the existing tag")
	cmd.Flags().IntVar(&year, "year", 0, "release year to search with instead of the existing tag")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would change without writing")

	return cmd
}

// tagChanges lists the writable fields whose merged value differs from the
// file's current tags.
func tagChanges(track *tag.Track, m *reconcile.MergedMetadata) [][]string {
	var rows [][]string
	add := func(field, current, next string) {
		if next == "" || next == current {
			return
		}
		if current == "" {
			current = "-"
		}
		rows = append(rows, []string{field, current, next})
	}
	add("title", track.Title, m.Text(reconcile.FieldTitle))
	add("artist", track.Artist, m.Text(reconcile.FieldArtist))
	add("album", track.Album, m.Text(reconcile.FieldAlbum))
	add("genre", track.Genre, m.Text(reconcile.FieldGenre))
	if y := m.Num(reconcile.FieldYear); y > 0 && y != track.Year {
		current := "-"
		if track.Year > 0 {
			current = strconv.Itoa(track.Year)
		}
		rows = append(rows, []string{"year", current, strconv.Itoa(y)})
	}
	return rows
}

// embedCoverArt fetches and embeds the merged cover art. Failures are
// logged, not fatal; the tags are already written.
func embedCoverArt(cmd *cobra.Command, env *appEnv, path string, m *reconcile.MergedMetadata) {
	if !env.cfg.Download.EmbedCoverArt {
		return
	}
	coverURL := m.Text(reconcile.FieldCoverArtURL)
	if coverURL == "" {
		return
	}
	art, err := coverart.NewFetcher(env.logger).Fetch(cmd.Context(), coverURL)
	if err != nil {
		env.logger.Warn("cover art fetch failed", "url", coverURL, "error", err)
		return
	}
	if err := tag.WriteCoverArt(path, art.Data); err != nil {
		env.logger.Warn("cover art embed failed", "path", path, "error", err)
	}
}
