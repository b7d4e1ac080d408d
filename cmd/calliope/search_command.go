package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sydlexius/calliope/internal/reconcile"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		title       string
		artist      string
		album       string
		year        int
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Look a track up across all providers and merge the results",
		Long: `Search queries every enabled provider for the given track, reconciles the
answers field by field, and prints the merged record with each field's
winning provider, score, and alternates.`,
		Example: `  calliope search --title "Bohemian Rhapsody" --artist "Queen"
  calliope search --title "Hey Jude" --artist "The Beatles" --interactive
  calliope search --title "Kashmir" --artist "Led Zeppelin" --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer env.close()

			query := reconcile.Query{Title: title, Artist: artist, Album: album, Year: year}
			lr, err := runLookup(cmd.Context(), env, query)
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

			if ctx.jsonOutput() {
				return writeJSON(cmd, merged)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderMerged(merged))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "track title to search for")
	cmd.Flags().StringVar(&artist, "artist", "", "artist name to search for")
	cmd.Flags().StringVar(&album, "album", "", "album name to narrow the search")
	cmd.Flags().IntVar(&year, "year", 0, "release year to narrow the search")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "review the merge and pin fields to specific providers")

	return cmd
}
