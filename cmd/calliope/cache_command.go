package main

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/sydlexius/calliope/internal/cache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the provider response cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newCacheStatsCommand(ctx))
	cmd.AddCommand(newCachePruneCommand(ctx))
	cmd.AddCommand(newCachePurgeCommand(ctx))

	return cmd
}

// openCache opens the cache database from config. The caller closes the
// returned handle.
func openCache(ctx *commandContext) (*cache.Store, *sql.DB, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Cache.Enabled {
		return nil, nil, fmt.Errorf("the response cache is disabled in %s", ctx.configPath())
	}
	db, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening cache: %w", err)
	}
	if err := cache.Migrate(db); err != nil {
		db.Close() //nolint:errcheck
		return nil, nil, fmt.Errorf("migrating cache: %w", err)
	}
	ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
	return cache.NewStore(db, ttl), db, nil
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry counts per provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, db, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, stats)
			}

			out := cmd.OutOrStdout()
			if stats.Total == 0 {
				fmt.Fprintln(out, "The cache is empty.")
				return nil
			}
			rows := make([][]string, 0, len(stats.Providers))
			for _, pc := range stats.Providers {
				rows = append(rows, []string{pc.Provider, strconv.Itoa(pc.Count)})
			}
			fmt.Fprintln(out, renderTable([]string{"Provider", "Entries"}, rows, 2))
			fmt.Fprintf(out, "Total: %d entries, oldest from %s\n",
				stats.Total, stats.Oldest.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, db, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			n, err := store.PruneExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries.\n", n)
			return nil
		},
	}
}

func newCachePurgeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove all cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, db, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			n, err := store.Purge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries.\n", n)
			return nil
		},
	}
}
