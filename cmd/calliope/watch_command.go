package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sydlexius/calliope/internal/event"
	"github.com/sydlexius/calliope/internal/reconcile"
	"github.com/sydlexius/calliope/internal/tag"
	"github.com/sydlexius/calliope/internal/watcher"
)

// tagCooldown suppresses re-enrichment of a file we just wrote to, since
// the write itself retriggers the watcher.
const tagCooldown = time.Minute

func newWatchCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch library directories and tag new audio files as they appear",
		Long: `Watch monitors the configured directories for new audio files. Each file
that settles is read, looked up across the providers, and retagged with
the merged metadata. Files without usable title or artist tags are skipped.
Runs until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer env.close()

			watchCfg := env.cfg.Watch
			if len(watchCfg.Paths) == 0 {
				watchCfg.Paths = []string{env.cfg.Download.Directory}
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var mu sync.Mutex
			lastTagged := make(map[string]time.Time)

			bus := event.NewBus(env.logger, 256)
			bus.Subscribe(event.FileFound, func(e event.Event) {
				path, _ := e.Data["path"].(string)
				if path == "" {
					return
				}
				mu.Lock()
				last, seen := lastTagged[path]
				mu.Unlock()
				if seen && time.Since(last) < tagCooldown {
					return
				}
				if enrichFile(runCtx, env, bus, path) {
					mu.Lock()
					lastTagged[path] = time.Now()
					mu.Unlock()
				}
			})
			go bus.Start()
			defer bus.Stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (interrupt to stop)\n", strings.Join(watchCfg.Paths, ", "))
			w := watcher.New(watchCfg, bus, env.logger)
			return w.Start(runCtx)
		},
	}

	return cmd
}

// enrichFile runs the tag pipeline for one settled file: read tags, gather,
// merge, write back. Returns true when tags were written.
func enrichFile(ctx context.Context, env *appEnv, bus *event.Bus, path string) bool {
	logger := env.logger.With("path", path)

	track, err := tag.Read(path)
	if err != nil {
		logger.Warn("skipping unreadable file", "error", err)
		return false
	}
	query := track.Query()
	if query.Title == "" && query.Artist == "" {
		logger.Warn("skipping file without title or artist tags")
		return false
	}

	res, err := env.orch.Gather(ctx, query)
	if err != nil {
		logger.Warn("provider gather failed", "error", err)
		return false
	}
	merged, err := env.merger.Merge(res.Records)
	if err != nil {
		if errors.Is(err, reconcile.ErrNoMetadataAvailable) {
			logger.Warn("no provider had metadata for this track",
				"title", query.Title, "artist", query.Artist)
		} else {
			logger.Warn("merge failed", "error", err)
		}
		return false
	}
	bus.Publish(event.Event{Type: event.MetadataMerged, Data: map[string]any{
		"path":       path,
		"confidence": merged.MergeConfidence,
	}})

	if err := tag.Write(path, merged); err != nil {
		logger.Error("writing tags failed", "error", err)
		return false
	}
	bus.Publish(event.Event{Type: event.TagsWritten, Data: map[string]any{"path": path}})
	logger.Info("tags updated", "confidence", merged.MergeConfidence)
	return true
}
