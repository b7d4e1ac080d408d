package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sydlexius/calliope/internal/cache"
	"github.com/sydlexius/calliope/internal/reconcile"
)

// GatherResult holds the scored records collected for one query, plus the
// per-provider failures that reduced the set. An empty Records slice is not
// an error here; callers decide whether that is fatal.
type GatherResult struct {
	Records []reconcile.SourceRecord `json:"records"`
	Errors  []string                 `json:"errors,omitempty"`
}

// Orchestrator fans a track query out across all registered providers,
// consulting the response cache before the network, and normalizes whatever
// comes back into scored records ready for merging.
type Orchestrator struct {
	registry *Registry
	store    *cache.Store // nil disables caching
	timeout  time.Duration
	logger   *slog.Logger
}

// NewOrchestrator creates a new Orchestrator. store may be nil to disable
// response caching; timeout bounds each provider call (0 = no bound).
func NewOrchestrator(registry *Registry, store *cache.Store, timeout time.Duration, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		store:    store,
		timeout:  timeout,
		logger:   logger.With(slog.String("component", "orchestrator")),
	}
}

// Gather queries every registered provider concurrently and returns the
// scored records in provider priority order. Individual provider failures
// are collected, not returned: a lookup succeeds with whatever subset of
// providers answered.
func (o *Orchestrator) Gather(ctx context.Context, q reconcile.Query) (*GatherResult, error) {
	queryID := uuid.New().String()
	logger := o.logger.With(slog.String("query_id", queryID))
	logger.Info("gathering metadata",
		slog.String("title", q.Title),
		slog.String("artist", q.Artist))

	result := &GatherResult{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, client := range o.registry.All() {
		g.Go(func() error {
			payload, err := o.fetchOne(gctx, client, q)
			if err != nil {
				logger.Warn("provider fetch failed",
					slog.String("provider", string(client.Name())),
					slog.String("error", err.Error()))
				mu.Lock()
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", client.Name(), err.Error()))
				mu.Unlock()
				return nil
			}

			record, err := reconcile.Normalize(q, *payload)
			if err != nil {
				logger.Warn("dropping invalid record",
					slog.String("provider", string(client.Name())),
					slog.String("error", err.Error()))
				mu.Lock()
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", client.Name(), err.Error()))
				mu.Unlock()
				return nil
			}

			mu.Lock()
			result.Records = append(result.Records, record)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Concurrent appends land in arrival order; re-sort so output order
	// never depends on network timing.
	sort.Slice(result.Records, func(i, j int) bool {
		return result.Records[i].Provider.Priority() > result.Records[j].Provider.Priority()
	})
	sort.Strings(result.Errors)

	logger.Info("gather complete",
		slog.Int("records", len(result.Records)),
		slog.Int("errors", len(result.Errors)))
	return result, nil
}

// fetchOne resolves a single provider's payload, from cache when possible.
func (o *Orchestrator) fetchOne(ctx context.Context, client Client, q reconcile.Query) (*reconcile.RawPayload, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	name := client.Name()
	if o.store != nil {
		if raw, ok, err := o.store.Get(ctx, name, q); err != nil {
			o.logger.Warn("cache read failed",
				slog.String("provider", string(name)),
				slog.String("error", err.Error()))
		} else if ok {
			var payload reconcile.RawPayload
			if err := json.Unmarshal(raw, &payload); err == nil {
				o.logger.Debug("cache hit", slog.String("provider", string(name)))
				return &payload, nil
			}
			// A corrupt entry falls through to a fresh fetch that overwrites it.
		}
	}

	payload, err := client.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	if o.store != nil {
		raw, err := json.Marshal(payload)
		if err == nil {
			if err := o.store.Put(ctx, name, q, raw); err != nil {
				o.logger.Warn("cache write failed",
					slog.String("provider", string(name)),
					slog.String("error", err.Error()))
			}
		}
	}
	return payload, nil
}
