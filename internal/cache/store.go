package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sydlexius/calliope/internal/reconcile"
)

// Store provides TTL-bounded access to cached provider responses.
type Store struct {
	db  *sql.DB
	ttl time.Duration
}

// NewStore creates a store with the given entry lifetime.
func NewStore(db *sql.DB, ttl time.Duration) *Store {
	return &Store{db: db, ttl: ttl}
}

// QueryKey builds the lookup key for a query. Normalization keeps
// "Beyoncé" and "beyonce" on the same cache row.
func QueryKey(q reconcile.Query) string {
	return strings.Join([]string{
		reconcile.NormalizeText(q.Artist),
		reconcile.NormalizeText(q.Title),
		reconcile.NormalizeText(q.Album),
	}, "|")
}

// Get returns the cached payload for a provider and query. Entries older
// than the TTL are treated as misses; PruneExpired removes them for good.
func (s *Store) Get(ctx context.Context, provider reconcile.Provider, q reconcile.Query) ([]byte, bool, error) {
	var payload, fetchedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload, fetched_at FROM provider_responses
		WHERE provider = ? AND query_key = ?
	`, string(provider), QueryKey(q)).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, fetchedAt)
	if err != nil {
		return nil, false, fmt.Errorf("parsing cache timestamp: %w", err)
	}
	if time.Since(ts) > s.ttl {
		return nil, false, nil
	}
	return []byte(payload), true, nil
}

// Put stores a payload for a provider and query, replacing any prior entry.
func (s *Store) Put(ctx context.Context, provider reconcile.Provider, q reconcile.Query, payload []byte) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO provider_responses (id, provider, query_key, payload, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (provider, query_key)
		DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at
	`, uuid.New().String(), string(provider), QueryKey(q), string(payload), now)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// PruneExpired deletes entries older than the TTL and reports how many
// rows went away.
func (s *Store) PruneExpired(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.ttl).Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM provider_responses WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// Purge deletes every cached response.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM provider_responses`)
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// ProviderCount is one provider's share of the cache.
type ProviderCount struct {
	Provider string
	Count    int
}

// Stats summarizes cache contents.
type Stats struct {
	Total     int
	Providers []ProviderCount
	Oldest    time.Time
}

// Stats reports entry counts per provider and the oldest fetch time.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	rows, err := s.db.QueryContext(ctx, `
		SELECT provider, COUNT(*) AS n FROM provider_responses
		GROUP BY provider ORDER BY n DESC, provider
	`)
	if err != nil {
		return nil, fmt.Errorf("counting cache entries: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var pc ProviderCount
		if err := rows.Scan(&pc.Provider, &pc.Count); err != nil {
			return nil, fmt.Errorf("scanning cache counts: %w", err)
		}
		stats.Providers = append(stats.Providers, pc)
		stats.Total += pc.Count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var oldest sql.NullString
	if err := s.db.QueryRowContext(ctx,
		`SELECT MIN(fetched_at) FROM provider_responses`).Scan(&oldest); err != nil {
		return nil, fmt.Errorf("reading oldest cache entry: %w", err)
	}
	if oldest.Valid {
		ts, err := time.Parse(time.RFC3339, oldest.String)
		if err != nil {
			return nil, fmt.Errorf("parsing oldest cache timestamp: %w", err)
		}
		stats.Oldest = ts
	}

	return stats, nil
}
