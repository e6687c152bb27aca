package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"designkit/internal/types"
	"designkit/internal/usage"
)

// CounterStore is the PostgreSQL implementation of usage.CounterStore.
//
// Each counter is one row in usage_counters, keyed by the composite
// <feature>:<user>:<day> string. The day column duplicates the date embedded
// in the key so compaction can prune by date without string parsing.
//
// Schema:
//
//	CREATE TABLE usage_counters (
//	    key   TEXT PRIMARY KEY,
//	    day   DATE NOT NULL,
//	    count INTEGER NOT NULL DEFAULT 0
//	);
//	CREATE INDEX idx_usage_counters_day ON usage_counters (day);
type CounterStore struct {
	db DBTX
}

// NewCounterStore creates a CounterStore backed by the given database
// connection (pool or transaction).
func NewCounterStore(db DBTX) *CounterStore {
	return &CounterStore{db: db}
}

var _ usage.CounterStore = (*CounterStore)(nil)

// Read returns the count for the key, or 0 if no row exists.
func (s *CounterStore) Read(ctx context.Context, key string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT count FROM usage_counters WHERE key = $1`,
		key,
	).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to read usage counter", err)
	}
	return count, nil
}

// Increment atomically upserts the row and returns the new count. The upsert
// makes concurrent increments from multiple processes additive rather than
// last-write-wins.
func (s *CounterStore) Increment(ctx context.Context, key string) (int, error) {
	day, ok := usage.DayFromKey(key)
	if !ok {
		return 0, types.NewAppError(types.ErrCodeInternalStorage, "counter key has no embedded date: "+key, nil)
	}

	var count int
	err := s.db.QueryRow(ctx,
		`INSERT INTO usage_counters (key, day, count)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (key)
		 DO UPDATE SET count = usage_counters.count + 1
		 RETURNING count`,
		key, day,
	).Scan(&count)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to increment usage counter", err)
	}
	return count, nil
}

// Delete removes the given keys. Missing keys are not an error.
func (s *CounterStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx,
		`DELETE FROM usage_counters WHERE key = ANY($1)`,
		keys,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to delete usage counters", err)
	}
	return nil
}

// PruneBefore removes rows whose day is strictly before the cutoff and
// returns the number removed.
func (s *CounterStore) PruneBefore(ctx context.Context, day string) (int, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM usage_counters WHERE day < $1`,
		day,
	)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to prune usage counters", err)
	}
	return int(tag.RowsAffected()), nil
}
