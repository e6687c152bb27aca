// Package usage implements the per-feature, per-user, per-day counter store.
//
// Counters are partitioned by embedding the calendar date in the storage key:
// a new day implicitly starts every counter at zero, and no scheduled job ever
// resets a live counter. Stale keys from past days are ignored on read and
// reclaimed by the maintenance compactor.
package usage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"designkit/internal/types"
)

// dayLayout renders dates at day resolution for counter keys.
const dayLayout = "2006-01-02"

// CounterStore is the backend key-value contract. Implementations: the
// in-memory store (local mode and tests), the Postgres store in internal/db,
// and the Redis store.
type CounterStore interface {
	// Read returns the count for the key, or 0 if no entry exists.
	Read(ctx context.Context, key string) (int, error)

	// Increment atomically adds one to the key's count, creating the entry
	// at 1 if absent, and returns the new count.
	Increment(ctx context.Context, key string) (int, error)

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// PruneBefore removes entries whose embedded day is strictly before the
	// given day (dayLayout format) and returns how many were removed.
	// Backends with native expiry may implement this as a no-op.
	PruneBefore(ctx context.Context, day string) (int, error)
}

// Key builds the composite counter key <kind>:<userOrAnonymous>:<YYYY-MM-DD>.
// An empty userID is replaced with the anonymous sentinel.
func Key(kind types.FeatureKind, userID, day string) string {
	if userID == "" {
		userID = types.AnonymousUserID
	}
	return fmt.Sprintf("%s:%s:%s", kind, userID, day)
}

// DayFromKey extracts the embedded calendar date from a counter key.
func DayFromKey(key string) (string, bool) {
	i := strings.LastIndexByte(key, ':')
	if i < 0 || len(key)-i-1 != len(dayLayout) {
		return "", false
	}
	return key[i+1:], true
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source. Used by tests to simulate day rollover.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the timezone used to render day keys. Day partitioning
// follows this location's midnight, matching the countdown shown to users.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// Service owns counter key construction and the error policy around a
// CounterStore backend. Backend failures never propagate to callers: reads
// fail open to 0 and writes degrade to a no-op returning the pre-increment
// value. This favors availability over strict accounting.
type Service struct {
	store  CounterStore
	logger *slog.Logger
	now    func() time.Time
	loc    *time.Location
}

// NewService creates a usage Service over the given backend.
func NewService(store CounterStore, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current day key in the service's location.
func (s *Service) Today() string {
	return s.now().In(s.loc).Format(dayLayout)
}

// Read returns today's count for the feature and user. Returns 0 when no
// entry exists yet, and 0 when the backend is unavailable (fail open).
func (s *Service) Read(ctx context.Context, kind types.FeatureKind, userID string) int {
	key := Key(kind, userID, s.Today())
	n, err := s.store.Read(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "counter read failed, returning zero",
			"key", key,
			"error", err,
		)
		return 0
	}
	return n
}

// Increment adds one to today's count for the feature and user and returns
// the new count. When the backend write fails, the increment is dropped and
// the pre-increment value is returned (fail safe on write).
//
// Increments from a single process are ordered by call order; two processes
// sharing a backend without atomic increments can race (last write wins).
// That limitation is accepted for the in-memory store; the Postgres and Redis
// backends increment atomically.
func (s *Service) Increment(ctx context.Context, kind types.FeatureKind, userID string) int {
	key := Key(kind, userID, s.Today())
	n, err := s.store.Increment(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "counter increment failed, dropping increment",
			"key", key,
			"error", err,
		)
		return s.Read(ctx, kind, userID)
	}
	return n
}

// ResetAll removes today's daily-counter entries for the given user, across
// all feature kinds. Intended for manual/testing resets; it is never invoked
// automatically, since the daily reset is emergent from date-keyed storage.
func (s *Service) ResetAll(ctx context.Context, userID string) {
	today := s.Today()
	keys := make([]string, 0, len(types.AllFeatureKinds))
	for _, kind := range types.AllFeatureKinds {
		keys = append(keys, Key(kind, userID, today))
	}
	if err := s.store.Delete(ctx, keys...); err != nil {
		s.logger.WarnContext(ctx, "counter reset failed",
			"user_id", userID,
			"error", err,
		)
	}
}

// PruneBefore removes entries older than the given number of days and returns
// how many were removed. The cutoff never includes the current day.
func (s *Service) PruneBefore(ctx context.Context, retainDays int) (int, error) {
	if retainDays < 1 {
		retainDays = 1
	}
	cutoff := s.now().In(s.loc).AddDate(0, 0, -retainDays).Format(dayLayout)
	return s.store.PruneBefore(ctx, cutoff)
}
