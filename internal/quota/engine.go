// Package quota enforces monthly usage quotas as keyed atomic counters.
// A single engine covers both directions: the user quota counts up from zero
// on the write path, the link-hit quota counts down from the limit on the
// read path. All cross-request coordination is delegated to the atomic store;
// the engine holds no state of its own.
package quota

import (
	"context"
	"fmt"
	"time"
)

// AtomicStore is the single primitive the engine relies on: create the key at
// initial if absent, apply delta, arm the TTL exactly once (only on the call
// that created the key), and return the post-operation value. The whole
// sequence must be atomic against concurrent callers of the same key.
type AtomicStore interface {
	ConsumeInit(ctx context.Context, key string, initial, delta int64, ttl time.Duration) (int64, error)
}

// KeyFunc maps a quota subject and a point in time to the store key for that
// subject's calendar-month counter.
type KeyFunc func(subjectID string, at time.Time) string

// Result is the outcome of a single quota consumption attempt.
type Result struct {
	Allowed   bool
	Remaining int64
	// RetryAfter is set on denial and points at the start of the next UTC
	// calendar month, when the counter's TTL lapses.
	RetryAfter time.Duration
}

type Engine struct {
	store   AtomicStore
	keyFunc KeyFunc
	countUp bool
	now     func() time.Time
}

// NewUserQuota returns an engine counting link creations up towards the
// monthly limit.
func NewUserQuota(store AtomicStore, keyFunc KeyFunc) *Engine {
	return &Engine{
		store:   store,
		keyFunc: keyFunc,
		countUp: true,
		now:     time.Now,
	}
}

// NewLinkHitQuota returns an engine counting resolutions down from the
// monthly limit.
func NewLinkHitQuota(store AtomicStore, keyFunc KeyFunc) *Engine {
	return &Engine{
		store:   store,
		keyFunc: keyFunc,
		countUp: false,
		now:     time.Now,
	}
}

// CheckAndConsume atomically applies one unit of usage to the subject's
// current-month counter and evaluates it against the limit. The consumption
// and the check are made against the same atomically-returned value, so there
// is no read-then-write race: at most one request straddles the limit
// boundary. The operation is never retried; retrying would double-count.
func (e *Engine) CheckAndConsume(ctx context.Context, subjectID string, limit int64) (Result, error) {
	const op = "quota.Engine.CheckAndConsume"

	now := e.now().UTC()
	key := e.keyFunc(subjectID, now)
	ttl := nextMonthStart(now).Sub(now)

	initial, delta := int64(0), int64(1)
	if !e.countUp {
		initial, delta = limit, -1
	}

	value, err := e.store.ConsumeInit(ctx, key, initial, delta, ttl)
	if err != nil {
		return Result{}, fmt.Errorf("%s: failed to consume quota: %w", op, err)
	}

	if e.countUp {
		if value > limit {
			return Result{RetryAfter: ttl}, nil
		}
		return Result{Allowed: true, Remaining: limit - value}, nil
	}

	if value < 0 {
		return Result{RetryAfter: ttl}, nil
	}
	return Result{Allowed: true, Remaining: value}, nil
}

// nextMonthStart returns midnight UTC on the first day of the month after t.
func nextMonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}
