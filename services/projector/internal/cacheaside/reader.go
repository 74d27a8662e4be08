// Package cacheaside serves user balances through a TTL cache backed by the
// record store.
package cacheaside

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/logger"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/metrics"
)

// DefaultTTL is how long a populated balance stays valid.
const DefaultTTL = 5 * time.Minute

// SourceTimeout bounds a record store read made on a cache miss.
const SourceTimeout = 5 * time.Second

// BalanceKey is the cache key holding a user's balance.
func BalanceKey(userID int64) string {
	return "user_balance:" + strconv.FormatInt(userID, 10)
}

// Reader implements cache-aside reads of user balances. Concurrent misses for
// the same key share one source read. Misses populate the cache only when no
// entry exists, so a concurrent Invalidate is never overwritten by an older
// value.
type Reader struct {
	cache  store.Cache
	source store.BalanceSource
	ttl    time.Duration
	logger *logger.Logger
	group  singleflight.Group
}

// NewReader creates a Reader; a non-positive ttl uses DefaultTTL.
func NewReader(cache store.Cache, source store.BalanceSource, ttl time.Duration, logger *logger.Logger) *Reader {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Reader{cache: cache, source: source, ttl: ttl, logger: logger}
}

// GetCached returns the cached balance without touching the record store.
func (r *Reader) GetCached(ctx context.Context, userID int64) (float64, bool, error) {
	raw, ok, err := r.cache.Get(ctx, BalanceKey(userID))
	if err != nil || !ok {
		return 0, false, err
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt cache entry %s: %w", BalanceKey(userID), err)
	}
	return value, true, nil
}

// Read returns the user's balance from the cache or, on a miss, from the
// record store, populating the cache. Unknown users yield store.ErrNotFound
// and leave the cache untouched. A failing cache degrades to source reads.
func (r *Reader) Read(ctx context.Context, userID int64) (float64, error) {
	value, ok, err := r.GetCached(ctx, userID)
	switch {
	case err != nil:
		metrics.RecordCacheRequest(metrics.CacheError)
		r.logger.Warnf("Cache read failed for user %d, falling back to record store: %v", userID, err)
	case ok:
		metrics.RecordCacheRequest(metrics.CacheHit)
		return value, nil
	default:
		metrics.RecordCacheRequest(metrics.CacheMiss)
	}

	key := BalanceKey(userID)
	ch := r.group.DoChan(key, func() (interface{}, error) {
		return r.load(ctx, userID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(float64), nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// load reads the balance from the record store and populates the cache if no
// entry appeared meanwhile. The read is shared by every waiter of the flight,
// so it runs detached from the caller's cancellation but within
// SourceTimeout.
func (r *Reader) load(ctx context.Context, userID int64) (float64, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), SourceTimeout)
	defer cancel()

	balance, err := r.source.Balance(ctx, userID)
	if err != nil {
		return 0, err
	}

	key := BalanceKey(userID)
	stored, err := r.cache.Add(ctx, key, formatBalance(balance), r.ttl)
	switch {
	case err != nil:
		r.logger.Warnf("Failed to populate cache for user %d: %v", userID, err)
	case !stored:
		// A write overwrote the entry while the source was read; its value is newer
		if cached, ok, err := r.GetCached(ctx, userID); err == nil && ok {
			r.logger.Debugf("Kept newer cached balance for user %d", userID)
			return cached, nil
		}
	}
	return balance, nil
}

// Invalidate overwrites the cached balance after a write changed it, so the
// next read observes value even inside the previous entry's TTL.
func (r *Reader) Invalidate(ctx context.Context, userID int64, value float64) error {
	if err := r.cache.Set(ctx, BalanceKey(userID), formatBalance(value), r.ttl); err != nil {
		return fmt.Errorf("failed to overwrite cached balance for user %d: %w", userID, err)
	}
	r.logger.Debugf("Overwrote cached balance for user %d", userID)
	return nil
}

func formatBalance(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
