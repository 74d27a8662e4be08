// Package redis backs the balance cache and the activity ranking with Redis.
package redis

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
)

const storeName = "redis"

// Store implements store.Cache with string keys and store.Ranking with
// sorted sets.
type Store struct {
	client redis.UniversalClient
}

// New wraps a connected client.
func New(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

func (s *Store) Name() string { return storeName }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return store.NewUnavailableError(storeName, "ping", err)
	}
	return nil
}

func isConnectivity(err error) bool {
	var netErr net.Error
	return errors.Is(err, redis.ErrClosed) ||
		errors.Is(err, io.EOF) ||
		errors.As(err, &netErr)
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, store.WrapTargetError(storeName, "get "+key, err, isConnectivity)
	}
	return value, true, nil
}

// Set writes value with a relative expiry; Redis evicts the key on its own.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return store.WrapTargetError(storeName, "set "+key, err, isConnectivity)
	}
	return nil
}

// Add writes value only if key does not exist.
func (s *Store) Add(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	stored, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, store.WrapTargetError(storeName, "setnx "+key, err, isConnectivity)
	}
	return stored, nil
}

func (s *Store) Increment(ctx context.Context, board, member string, by float64) (float64, error) {
	score, err := s.client.ZIncrBy(ctx, board, by, member).Result()
	if err != nil {
		return 0, store.WrapTargetError(storeName, "zincrby "+board, err, isConnectivity)
	}
	return score, nil
}

func (s *Store) Top(ctx context.Context, board string, n int) ([]store.RankEntry, error) {
	stop := int64(n) - 1
	if n <= 0 {
		stop = -1
	}

	members, err := s.client.ZRevRangeWithScores(ctx, board, 0, stop).Result()
	if err != nil {
		return nil, store.WrapTargetError(storeName, "zrevrange "+board, err, isConnectivity)
	}
	return rankEntries(members), nil
}

func rankEntries(members []redis.Z) []store.RankEntry {
	out := make([]store.RankEntry, 0, len(members))
	for _, z := range members {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		out = append(out, store.RankEntry{Member: member, Score: z.Score})
	}
	return out
}

var (
	_ store.Cache   = (*Store)(nil)
	_ store.Ranking = (*Store)(nil)
)
