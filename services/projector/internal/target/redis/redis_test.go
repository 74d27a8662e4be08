package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
)

func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:       "redis.invalid:6379",
		MaxRetries: -1,
		Dialer: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return nil, &net.OpError{Op: "dial", Net: network, Err: errors.New("connection refused")}
		},
	})
}

func TestStoreUnreachable(t *testing.T) {
	client := unreachableClient()
	defer client.Close()
	s := New(client)
	ctx := context.Background()

	assert.Equal(t, "redis", s.Name())
	assert.True(t, store.IsTargetUnavailable(s.Ping(ctx)))

	_, ok, err := s.Get(ctx, "user_balance:1")
	assert.False(t, ok)
	assert.True(t, store.IsTargetUnavailable(err))

	_, err = s.Add(ctx, "user_balance:1", "100", time.Minute)
	assert.True(t, store.IsTargetUnavailable(err))

	_, err = s.Top(ctx, "ranking_activos", 3)
	assert.True(t, store.IsTargetUnavailable(err))
}

func TestIsConnectivity(t *testing.T) {
	assert.True(t, isConnectivity(redis.ErrClosed))
	assert.True(t, isConnectivity(fmt.Errorf("read: %w", &net.OpError{Op: "read", Err: errors.New("reset")})))
	assert.False(t, isConnectivity(errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")))
}

func TestRankEntries(t *testing.T) {
	entries := rankEntries([]redis.Z{
		{Member: "7", Score: 12},
		{Member: "3", Score: 5},
		{Member: 42, Score: 1},
	})
	require.Len(t, entries, 2)
	assert.Equal(t, store.RankEntry{Member: "7", Score: 12}, entries[0])
	assert.Equal(t, store.RankEntry{Member: "3", Score: 5}, entries[1])
}
