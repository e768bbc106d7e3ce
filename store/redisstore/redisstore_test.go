package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scality/utapi/store"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return NewFromClient(client), mr
}

func TestBatchIncrAndGetRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	results, err := s.Batch(ctx, []store.Cmd{
		store.IncrBy("counter:x", 7),
		store.Get("counter:x"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), results[0].Int)
	assert.Equal(t, int64(7), results[1].Int)
}

func TestGetMissingKeyReturnsErrNoSuchKey(t *testing.T) {
	s, _ := newTestStore(t)
	results, err := s.Batch(context.Background(), []store.Cmd{store.Get("absent")})
	require.NoError(t, err)
	assert.ErrorIs(t, results[0].Err, store.ErrNoSuchKey)
}

func TestZAddAndZRevRangeByScore(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Batch(ctx, []store.Cmd{
		store.ZAdd("state:bucket", 100, "v1"),
		store.ZAdd("state:bucket", 300, "v3"),
		store.ZAdd("state:bucket", 200, "v2"),
	})
	require.NoError(t, err)

	results, err := s.Batch(ctx, []store.Cmd{store.ZRevRangeByScore("state:bucket", 1000, 2)})
	require.NoError(t, err)
	assert.Equal(t, []string{"v3", "v2"}, results[0].Strs)
}

func TestZRemRangeByScoreEvictsExactSample(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Batch(ctx, []store.Cmd{
		store.ZAdd("state:bucket", 100, "v1"),
		store.ZRemRangeByScore("state:bucket", 100),
	})
	require.NoError(t, err)

	results, err := s.Batch(ctx, []store.Cmd{store.ZRevRangeByScore("state:bucket", 1000, 10)})
	require.NoError(t, err)
	assert.Empty(t, results[0].Strs)
}

func TestZRangeByScoreAscendingWithinBounds(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Batch(ctx, []store.Cmd{
		store.ZAdd("state:bucket", 100, "v1"),
		store.ZAdd("state:bucket", 300, "v3"),
		store.ZAdd("state:bucket", 200, "v2"),
	})
	require.NoError(t, err)

	results, err := s.Batch(ctx, []store.Cmd{store.ZRangeByScore("state:bucket", 100, 200)})
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, results[0].Strs)
}

func TestDecrByAllowsNegativeCounter(t *testing.T) {
	s, _ := newTestStore(t)
	results, err := s.Batch(context.Background(), []store.Cmd{store.DecrBy("counter:y", 4)})
	require.NoError(t, err)
	assert.Equal(t, int64(-4), results[0].Int)
}

func TestPingReflectsServerAvailability(t *testing.T) {
	s, mr := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))

	mr.Close()
	assert.Error(t, s.Ping(context.Background()))
}
