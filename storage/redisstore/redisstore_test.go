package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/atelier-portal/storage/redisstore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestProvider(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	p := redisstore.New(rdb, "atelier", time.Hour)
	require.NoError(t, p.Ping(ctx))

	s := p.For("b1")
	require.NoError(t, s.Set(ctx, "token", "abc"))

	got, err := mr.Get("atelier:b1:token")
	require.NoError(t, err)
	require.Equal(t, "abc", got)
	require.Equal(t, time.Hour, mr.TTL("atelier:b1:token"))

	v, ok, err := s.Get(ctx, "token")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "abc", v)

	_, ok, err = p.For("b2").Get(ctx, "token")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Remove(ctx, "token"))
	require.NoError(t, s.Remove(ctx, "token"))
	require.False(t, mr.Exists("atelier:b1:token"))
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	s := redisstore.New(rdb, "atelier", time.Minute).For("b1")

	require.NoError(t, s.Set(ctx, "user", "{}"))
	mr.FastForward(2 * time.Minute)

	_, ok, err := s.Get(ctx, "user")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUnavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	mr.Close()

	_, _, err := redisstore.New(rdb, "atelier", 0).For("b1").Get(context.Background(), "user")
	require.Error(t, err)
}
