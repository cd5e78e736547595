package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client), mr
}

func TestIncrWithTTLIfFirst(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	n, err := c.IncrWithTTLIfFirst(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.Equal(t, time.Minute, mr.TTL("k"))

	// 第二次自增不得刷新 TTL
	mr.FastForward(30 * time.Second)
	n, err = c.IncrWithTTLIfFirst(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
	require.Equal(t, 30*time.Second, mr.TTL("k"))

	// 窗口过期后重新从 1 开始
	mr.FastForward(31 * time.Second)
	n, err = c.IncrWithTTLIfFirst(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestSetNX(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "guard", "1", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.SetNX(ctx, "guard", "1", time.Hour)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetSetAndNil(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNil)

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", v)
}

func TestScan(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "mooda:cnt:today:country:UZ:HAPPY", "3", time.Hour))
	require.NoError(t, c.Set(ctx, "mooda:cnt:today:country:US:HAPPY", "2", time.Hour))
	require.NoError(t, c.Set(ctx, "mooda:cnt:today:country:US:SAD", "1", time.Hour))

	keys, err := c.Scan(ctx, PatternCountryCounters)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	require.ElementsMatch(t, []string{
		"mooda:cnt:today:country:UZ:HAPPY",
		"mooda:cnt:today:country:US:HAPPY",
	}, keys)
}

func TestPSubscribe(t *testing.T) {
	c, _ := newTestCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := c.PSubscribe(ctx, "mooda:stats:*")
	require.NoError(t, err)

	require.NoError(t, c.Publish(ctx, "mooda:stats:UZ", `{"n":1}`))

	select {
	case msg := <-msgs:
		require.Equal(t, "mooda:stats:UZ", msg.Channel)
		require.Equal(t, `{"n":1}`, msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}

	cancel()
	select {
	case _, open := <-msgs:
		require.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestKeyShapes(t *testing.T) {
	require.Equal(t, "mooda:rl:submit:abc", RateLimitKey("abc"))
	require.Equal(t, "mooda:submitted:dev:abc:2024-01-01", GuardKey("dev", "abc", "2024-01-01"))
	require.Equal(t, "mooda:cnt:today:mood:HAPPY", MoodCounterKey("HAPPY"))
	require.Equal(t, "mooda:cnt:today:country:UZ:HAPPY", CountryCounterKey("UZ", "HAPPY"))
	require.Equal(t, "mooda:stats:last:GLOBAL", LastSnapshotKey("GLOBAL"))
	require.Equal(t, "mooda:stats:UZ", StatsChannel("UZ"))
	require.Equal(t, "mooda:last:user:u1", LastMoodKey("user", "u1"))
}
