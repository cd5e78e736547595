package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/nuqta-lab/mooda/internal/cache"
)

func TestGuardTryAcquireExactlyOnce(t *testing.T) {
	c, _ := newTestCache(t)
	guard := NewSubmissionGuard(c, time.UTC)
	id := DeviceIdentity("abc")

	// 并发抢占同一 (主体, 日) 守卫，只能有一个赢家
	var won int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if guard.TryAcquire(context.Background(), id, fixedDay, fixedNow) {
				atomic.AddInt64(&won, 1)
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, won)
}

func TestGuardDayAndTTLUseConfiguredZone(t *testing.T) {
	c, mr := newTestCache(t)
	zone := time.FixedZone("UZT", 5*3600)
	guard := NewSubmissionGuard(c, zone)

	// UTC 22:00 在 +05 时区已是次日
	now := time.Date(2024, 5, 1, 22, 0, 0, 0, time.UTC)
	require.Equal(t, "2024-05-02", guard.Day(now))

	// 本地 23:00 抢占，TTL 应为距本地零点的 1 小时
	local := time.Date(2024, 5, 1, 23, 0, 0, 0, zone)
	day := guard.Day(local)
	require.True(t, guard.TryAcquire(context.Background(), DeviceIdentity("dev1"), day, local))
	require.Equal(t, time.Hour, mr.TTL(cache.GuardKey("dev", "dev1", day)))
}

func TestGuardFreshIdentityNextDay(t *testing.T) {
	c, _ := newTestCache(t)
	guard := NewSubmissionGuard(c, time.UTC)
	id := DeviceIdentity("abc")
	ctx := context.Background()

	require.True(t, guard.TryAcquire(ctx, id, "2024-05-01", fixedNow))
	require.False(t, guard.TryAcquire(ctx, id, "2024-05-01", fixedNow))
	// 不同日是独立的守卫
	require.True(t, guard.TryAcquire(ctx, id, "2024-05-02", fixedNow.AddDate(0, 0, 1)))
	// 不同 scope 互不影响
	require.True(t, guard.TryAcquire(ctx, UserIdentity("abc"), "2024-05-01", fixedNow))
}

func TestGuardFailsOpenOnCacheError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	guard := NewSubmissionGuard(cache.New(client), time.UTC)
	mr.Close()

	require.True(t, guard.TryAcquire(context.Background(), DeviceIdentity("abc"), fixedDay, fixedNow))
}

func TestRateLimiterWindow(t *testing.T) {
	c, mr := newTestCache(t)
	limiter := NewRateLimiter(c, time.Minute)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		require.Equal(t, i, limiter.Hit(ctx, "abc"))
	}

	// 中途的命中不得刷新窗口
	mr.FastForward(30 * time.Second)
	limiter.Hit(ctx, "abc")
	require.Equal(t, 30*time.Second, mr.TTL(cache.RateLimitKey("abc")))

	// 窗口到期后重新计数
	mr.FastForward(31 * time.Second)
	require.EqualValues(t, 1, limiter.Hit(ctx, "abc"))
}

func TestRateLimiterFailsOpenOnCacheError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	limiter := NewRateLimiter(cache.New(client), time.Minute)
	mr.Close()

	require.EqualValues(t, 1, limiter.Hit(context.Background(), "abc"))
}
